package entities

// SOAPField names one field of the structured note schema.
type SOAPField string

const (
	FieldSubjective     SOAPField = "subjective"
	FieldObjective      SOAPField = "objective"
	FieldAssessment     SOAPField = "assessment"
	FieldPlan           SOAPField = "plan"
	FieldChiefComplaint SOAPField = "chief_complaint"
	FieldAllergies      SOAPField = "allergies"
	FieldMedications    SOAPField = "medications"
	FieldVitalSigns     SOAPField = "vital_signs"
)

// NarrativeFields are the four SOAP sections, in note order.
var NarrativeFields = []SOAPField{FieldSubjective, FieldObjective, FieldAssessment, FieldPlan}

// AllSOAPFields is the full required-field set used for note generation.
var AllSOAPFields = []SOAPField{
	FieldSubjective,
	FieldObjective,
	FieldAssessment,
	FieldPlan,
	FieldChiefComplaint,
	FieldAllergies,
	FieldMedications,
	FieldVitalSigns,
}

// SOAPNote is the typed record produced from generation output.
// Missing fields are always default-filled; it never carries nil collections
// once it has been through the parser.
type SOAPNote struct {
	Subjective     string            `json:"subjective"`
	Objective      string            `json:"objective"`
	Assessment     string            `json:"assessment"`
	Plan           string            `json:"plan"`
	ChiefComplaint string            `json:"chief_complaint"`
	Allergies      []string          `json:"allergies"`
	Medications    []string          `json:"medications"`
	VitalSigns     map[string]string `json:"vital_signs"`

	// RawText is the unmodified generation output, kept for audit.
	RawText string `json:"-"`
}

// Section returns the narrative text for one of the four SOAP fields
func (n *SOAPNote) Section(field SOAPField) string {
	switch field {
	case FieldSubjective:
		return n.Subjective
	case FieldObjective:
		return n.Objective
	case FieldAssessment:
		return n.Assessment
	case FieldPlan:
		return n.Plan
	case FieldChiefComplaint:
		return n.ChiefComplaint
	}
	return ""
}

// SetSection assigns a text field by name; list and map fields are ignored.
func (n *SOAPNote) SetSection(field SOAPField, value string) {
	switch field {
	case FieldSubjective:
		n.Subjective = value
	case FieldObjective:
		n.Objective = value
	case FieldAssessment:
		n.Assessment = value
	case FieldPlan:
		n.Plan = value
	case FieldChiefComplaint:
		n.ChiefComplaint = value
	}
}

// IsListField reports whether field holds a string list
func (f SOAPField) IsListField() bool {
	return f == FieldAllergies || f == FieldMedications
}

// IsMapField reports whether field holds the vital-signs mapping
func (f SOAPField) IsMapField() bool {
	return f == FieldVitalSigns
}
