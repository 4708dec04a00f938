package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MedicalNote is the persisted SOAP note, one per recording
type MedicalNote struct {
	ID                    uuid.UUID                             `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RecordingID           uuid.UUID                             `json:"recording_id" gorm:"type:uuid;not null;uniqueIndex"`
	Subjective            string                                `json:"subjective" gorm:"type:text;not null;default:''"`
	Objective             string                                `json:"objective" gorm:"type:text;not null;default:''"`
	Assessment            string                                `json:"assessment" gorm:"type:text;not null;default:''"`
	Plan                  string                                `json:"plan" gorm:"type:text;not null;default:''"`
	ChiefComplaint        string                                `json:"chief_complaint" gorm:"type:text;not null;default:''"`
	Allergies             datatypes.JSONSlice[string]           `json:"allergies" gorm:"type:jsonb;not null;default:'[]'"`
	Medications           datatypes.JSONSlice[string]           `json:"medications" gorm:"type:jsonb;not null;default:'[]'"`
	VitalSigns            datatypes.JSONType[map[string]string] `json:"vital_signs" gorm:"type:jsonb;not null;default:'{}'"`
	Specialty             string                                `json:"specialty" gorm:"type:varchar(100)"`
	ModelUsed             string                                `json:"model_used" gorm:"type:varchar(100)"`
	PromptTokens          *int                                  `json:"prompt_tokens,omitempty"`
	CompletionTokens      *int                                  `json:"completion_tokens,omitempty"`
	TokensUsed            *int                                  `json:"tokens_used,omitempty"`
	GenerationTimeSeconds float64                               `json:"generation_time_seconds"`
	RawResponse           string                                `json:"-" gorm:"type:text"`
	ValidationStatus      ValidationStatus                      `json:"validation_status" gorm:"type:varchar(20);not null;default:'pending'"`
	ValidationNotes       datatypes.JSONSlice[string]           `json:"validation_notes" gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt             time.Time                             `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt             time.Time                             `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (MedicalNote) TableName() string {
	return "medical_notes"
}

// NewMedicalNote creates an empty, pending note for a recording
func NewMedicalNote(recordingID uuid.UUID) *MedicalNote {
	now := time.Now()
	return &MedicalNote{
		ID:               uuid.New(),
		RecordingID:      recordingID,
		Allergies:        datatypes.NewJSONSlice([]string{}),
		Medications:      datatypes.NewJSONSlice([]string{}),
		VitalSigns:       datatypes.NewJSONType(map[string]string{}),
		ValidationStatus: ValidationStatusPending,
		ValidationNotes:  datatypes.NewJSONSlice([]string{}),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// GenerationMeta describes how a note was produced
type GenerationMeta struct {
	Model            string
	PromptTokens     int
	CompletionTokens int
	Duration         time.Duration
	Specialty        string
}

// ApplyComposition replaces the note content and generation metadata.
// Validation is reset to pending until the validator runs again.
func (m *MedicalNote) ApplyComposition(note SOAPNote, meta GenerationMeta) {
	m.Subjective = note.Subjective
	m.Objective = note.Objective
	m.Assessment = note.Assessment
	m.Plan = note.Plan
	m.ChiefComplaint = note.ChiefComplaint
	m.Allergies = datatypes.NewJSONSlice(nonNil(note.Allergies))
	m.Medications = datatypes.NewJSONSlice(nonNil(note.Medications))
	vitals := note.VitalSigns
	if vitals == nil {
		vitals = map[string]string{}
	}
	m.VitalSigns = datatypes.NewJSONType(vitals)
	m.RawResponse = note.RawText
	m.Specialty = meta.Specialty
	m.ModelUsed = meta.Model

	prompt, completion := meta.PromptTokens, meta.CompletionTokens
	total := prompt + completion
	m.PromptTokens = &prompt
	m.CompletionTokens = &completion
	m.TokensUsed = &total
	m.GenerationTimeSeconds = meta.Duration.Seconds()

	m.ValidationStatus = ValidationStatusPending
	m.ValidationNotes = datatypes.NewJSONSlice([]string{})
}

// ApplyValidation stores the summarised validator outcome
func (m *MedicalNote) ApplyValidation(result ValidationResult) {
	m.ValidationStatus = result.Status()
	m.ValidationNotes = datatypes.NewJSONSlice(result.Notes())
}

// SOAP returns the note content as a typed record
func (m *MedicalNote) SOAP() SOAPNote {
	vitals := m.VitalSigns.Data()
	if vitals == nil {
		vitals = map[string]string{}
	}
	return SOAPNote{
		Subjective:     m.Subjective,
		Objective:      m.Objective,
		Assessment:     m.Assessment,
		Plan:           m.Plan,
		ChiefComplaint: m.ChiefComplaint,
		Allergies:      nonNil(m.Allergies),
		Medications:    nonNil(m.Medications),
		VitalSigns:     vitals,
		RawText:        m.RawResponse,
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
