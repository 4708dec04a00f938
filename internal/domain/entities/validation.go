package entities

// ValidationStatus is the summarised review state stored on a note
type ValidationStatus string

const (
	ValidationStatusPending     ValidationStatus = "pending"
	ValidationStatusValidated   ValidationStatus = "validated"
	ValidationStatusNeedsReview ValidationStatus = "needs_review"
)

// ValidationResult is the advisory outcome of checking a composed note
type ValidationResult struct {
	Valid       bool     `json:"is_valid"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// Status maps the result onto the persisted validation status
func (v ValidationResult) Status() ValidationStatus {
	if len(v.Errors) == 0 {
		return ValidationStatusValidated
	}
	return ValidationStatusNeedsReview
}

// Notes flattens errors, warnings and suggestions, in that order
func (v ValidationResult) Notes() []string {
	notes := make([]string, 0, len(v.Errors)+len(v.Warnings)+len(v.Suggestions))
	notes = append(notes, v.Errors...)
	notes = append(notes, v.Warnings...)
	notes = append(notes, v.Suggestions...)
	return notes
}
