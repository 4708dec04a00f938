package note

import "time"

// MedicalNoteResponse represents a SOAP note in API responses
type MedicalNoteResponse struct {
	ID                    string            `json:"id"`
	RecordingID           string            `json:"recording_id"`
	Subjective            string            `json:"subjective"`
	Objective             string            `json:"objective"`
	Assessment            string            `json:"assessment"`
	Plan                  string            `json:"plan"`
	ChiefComplaint        string            `json:"chief_complaint"`
	Allergies             []string          `json:"allergies"`
	Medications           []string          `json:"medications"`
	VitalSigns            map[string]string `json:"vital_signs"`
	Specialty             string            `json:"specialty"`
	ModelUsed             string            `json:"model_used"`
	PromptTokens          *int              `json:"prompt_tokens,omitempty"`
	CompletionTokens      *int              `json:"completion_tokens,omitempty"`
	TokensUsed            *int              `json:"tokens_used,omitempty"`
	GenerationTimeSeconds float64           `json:"generation_time_seconds"`
	ValidationStatus      string            `json:"validation_status"`
	ValidationNotes       []string          `json:"validation_notes"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// LetterResponse represents a generated referral letter
type LetterResponse struct {
	Letter                string    `json:"letter"`
	Specialty             string    `json:"specialty"`
	LetterType            string    `json:"letter_type"`
	PatientName           string    `json:"patient_name"`
	DoctorName            string    `json:"doctor_name"`
	ModelUsed             string    `json:"model_used"`
	GenerationTimeSeconds float64   `json:"generation_time_seconds"`
	GeneratedAt           time.Time `json:"generated_at"`
}
