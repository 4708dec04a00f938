package note

// RegenerateNoteRequest is the body of POST /recordings/:id/regenerate
type RegenerateNoteRequest struct {
	PatientContext string `json:"patient_context" validate:"max=2000"`
	Specialty      string `json:"specialty" validate:"omitempty,specialty"`
}

// GenerateLetterRequest is the body of POST /recordings/:id/letter
type GenerateLetterRequest struct {
	Specialty   string `json:"specialty" validate:"omitempty,specialty"`
	PatientName string `json:"patient_name" validate:"max=200"`
	DoctorName  string `json:"doctor_name" validate:"max=200"`
	LetterType  string `json:"letter_type" validate:"max=50"`
}
