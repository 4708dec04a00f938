package entities

import "time"

// GeneratedLetter is a referral letter composed from a note. It is not persisted.
type GeneratedLetter struct {
	Body                  string    `json:"letter"`
	Specialty             string    `json:"specialty"`
	LetterType            string    `json:"letter_type"`
	PatientName           string    `json:"patient_name"`
	DoctorName            string    `json:"doctor_name"`
	ModelUsed             string    `json:"model_used"`
	GenerationTimeSeconds float64   `json:"generation_time_seconds"`
	GeneratedAt           time.Time `json:"generated_at"`
}
