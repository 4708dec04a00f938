package recording

// ListRecordingsRequest represents query parameters for listing recordings
type ListRecordingsRequest struct {
	Status   string `query:"status" validate:"omitempty,oneof=uploaded transcribing transcribed processing completed failed"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ProcessRecordingRequest is the optional body of POST /recordings/:id/process
type ProcessRecordingRequest struct {
	PatientContext string `json:"patient_context" validate:"max=2000"`
	Specialty      string `json:"specialty" validate:"omitempty,specialty"`
}
