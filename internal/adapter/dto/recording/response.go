package recording

import (
	"time"

	"github.com/johnquangdev/medical-scribe/internal/adapter/dto/common"
)

// SegmentResponse is one timed slice of the transcript
type SegmentResponse struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// RecordingResponse represents a recording in API responses
type RecordingResponse struct {
	ID                 string            `json:"id"`
	OriginalFilename   string            `json:"original_filename"`
	FileSize           int64             `json:"file_size"`
	ContentType        string            `json:"content_type"`
	Status             string            `json:"status"`
	ErrorMessage       *string           `json:"error_message,omitempty"`
	DurationSeconds    *float64          `json:"duration_seconds,omitempty"`
	Transcript         *string           `json:"transcript,omitempty"`
	TranscriptLanguage *string           `json:"transcript_language,omitempty"`
	Segments           []SegmentResponse `json:"segments,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// RecordingListResponse represents a page of recordings
type RecordingListResponse struct {
	Recordings []*RecordingResponse       `json:"recordings"`
	Pagination *common.PaginationResponse `json:"pagination"`
}
