package entities

import (
	"time"

	"github.com/google/uuid"
)

// RecordingStatus represents the pipeline status of a recording
type RecordingStatus string

const (
	RecordingStatusUploaded     RecordingStatus = "uploaded"
	RecordingStatusTranscribing RecordingStatus = "transcribing"
	RecordingStatusTranscribed  RecordingStatus = "transcribed"
	RecordingStatusProcessing   RecordingStatus = "processing"
	RecordingStatusCompleted    RecordingStatus = "completed"
	RecordingStatusFailed       RecordingStatus = "failed"
)

// StartableStatuses are the statuses from which processing may be (re)started.
var StartableStatuses = []RecordingStatus{RecordingStatusUploaded, RecordingStatusFailed}

// InFlightStatuses are the statuses owned by a running background unit.
var InFlightStatuses = []RecordingStatus{RecordingStatusTranscribing, RecordingStatusProcessing}

// Recording represents one uploaded clinical audio capture
type Recording struct {
	ID                 uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID             uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	StoragePath        string          `json:"storage_path" gorm:"type:text;not null"`
	OriginalFilename   string          `json:"original_filename" gorm:"type:varchar(255);not null"`
	FileSize           int64           `json:"file_size" gorm:"not null"`
	ContentType        string          `json:"content_type" gorm:"type:varchar(100)"`
	DurationSeconds    *float64        `json:"duration_seconds,omitempty"`
	Transcript         *string         `json:"transcript,omitempty" gorm:"type:text"`
	TranscriptLanguage *string         `json:"transcript_language,omitempty" gorm:"type:varchar(20)"`
	Segments           []Segment       `json:"segments,omitempty" gorm:"type:jsonb;serializer:json"`
	Status             RecordingStatus `json:"status" gorm:"type:varchar(20);not null;default:'uploaded';index"`
	ErrorMessage       *string         `json:"error_message,omitempty" gorm:"type:text"`
	AttemptID          uuid.UUID       `json:"-" gorm:"type:uuid;not null"`
	CreatedAt          time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Recording) TableName() string {
	return "recordings"
}

// NewRecording creates a recording in the uploaded state
func NewRecording(userID uuid.UUID, storagePath, filename, contentType string, size int64) *Recording {
	now := time.Now()
	return &Recording{
		ID:               uuid.New(),
		UserID:           userID,
		StoragePath:      storagePath,
		OriginalFilename: filename,
		FileSize:         size,
		ContentType:      contentType,
		Status:           RecordingStatusUploaded,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// CanStartProcessing reports whether the guard admits a new processing attempt.
// transcribing, processing and completed are non-re-entrant.
func (r *Recording) CanStartProcessing() bool {
	for _, s := range StartableStatuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

// OwnedBy reports whether attemptID holds the current processing claim
func (r *Recording) OwnedBy(attemptID uuid.UUID) bool {
	return r.AttemptID == attemptID
}

// HasTranscript reports whether a non-empty transcript is stored
func (r *Recording) HasTranscript() bool {
	return r.Transcript != nil && *r.Transcript != ""
}

// TranscriptText returns the transcript or an empty string
func (r *Recording) TranscriptText() string {
	if r.Transcript == nil {
		return ""
	}
	return *r.Transcript
}

// IsCompleted checks if recording is completed
func (r *Recording) IsCompleted() bool {
	return r.Status == RecordingStatusCompleted
}

// IsFailed checks if recording failed
func (r *Recording) IsFailed() bool {
	return r.Status == RecordingStatusFailed
}

// ApplyTranscription stores the engine output and marks the recording transcribed
func (r *Recording) ApplyTranscription(result *TranscriptionResult) {
	text := result.Text
	r.Transcript = &text
	if result.Language != "" {
		lang := result.Language
		r.TranscriptLanguage = &lang
	}
	duration := result.DurationSeconds
	r.DurationSeconds = &duration
	r.Segments = result.Segments
	r.Status = RecordingStatusTranscribed
	r.ErrorMessage = nil
}

// MarkAsProcessing marks recording as processing
func (r *Recording) MarkAsProcessing() {
	r.Status = RecordingStatusProcessing
}

// MarkAsCompleted marks recording as completed
func (r *Recording) MarkAsCompleted() {
	r.Status = RecordingStatusCompleted
	r.ErrorMessage = nil
}

// MarkAsFailed marks recording as failed
func (r *Recording) MarkAsFailed(errorMsg string) {
	r.Status = RecordingStatusFailed
	r.ErrorMessage = &errorMsg
}
