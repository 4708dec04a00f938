package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
)

// RecordingFilters holds pagination for listing a user's recordings
type RecordingFilters struct {
	Status *entities.RecordingStatus
	Page   int
	Limit  int
}

// RecordingRepository defines the interface for recording data access.
// Finders return (nil, nil) when nothing matches.
type RecordingRepository interface {
	// Create inserts a new recording
	Create(ctx context.Context, recording *entities.Recording) error

	// FindByID retrieves a recording by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Recording, error)

	// FindByIDForUser retrieves a recording only if it belongs to userID
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Recording, error)

	// ListByUser retrieves a page of a user's recordings, newest first, and the total count
	ListByUser(ctx context.Context, userID uuid.UUID, filters RecordingFilters) ([]*entities.Recording, int64, error)

	// ClaimForProcessing atomically moves the recording from one of the from
	// statuses to `to`, stamping attemptID and clearing the error message. It
	// reports false when another caller won or the status no longer matches.
	ClaimForProcessing(ctx context.Context, id, attemptID uuid.UUID, from []entities.RecordingStatus, to entities.RecordingStatus) (bool, error)

	// UpdateStatus moves the recording from `from` to `to` while attemptID
	// still owns it. It reports false when the claim was superseded.
	UpdateStatus(ctx context.Context, id, attemptID uuid.UUID, from, to entities.RecordingStatus) (bool, error)

	// SaveTranscript stores the transcription output and status in one write,
	// only while recording.AttemptID still holds the transcribing claim
	SaveTranscript(ctx context.Context, recording *entities.Recording) (bool, error)

	// MarkFailed sets status failed with a cause if attemptID still owns the
	// in-flight recording
	MarkFailed(ctx context.Context, id, attemptID uuid.UUID, cause string) (bool, error)

	// FindStalled lists recordings in one of statuses not updated since before
	FindStalled(ctx context.Context, statuses []entities.RecordingStatus, before time.Time) ([]*entities.Recording, error)

	// Delete removes the recording and its note
	Delete(ctx context.Context, id uuid.UUID) error
}
