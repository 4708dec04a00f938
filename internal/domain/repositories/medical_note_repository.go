package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
)

// MedicalNoteRepository defines the interface for note data access
type MedicalNoteRepository interface {
	// FindByRecordingID retrieves the note of a recording, or (nil, nil)
	FindByRecordingID(ctx context.Context, recordingID uuid.UUID) (*entities.MedicalNote, error)

	// Upsert inserts the note or replaces the content of the recording's existing one.
	// On return note.ID is the persisted row's ID.
	Upsert(ctx context.Context, note *entities.MedicalNote) error

	// UpdateValidation stores the validation status and notes
	UpdateValidation(ctx context.Context, note *entities.MedicalNote) error
}
