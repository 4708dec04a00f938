package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	"github.com/johnquangdev/medical-scribe/internal/domain/repositories"
)

// MedicalNoteRepository handles note data operations
type MedicalNoteRepository struct {
	db *gorm.DB
}

// NewMedicalNoteRepository creates a new note repository
func NewMedicalNoteRepository(db *gorm.DB) *MedicalNoteRepository {
	return &MedicalNoteRepository{db: db}
}

var _ repositories.MedicalNoteRepository = (*MedicalNoteRepository)(nil)

// contentColumns are replaced on regeneration; id, recording_id and created_at are kept
var contentColumns = []string{
	"subjective", "objective", "assessment", "plan", "chief_complaint",
	"allergies", "medications", "vital_signs", "specialty", "model_used",
	"prompt_tokens", "completion_tokens", "tokens_used", "generation_time_seconds",
	"raw_response", "validation_status", "validation_notes", "updated_at",
}

// FindByRecordingID retrieves the note of a recording
func (r *MedicalNoteRepository) FindByRecordingID(ctx context.Context, recordingID uuid.UUID) (*entities.MedicalNote, error) {
	var note entities.MedicalNote
	if err := r.db.WithContext(ctx).Where("recording_id = ?", recordingID).First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &note, nil
}

// Upsert inserts the note or updates the existing row for the same recording
func (r *MedicalNoteRepository) Upsert(ctx context.Context, note *entities.MedicalNote) error {
	if note == nil {
		return errors.New("note cannot be nil")
	}
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}

	err := r.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "recording_id"}},
			DoUpdates: clause.AssignmentColumns(contentColumns),
		},
		clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "created_at"}}},
	).Create(note).Error
	if err != nil {
		return err
	}
	return nil
}

// UpdateValidation stores validation status and notes
func (r *MedicalNoteRepository) UpdateValidation(ctx context.Context, note *entities.MedicalNote) error {
	if note == nil {
		return errors.New("note cannot be nil")
	}
	return r.db.WithContext(ctx).
		Model(&entities.MedicalNote{}).
		Where("recording_id = ?", note.RecordingID).
		Updates(map[string]interface{}{
			"validation_status": note.ValidationStatus,
			"validation_notes":  note.ValidationNotes,
		}).Error
}
