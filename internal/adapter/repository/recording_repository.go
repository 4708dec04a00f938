package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	"github.com/johnquangdev/medical-scribe/internal/domain/repositories"
)

// RecordingRepository handles recording data operations
type RecordingRepository struct {
	db *gorm.DB
}

// NewRecordingRepository creates a new recording repository
func NewRecordingRepository(db *gorm.DB) *RecordingRepository {
	return &RecordingRepository{db: db}
}

var _ repositories.RecordingRepository = (*RecordingRepository)(nil)

// Create creates a new recording
func (r *RecordingRepository) Create(ctx context.Context, recording *entities.Recording) error {
	if recording == nil {
		return errors.New("recording cannot be nil")
	}
	return r.db.WithContext(ctx).Create(recording).Error
}

// FindByID retrieves a recording by ID
func (r *RecordingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Recording, error) {
	var recording entities.Recording
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&recording).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &recording, nil
}

// FindByIDForUser retrieves a recording owned by userID
func (r *RecordingRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*entities.Recording, error) {
	var recording entities.Recording
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&recording).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &recording, nil
}

// ListByUser retrieves a user's recordings with pagination
func (r *RecordingRepository) ListByUser(ctx context.Context, userID uuid.UUID, filters repositories.RecordingFilters) ([]*entities.Recording, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.Recording{}).Where("user_id = ?", userID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	offset := (filters.Page - 1) * filters.Limit

	var recordings []*entities.Recording
	if err := query.
		Order("created_at DESC").
		Limit(filters.Limit).
		Offset(offset).
		Find(&recordings).Error; err != nil {
		return nil, 0, err
	}
	return recordings, total, nil
}

// ClaimForProcessing atomically transitions a recording into `to` under a new attempt
func (r *RecordingRepository) ClaimForProcessing(ctx context.Context, id, attemptID uuid.UUID, from []entities.RecordingStatus, to entities.RecordingStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Recording{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":        to,
			"attempt_id":    attemptID,
			"error_message": nil,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateStatus advances the status if the attempt still owns the recording
func (r *RecordingRepository) UpdateStatus(ctx context.Context, id, attemptID uuid.UUID, from, to entities.RecordingStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Recording{}).
		Where("id = ? AND status = ? AND attempt_id = ?", id, from, attemptID).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SaveTranscript writes the transcript fields and status together
func (r *RecordingRepository) SaveTranscript(ctx context.Context, recording *entities.Recording) (bool, error) {
	if recording == nil {
		return false, errors.New("recording cannot be nil")
	}
	result := r.db.WithContext(ctx).
		Model(&entities.Recording{}).
		Where("id = ? AND status = ? AND attempt_id = ?", recording.ID, entities.RecordingStatusTranscribing, recording.AttemptID).
		Select("transcript", "transcript_language", "duration_seconds", "segments", "status", "error_message", "updated_at").
		Updates(&entities.Recording{
			Transcript:         recording.Transcript,
			TranscriptLanguage: recording.TranscriptLanguage,
			DurationSeconds:    recording.DurationSeconds,
			Segments:           recording.Segments,
			Status:             recording.Status,
			ErrorMessage:       recording.ErrorMessage,
			UpdatedAt:          time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkFailed sets the failed status and its cause
func (r *RecordingRepository) MarkFailed(ctx context.Context, id, attemptID uuid.UUID, cause string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Recording{}).
		Where("id = ? AND status IN ? AND attempt_id = ?", id, entities.InFlightStatuses, attemptID).
		Updates(map[string]interface{}{
			"status":        entities.RecordingStatusFailed,
			"error_message": cause,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FindStalled finds in-flight recordings whose last update is older than before
func (r *RecordingRepository) FindStalled(ctx context.Context, statuses []entities.RecordingStatus, before time.Time) ([]*entities.Recording, error) {
	var recordings []*entities.Recording
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", statuses, before).
		Order("updated_at ASC").
		Find(&recordings).Error; err != nil {
		return nil, err
	}
	return recordings, nil
}

// Delete deletes a recording and its note in one transaction
func (r *RecordingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recording_id = ?", id).Delete(&entities.MedicalNote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Recording{}, "id = ?", id).Error
	})
}
