package recording

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	"github.com/johnquangdev/medical-scribe/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/medical-scribe/internal/usecase/errors"
)

// RecordingService implements Service
type RecordingService struct {
	recordings repositories.RecordingRepository
	objects    ObjectStore
	maxBytes   int64
	logger     *zap.Logger
}

// Ensure RecordingService implements Service interface
var _ Service = (*RecordingService)(nil)

// NewRecordingService creates a recording service. maxBytes <= 0 disables the size limit.
func NewRecordingService(
	recordings repositories.RecordingRepository,
	objects ObjectStore,
	maxBytes int64,
	logger *zap.Logger,
) *RecordingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordingService{
		recordings: recordings,
		objects:    objects,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// Upload validates the file, stores it under recordings/{user}/{uuid}{ext}
// and creates the recording
func (s *RecordingService) Upload(ctx context.Context, input UploadInput) (*entities.Recording, error) {
	ext := strings.ToLower(filepath.Ext(input.Filename))
	if !isAllowedExtension(ext) {
		return nil, fmt.Errorf("%q (allowed: %s): %w", ext, strings.Join(AllowedExtensions, ", "), usecaseErrors.ErrUnsupportedAudio)
	}
	if input.Size <= 0 {
		return nil, usecaseErrors.ErrEmptyFile
	}
	if s.maxBytes > 0 && input.Size > s.maxBytes {
		return nil, fmt.Errorf("%d bytes exceeds %d: %w", input.Size, s.maxBytes, usecaseErrors.ErrFileTooLarge)
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("recordings/%s/%s%s", input.UserID, uuid.New(), ext)

	if err := s.objects.PutAudio(ctx, key, input.Body, input.Size, contentType); err != nil {
		return nil, fmt.Errorf("store audio: %w", err)
	}

	recording := entities.NewRecording(input.UserID, key, filepath.Base(input.Filename), contentType, input.Size)
	if err := s.recordings.Create(ctx, recording); err != nil {
		if rmErr := s.objects.Remove(context.WithoutCancel(ctx), key); rmErr != nil {
			s.logger.Warn("failed to remove orphaned audio",
				zap.String("object", key),
				zap.Error(rmErr),
			)
		}
		return nil, fmt.Errorf("create recording: %w", err)
	}

	s.logger.Info("🎙️ Recording uploaded",
		zap.String("recording_id", recording.ID.String()),
		zap.String("user_id", input.UserID.String()),
		zap.Int64("size", input.Size),
		zap.String("object", key),
	)
	return recording, nil
}

// Get retrieves a recording; someone else's recording is reported as not found
func (s *RecordingService) Get(ctx context.Context, id, userID uuid.UUID) (*entities.Recording, error) {
	recording, err := s.recordings.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("load recording: %w", err)
	}
	if recording == nil {
		return nil, fmt.Errorf("recording %s: %w", id, usecaseErrors.ErrNotFound)
	}
	return recording, nil
}

// List retrieves recordings with normalised pagination
func (s *RecordingService) List(ctx context.Context, userID uuid.UUID, filters repositories.RecordingFilters) ([]*entities.Recording, int64, error) {
	if filters.Page < 1 {
		filters.Page = defaultPage
	}
	if filters.Limit < 1 {
		filters.Limit = defaultLimit
	}
	if filters.Limit > maxLimit {
		filters.Limit = maxLimit
	}
	return s.recordings.ListByUser(ctx, userID, filters)
}

// Delete removes the recording and its note. Recordings owned by a running
// worker cannot be deleted. The audio object is removed best-effort.
func (s *RecordingService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	recording, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	for _, st := range entities.InFlightStatuses {
		if recording.Status == st {
			return fmt.Errorf("recording %s is %s: %w", id, recording.Status, usecaseErrors.ErrConflict)
		}
	}

	if err := s.recordings.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete recording: %w", err)
	}

	if err := s.objects.Remove(ctx, recording.StoragePath); err != nil {
		s.logger.Warn("failed to remove audio object",
			zap.String("recording_id", id.String()),
			zap.String("object", recording.StoragePath),
			zap.Error(err),
		)
	}

	s.logger.Info("🗑️ Recording deleted", zap.String("recording_id", id.String()))
	return nil
}

func isAllowedExtension(ext string) bool {
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
