package letter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	"github.com/johnquangdev/medical-scribe/internal/domain/repositories"
	"github.com/johnquangdev/medical-scribe/internal/infrastructure/cache"
	usecaseErrors "github.com/johnquangdev/medical-scribe/internal/usecase/errors"
)

// Service produces letters for stored notes and caches them per note revision
type Service struct {
	recordings repositories.RecordingRepository
	notes      repositories.MedicalNoteRepository
	composer   *Composer
	cache      cache.Store
	ttl        time.Duration
	logger     *zap.Logger
}

// NewService creates a letter service. store may be nil to disable caching.
func NewService(
	recordings repositories.RecordingRepository,
	notes repositories.MedicalNoteRepository,
	composer *Composer,
	store cache.Store,
	ttl time.Duration,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		recordings: recordings,
		notes:      notes,
		composer:   composer,
		cache:      store,
		ttl:        ttl,
		logger:     logger,
	}
}

// Generate returns a letter for the recording's note
func (s *Service) Generate(ctx context.Context, recordingID uuid.UUID, req Request) (*entities.GeneratedLetter, error) {
	recording, err := s.recordings.FindByID(ctx, recordingID)
	if err != nil {
		return nil, fmt.Errorf("load recording: %w", err)
	}
	if recording == nil {
		return nil, fmt.Errorf("recording %s: %w", recordingID, usecaseErrors.ErrNotFound)
	}

	note, err := s.notes.FindByRecordingID(ctx, recordingID)
	if err != nil {
		return nil, fmt.Errorf("load note: %w", err)
	}
	if note == nil {
		return nil, fmt.Errorf("recording %s: %w", recordingID, usecaseErrors.ErrNoteNotFound)
	}

	req = req.withDefaults()
	key := cacheKey(note, req)

	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, key); err != nil {
			s.logger.Warn("letter cache read failed", zap.String("recording_id", recordingID.String()), zap.Error(err))
		} else if ok {
			var letter entities.GeneratedLetter
			if err := json.Unmarshal([]byte(cached), &letter); err == nil {
				s.logger.Debug("letter served from cache", zap.String("recording_id", recordingID.String()))
				return &letter, nil
			}
		}
	}

	letter, err := s.composer.Compose(ctx, note.SOAP(), req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if b, err := json.Marshal(letter); err == nil {
			if err := s.cache.Set(ctx, key, string(b), s.ttl); err != nil {
				s.logger.Warn("letter cache write failed", zap.String("recording_id", recordingID.String()), zap.Error(err))
			}
		}
	}
	return letter, nil
}

// cacheKey changes whenever the note is regenerated or the request differs
func cacheKey(note *entities.MedicalNote, req Request) string {
	b, _ := json.Marshal(req)
	sum := sha256.Sum256(b)
	return fmt.Sprintf("letter:%s:%d:%s", note.ID, note.UpdatedAt.UnixNano(), hex.EncodeToString(sum[:8]))
}
