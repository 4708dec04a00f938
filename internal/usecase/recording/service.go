// Package recording manages uploaded consultation audio on behalf of its owner.
package recording

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/johnquangdev/medical-scribe/internal/domain/entities"
	"github.com/johnquangdev/medical-scribe/internal/domain/repositories"
)

// Service defines the interface for recording use case
type Service interface {
	// Upload stores the audio and creates a recording in the uploaded state
	Upload(ctx context.Context, input UploadInput) (*entities.Recording, error)

	// Get retrieves a recording owned by userID
	Get(ctx context.Context, id, userID uuid.UUID) (*entities.Recording, error)

	// List retrieves a page of the user's recordings, newest first
	List(ctx context.Context, userID uuid.UUID, filters repositories.RecordingFilters) ([]*entities.Recording, int64, error)

	// Delete removes a recording, its note and its audio object
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// UploadInput is one audio file submitted by a user
type UploadInput struct {
	UserID      uuid.UUID
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ObjectStore is the part of object storage used for audio files
type ObjectStore interface {
	PutAudio(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
}

// AllowedExtensions lists the accepted audio file extensions
var AllowedExtensions = []string{".wav", ".mp3", ".m4a", ".ogg", ".flac", ".webm"}

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)
