package errors

import (
	"errors"
	"fmt"

	"github.com/johnquangdev/medical-scribe/pkg/ai"
)

// Common errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden access")
	ErrNotFound      = errors.New("resource not found")
	ErrInternalError = errors.New("internal server error")
)

// Pipeline errors
var (
	// ErrConflict means the recording is already being processed.
	ErrConflict = errors.New("recording is already being processed")
	// ErrPrecondition means a required input (audio, transcript, note) is absent.
	ErrPrecondition = errors.New("precondition failed")
	// ErrMalformedOutput means generated text could not be parsed into a note.
	ErrMalformedOutput = errors.New("malformed model output")
	// ErrNoteNotFound means the recording has no generated note yet. It matches ErrNotFound.
	ErrNoteNotFound = fmt.Errorf("medical note: %w", ErrNotFound)
)

// Engine errors, shared with the engine adapters so errors.Is works across layers
var (
	ErrEngineUnavailable = ai.ErrEngineUnavailable
	ErrModelMissing      = ai.ErrModelMissing
)

// Upload errors
var (
	ErrUnsupportedAudio = errors.New("unsupported audio format")
	ErrFileTooLarge     = errors.New("file too large")
	ErrEmptyFile        = errors.New("empty file")
)
