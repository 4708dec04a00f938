// Package ai holds the contracts and adapters for the external processing
// engines: speech-to-text, text generation and biomedical entity tagging.
package ai

import (
	"context"
	"errors"
)

var (
	// ErrEngineUnavailable means a backend could not be reached or loaded.
	ErrEngineUnavailable = errors.New("engine unavailable")
	// ErrModelMissing means the requested model identifier is not resolvable.
	ErrModelMissing = errors.New("model missing")
	// ErrAudioNotFound means the audio file handed to a transcription engine does not exist.
	ErrAudioNotFound = errors.New("audio file not found")
)

// Transcription task names
const (
	TaskTranscribe = "transcribe"
	TaskTranslate  = "translate"
)

// TranscribeRequest is the input of a transcription call
type TranscribeRequest struct {
	AudioPath string
	Language  string
	Task      string
}

// TranscriptSegment is a timed slice of the transcript, in seconds
type TranscriptSegment struct {
	Start   float64
	End     float64
	Text    string
	Speaker string
}

// Transcript is the output of a transcription call
type Transcript struct {
	Text            string
	Language        string
	Segments        []TranscriptSegment
	DurationSeconds float64
}

// TranscriptionEngine converts an audio file to text
type TranscriptionEngine interface {
	Transcribe(ctx context.Context, req TranscribeRequest) (*Transcript, error)
}

// GenerateRequest is the input of a text generation call
type GenerateRequest struct {
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// GenerateResponse is the output of a text generation call.
// Token counts are zero when the backend does not report them.
type GenerateResponse struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// GenerationEngine produces free-form text from a prompt
type GenerationEngine interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Entity tag types understood by the extractor
const (
	TagDisease  = "disease"
	TagChemical = "chemical"
)

// Tag is one recognised entity
type Tag struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NEREngine tags named entities in free text
type NEREngine interface {
	Tag(ctx context.Context, text string) ([]Tag, error)
}

// unavailable wraps err so that errors.Is(err, ErrEngineUnavailable) holds
func unavailable(engine string, err error) error {
	return &engineError{engine: engine, kind: ErrEngineUnavailable, err: err}
}

// modelMissing wraps err so that errors.Is(err, ErrModelMissing) holds
func modelMissing(engine string, err error) error {
	return &engineError{engine: engine, kind: ErrModelMissing, err: err}
}

type engineError struct {
	engine string
	kind   error
	err    error
}

func (e *engineError) Error() string {
	if e.err == nil {
		return e.engine + ": " + e.kind.Error()
	}
	return e.engine + ": " + e.kind.Error() + ": " + e.err.Error()
}

func (e *engineError) Is(target error) bool {
	return target == e.kind
}

func (e *engineError) Unwrap() error {
	return e.err
}
