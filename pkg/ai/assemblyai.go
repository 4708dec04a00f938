package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	backoff "github.com/cenkalti/backoff/v4"
)

// AssemblyAIEngine transcribes audio with the AssemblyAI cloud API (official SDK)
type AssemblyAIEngine struct {
	client *aai.Client
	// retry policy for the upload+transcribe round trip
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsed      time.Duration
}

// AssemblyAIOption configures an AssemblyAIEngine
type AssemblyAIOption func(*assemblyAIConfig)

type assemblyAIConfig struct {
	baseURL    string
	httpClient *http.Client
	maxElapsed time.Duration
}

// WithAssemblyAIBaseURL points the SDK at another API host
func WithAssemblyAIBaseURL(url string) AssemblyAIOption {
	return func(c *assemblyAIConfig) {
		c.baseURL = url
	}
}

// WithAssemblyAIHTTPClient overrides the SDK HTTP client
func WithAssemblyAIHTTPClient(hc *http.Client) AssemblyAIOption {
	return func(c *assemblyAIConfig) {
		c.httpClient = hc
	}
}

// WithAssemblyAIRetryWindow bounds the total time spent retrying transient failures
func WithAssemblyAIRetryWindow(d time.Duration) AssemblyAIOption {
	return func(c *assemblyAIConfig) {
		c.maxElapsed = d
	}
}

// NewAssemblyAIEngine creates an AssemblyAI-backed transcription engine
func NewAssemblyAIEngine(apiKey string, opts ...AssemblyAIOption) (*AssemblyAIEngine, error) {
	if apiKey == "" {
		return nil, errors.New("assemblyai: apiKey must not be empty")
	}
	cfg := &assemblyAIConfig{maxElapsed: 30 * time.Second}
	for _, o := range opts {
		o(cfg)
	}

	clientOpts := []aai.ClientOption{aai.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, aai.WithBaseURL(cfg.baseURL))
	}
	if cfg.httpClient != nil {
		clientOpts = append(clientOpts, aai.WithHTTPClient(cfg.httpClient))
	}

	return &AssemblyAIEngine{
		client:          aai.NewClientWithOptions(clientOpts...),
		initialInterval: 2 * time.Second,
		maxInterval:     10 * time.Second,
		maxElapsed:      cfg.maxElapsed,
	}, nil
}

// Transcribe implements TranscriptionEngine. The file is uploaded, submitted
// and polled until AssemblyAI reports a terminal status.
func (a *AssemblyAIEngine) Transcribe(ctx context.Context, req TranscribeRequest) (*Transcript, error) {
	if _, err := os.Stat(req.AudioPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("assemblyai: %s: %w", req.AudioPath, ErrAudioNotFound)
		}
		return nil, fmt.Errorf("assemblyai: stat audio: %w", err)
	}

	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(true),
	}
	if req.Language != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(req.Language)
	} else {
		params.LanguageDetection = aai.Bool(true)
	}

	var transcript aai.Transcript
	submitFn := func() error {
		f, err := os.Open(req.AudioPath)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("open audio: %w", err))
		}
		defer f.Close()

		transcript, err = a.client.Transcripts.TranscribeFromReader(ctx, f, params)
		if err != nil {
			var apiErr aai.APIError
			if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = a.initialInterval
	bo.MaxInterval = a.maxInterval
	bo.MaxElapsedTime = a.maxElapsed

	if err := backoff.Retry(submitFn, backoff.WithContext(bo, ctx)); err != nil {
		return nil, unavailable("assemblyai", err)
	}

	if transcript.Status == aai.TranscriptStatusError {
		msg := "transcription failed"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return nil, unavailable("assemblyai", errors.New(msg))
	}

	return convertAssemblyAITranscript(transcript, req.Language), nil
}

func convertAssemblyAITranscript(t aai.Transcript, languageHint string) *Transcript {
	out := &Transcript{Language: languageHint}
	if t.Text != nil {
		out.Text = *t.Text
	}
	if t.LanguageCode != "" {
		out.Language = string(t.LanguageCode)
	}
	if t.AudioDuration != nil {
		out.DurationSeconds = float64(*t.AudioDuration)
	}

	for _, utt := range t.Utterances {
		seg := TranscriptSegment{}
		if utt.Text != nil {
			seg.Text = *utt.Text
		}
		if utt.Speaker != nil {
			seg.Speaker = *utt.Speaker
		}
		if utt.Start != nil {
			seg.Start = float64(*utt.Start) / 1000.0 // ms to seconds
		}
		if utt.End != nil {
			seg.End = float64(*utt.End) / 1000.0
		}
		out.Segments = append(out.Segments, seg)
	}
	return out
}
