package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WhisperEngine transcribes audio through a whisper.cpp server (POST /inference)
type WhisperEngine struct {
	serverURL  string
	httpClient *http.Client
}

// WhisperOption configures a WhisperEngine
type WhisperOption func(*WhisperEngine)

// WithWhisperHTTPClient overrides the HTTP client used for inference calls
func WithWhisperHTTPClient(c *http.Client) WhisperOption {
	return func(w *WhisperEngine) {
		w.httpClient = c
	}
}

// NewWhisperEngine creates an engine talking to the whisper.cpp server at serverURL
func NewWhisperEngine(serverURL string, timeout time.Duration, opts ...WhisperOption) (*WhisperEngine, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	w := &WhisperEngine{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperResponse struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
	Segments []whisperSegment `json:"segments"`
	Error    string           `json:"error"`
}

// Transcribe implements TranscriptionEngine
func (w *WhisperEngine) Transcribe(ctx context.Context, req TranscribeRequest) (*Transcript, error) {
	f, err := os.Open(req.AudioPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("whisper: %s: %w", req.AudioPath, ErrAudioNotFound)
		}
		return nil, fmt.Errorf("whisper: open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filepath.Base(req.AudioPath))
	if err != nil {
		return nil, fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, fmt.Errorf("whisper: copy audio: %w", err)
	}
	fields := map[string]string{
		"response_format": "verbose_json",
		"temperature":     "0.0",
	}
	if req.Language != "" {
		fields["language"] = req.Language
	}
	if req.Task == TaskTranslate {
		fields["translate"] = "true"
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("whisper: write %s field: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.serverURL+"/inference", &body)
	if err != nil {
		return nil, fmt.Errorf("whisper: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.httpClient.Do(httpReq)
	if err != nil {
		return nil, unavailable("whisper", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable("whisper", fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, unavailable("whisper", fmt.Errorf("server returned HTTP %d: %s", resp.StatusCode, truncate(string(data), 200)))
	}

	var out whisperResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("whisper: decode response: %w", err)
	}
	if out.Error != "" {
		return nil, unavailable("whisper", errors.New(out.Error))
	}

	t := &Transcript{
		Text:            strings.TrimSpace(out.Text),
		Language:        out.Language,
		DurationSeconds: out.Duration,
	}
	for _, s := range out.Segments {
		t.Segments = append(t.Segments, TranscriptSegment{
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
		})
	}
	if t.Language == "" {
		t.Language = req.Language
	}
	return t, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
