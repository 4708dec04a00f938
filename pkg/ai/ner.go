package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPNEREngine calls a biomedical tagging sidecar: POST /tag {"text": ...}
// answering {"entities": [{"type": "disease", "text": "..."}]}.
type HTTPNEREngine struct {
	serverURL  string
	httpClient *http.Client
}

// NewHTTPNEREngine creates a tagger bound to serverURL
func NewHTTPNEREngine(serverURL string, timeout time.Duration) (*HTTPNEREngine, error) {
	if serverURL == "" {
		return nil, errors.New("ner: serverURL must not be empty")
	}
	return &HTTPNEREngine{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type nerRequest struct {
	Text string `json:"text"`
}

type nerResponse struct {
	Entities []Tag `json:"entities"`
}

// Tag implements NEREngine. Tag types are lower-cased.
func (n *HTTPNEREngine) Tag(ctx context.Context, text string) ([]Tag, error) {
	b, err := json.Marshal(nerRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("ner: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.serverURL+"/tag", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("ner: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, unavailable("ner", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, unavailable("ner", fmt.Errorf("server returned HTTP %d: %s", resp.StatusCode, string(body)))
	}

	var out nerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, unavailable("ner", fmt.Errorf("decode response: %w", err))
	}
	for i := range out.Entities {
		out.Entities[i].Type = strings.ToLower(strings.TrimSpace(out.Entities[i].Type))
	}
	return out.Entities, nil
}
