package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// DefaultOllamaURL is the address of a local Ollama daemon
const DefaultOllamaURL = "http://localhost:11434"

// OllamaEngine generates text with a local Ollama model
type OllamaEngine struct {
	client *api.Client
	model  string
	topP   float64
	logger *zap.Logger
}

// NewOllamaEngine creates an engine for model served at baseURL
func NewOllamaEngine(baseURL, model string, timeout time.Duration, logger *zap.Logger) (*OllamaEngine, error) {
	if model == "" {
		return nil, errors.New("ollama: model must not be empty")
	}
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid base URL: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OllamaEngine{
		client: api.NewClient(u, &http.Client{Timeout: timeout}),
		model:  model,
		topP:   0.9,
		logger: logger,
	}, nil
}

// Model returns the configured model identifier
func (o *OllamaEngine) Model() string {
	return o.model
}

// WaitReady polls the daemon until it answers or maxWait elapses
func (o *OllamaEngine) WaitReady(ctx context.Context, maxWait time.Duration) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = maxWait

	if err := backoff.Retry(func() error {
		return o.client.Heartbeat(ctx)
	}, backoff.WithContext(bo, ctx)); err != nil {
		return unavailable("ollama", err)
	}
	return nil
}

// EnsureModel checks that the model is installed and pulls it when it is not
func (o *OllamaEngine) EnsureModel(ctx context.Context) error {
	list, err := o.client.List(ctx)
	if err != nil {
		return unavailable("ollama", err)
	}
	for _, m := range list.Models {
		if m.Name == o.model || m.Model == o.model {
			o.logger.Info("ollama model available", zap.String("model", o.model))
			return nil
		}
	}

	o.logger.Warn("ollama model not installed, pulling",
		zap.String("model", o.model),
		zap.Int("installed", len(list.Models)),
	)
	return o.pull(ctx)
}

func (o *OllamaEngine) pull(ctx context.Context) error {
	var lastStatus string
	err := o.client.Pull(ctx, &api.PullRequest{Model: o.model}, func(p api.ProgressResponse) error {
		if p.Status != lastStatus {
			lastStatus = p.Status
			o.logger.Debug("ollama pull progress",
				zap.String("model", o.model),
				zap.String("status", p.Status),
			)
		}
		return nil
	})
	if err != nil {
		if isOllamaNotFound(err) {
			return modelMissing("ollama", fmt.Errorf("pull %s: %w", o.model, err))
		}
		return unavailable("ollama", fmt.Errorf("pull %s: %w", o.model, err))
	}
	return nil
}

// Generate implements GenerationEngine. A missing model is pulled once and
// the call is repeated.
func (o *OllamaEngine) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	resp, err := o.chat(ctx, req)
	if err == nil {
		return resp, nil
	}
	if !errors.Is(err, ErrModelMissing) {
		return nil, err
	}

	o.logger.Warn("ollama reported missing model, attempting pull", zap.String("model", o.model))
	if pullErr := o.pull(ctx); pullErr != nil {
		return nil, pullErr
	}
	return o.chat(ctx, req)
}

func (o *OllamaEngine) chat(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	messages := make([]api.Message, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, api.Message{Role: "user", Content: req.Prompt})

	options := map[string]interface{}{
		"temperature": req.Temperature,
		"top_p":       o.topP,
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}

	var (
		sb    strings.Builder
		final api.ChatResponse
	)
	err := o.client.Chat(ctx, chatReq, func(r api.ChatResponse) error {
		sb.WriteString(r.Message.Content)
		if r.Done {
			final = r
		}
		return nil
	})
	if err != nil {
		if isOllamaNotFound(err) {
			return nil, modelMissing("ollama", err)
		}
		return nil, unavailable("ollama", err)
	}

	model := final.Model
	if model == "" {
		model = o.model
	}
	return &GenerateResponse{
		Text:             sb.String(),
		Model:            model,
		PromptTokens:     final.PromptEvalCount,
		CompletionTokens: final.EvalCount,
	}, nil
}

func isOllamaNotFound(err error) bool {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return true
	}
	var statusPtr *api.StatusError
	if errors.As(err, &statusPtr) && statusPtr != nil && statusPtr.StatusCode == http.StatusNotFound {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "model") && strings.Contains(msg, "not found")
}
