package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// OpenAIEngine generates text through any OpenAI-compatible chat completions API
// (OpenAI, Groq, vLLM, LM Studio ...).
type OpenAIEngine struct {
	client oai.Client
	model  string
}

// NewOpenAIEngine creates an engine. baseURL may be empty for api.openai.com.
func NewOpenAIEngine(apiKey, baseURL, model string, timeout time.Duration) (*OpenAIEngine, error) {
	if model == "" {
		return nil, errors.New("openai: model must not be empty")
	}
	opts := []option.RequestOption{
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIEngine{
		client: oai.NewClient(opts...),
		model:  model,
	}, nil
}

// Model returns the configured model identifier
func (o *OpenAIEngine) Model() string {
	return o.model
}

// Generate implements GenerationEngine
func (o *OpenAIEngine) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	messages := make([]oai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, oai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, oai.UserMessage(req.Prompt))

	params := oai.ChatCompletionNewParams{
		Model:       shared.ChatModel(o.model),
		Messages:    messages,
		Temperature: param.NewOpt(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *oai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, modelMissing("openai", err)
		}
		return nil, unavailable("openai", err)
	}
	if len(resp.Choices) == 0 {
		return nil, unavailable("openai", fmt.Errorf("no choices returned for model %s", o.model))
	}

	model := resp.Model
	if model == "" {
		model = o.model
	}
	return &GenerateResponse{
		Text:             resp.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}
