package ai

import (
	"context"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIProvider talks to the OpenAI chat completions API using the official
// SDK. It also backs any OpenAI-compatible endpoint via a custom base URL.
type OpenAIProvider struct {
	id      string
	client  openai.Client
	model   string
	timeout time.Duration
	hasKey  bool
}

// NewOpenAIProvider creates an OpenAI provider.
// Model should come from models.yaml - do NOT hardcode model IDs.
func NewOpenAIProvider(apiKey, model string, timeout time.Duration) *OpenAIProvider {
	return newOpenAICompatible("openai", apiKey, model, "", timeout)
}

func newOpenAICompatible(id, apiKey, model, baseURL string, timeout time.Duration) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIProvider{
		id:      id,
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
		hasKey:  apiKey != "",
	}
}

// ID returns the provider identifier
func (p *OpenAIProvider) ID() string {
	return p.id
}

// Configured reports whether an API key and model are set
func (p *OpenAIProvider) Configured() bool {
	return p.hasKey && p.model != ""
}

// Complete sends a non-streaming chat completion request
func (p *OpenAIProvider) Complete(ctx context.Context, req *InferenceRequest) (*InferenceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: p.buildMessages(req),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, newProviderError(p.id, err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: p.id, Message: "empty response", Retryable: true}
	}

	return &InferenceResult{
		Text:  resp.Choices[0].Message.Content,
		Model: model,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func (p *OpenAIProvider) buildMessages(req *InferenceRequest) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		result = append(result, openai.SystemMessage(req.System))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}
