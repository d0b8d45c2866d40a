package ai

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicDefaultMaxTokens = 1024

// AnthropicProvider implements the Anthropic Claude API using the official SDK
type AnthropicProvider struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
	hasKey  bool
}

// NewAnthropicProvider creates a new Anthropic provider.
// Model should come from models.yaml - do NOT hardcode model IDs.
func NewAnthropicProvider(apiKey, model string, timeout time.Duration) *AnthropicProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AnthropicProvider{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: timeout,
		hasKey:  apiKey != "",
	}
}

// ID returns the provider identifier
func (p *AnthropicProvider) ID() string {
	return "anthropic"
}

// Configured reports whether an API key and model are set
func (p *AnthropicProvider) Configured() bool {
	return p.hasKey && p.model != ""
}

// Complete sends a non-streaming messages request
func (p *AnthropicProvider) Complete(ctx context.Context, req *InferenceRequest) (*InferenceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(anthropicDefaultMaxTokens),
		Messages:  p.buildMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = int64(req.MaxTokens)
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, newProviderError("anthropic", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}

	return &InferenceResult{
		Text:  sb.String(),
		Model: model,
		Usage: Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

func (p *AnthropicProvider) buildMessages(msgs []Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		// Empty text blocks are rejected by the API
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			result = append(result, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}
	return result
}
