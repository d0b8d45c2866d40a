package ai

import (
	"context"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/soulchat/soulchat/internal/logging"
)

// GeminiProvider implements the Google Gemini API using the official SDK
type GeminiProvider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiProvider creates a new Gemini provider.
// Model should come from models.yaml - do NOT hardcode model IDs.
func NewGeminiProvider(apiKey, model string, timeout time.Duration) *GeminiProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	p := &GeminiProvider{
		model:   model,
		timeout: timeout,
	}
	if apiKey == "" {
		return p
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		logging.Errorf("[gemini] client init failed: %v", err)
		return p
	}
	p.client = client
	return p
}

// ID returns the provider identifier
func (p *GeminiProvider) ID() string {
	return "gemini"
}

// Configured reports whether the client initialized and a model is set
func (p *GeminiProvider) Configured() bool {
	return p.client != nil && p.model != ""
}

// Complete sends a non-streaming generate request
func (p *GeminiProvider) Complete(ctx context.Context, req *InferenceRequest) (*InferenceResult, error) {
	if p.client == nil {
		return nil, &ProviderError{Provider: "gemini", Message: "not configured", Retryable: false}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	modelName := p.model
	if req.Model != "" {
		modelName = req.Model
	}

	model := p.client.GenerativeModel(modelName)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	// Gemini takes the last user turn as the message and the rest as history
	history, last := p.splitMessages(req.Messages)
	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, newProviderError("gemini", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &ProviderError{Provider: "gemini", Message: "empty response", Retryable: true}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	var usage Usage
	if resp.UsageMetadata != nil {
		usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return &InferenceResult{
		Text:  sb.String(),
		Model: modelName,
		Usage: usage,
	}, nil
}

func (p *GeminiProvider) splitMessages(msgs []Message) ([]*genai.Content, string) {
	if len(msgs) == 0 {
		return nil, ""
	}
	last := msgs[len(msgs)-1].Content
	history := make([]*genai.Content, 0, len(msgs)-1)
	for _, msg := range msgs[:len(msgs)-1] {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return history, last
}
