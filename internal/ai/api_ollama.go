package ai

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaProvider runs completions against a local Ollama instance using the
// official SDK. Local inference gets a longer timeout than the hosted APIs.
type OllamaProvider struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(baseURL, model string, timeout time.Duration) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		parsedURL, _ = url.Parse("http://localhost:11434")
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}

	return &OllamaProvider{
		client:  api.NewClient(parsedURL, httpClient),
		model:   model,
		timeout: timeout,
	}
}

// ID returns the provider identifier
// Must match the key used in models.yaml ("ollama")
func (p *OllamaProvider) ID() string {
	return "ollama"
}

// Configured reports whether a model is set. Ollama needs no API key.
func (p *OllamaProvider) Configured() bool {
	return p.model != ""
}

// Complete sends a non-streaming chat request
func (p *OllamaProvider) Complete(ctx context.Context, req *InferenceRequest) (*InferenceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	messages := make([]api.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	for _, msg := range req.Messages {
		messages = append(messages, api.Message{Role: msg.Role, Content: msg.Content})
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		chatReq.Options = make(map[string]any)
		if req.Temperature > 0 {
			chatReq.Options["temperature"] = req.Temperature
		}
		if req.MaxTokens > 0 {
			chatReq.Options["num_predict"] = req.MaxTokens
		}
	}

	var sb strings.Builder
	var usage Usage
	err := p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		if resp.Done {
			usage = Usage{
				PromptTokens:     resp.PromptEvalCount,
				CompletionTokens: resp.EvalCount,
				TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
			}
		}
		return nil
	})
	if err != nil {
		return nil, newProviderError("ollama", err)
	}

	return &InferenceResult{
		Text:  sb.String(),
		Model: model,
		Usage: usage,
	}, nil
}
