package ai

import (
	"context"
	"fmt"
)

// Role constants for conversation messages
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation turn in provider wire format
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// InferenceRequest is a provider-agnostic completion request
type InferenceRequest struct {
	Model       string
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Usage reports token consumption for a completion
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// InferenceResult is the outcome of a successful completion
type InferenceResult struct {
	Text  string
	Model string
	Usage Usage
}

// Provider is a chat completion backend. Implementations must be safe for
// concurrent use.
type Provider interface {
	// ID returns the provider identifier, matching the key used in models.yaml
	ID() string
	// Configured reports whether the provider has usable credentials
	Configured() bool
	// Complete sends a request and returns the full reply
	Complete(ctx context.Context, req *InferenceRequest) (*InferenceResult, error)
}

// ProviderError wraps a failure from a specific provider
type ProviderError struct {
	Provider   string
	Message    string
	HTTPStatus int
	Retryable  bool
	Err        error
}

func (e *ProviderError) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.HTTPStatus)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// newProviderError builds a ProviderError from an adapter failure
func newProviderError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Message:   err.Error(),
		Retryable: true,
		Err:       err,
	}
}

// Personality holds trait values on a 0-100 scale
type Personality struct {
	Energy          int `json:"energy"`
	Friendliness    int `json:"friendliness"`
	Humor           int `json:"humor"`
	Professionalism int `json:"professionalism"`
	Creativity      int `json:"creativity"`
	Empathy         int `json:"empathy"`
}

// DialogueExample is a sample exchange used to seed the character's voice
type DialogueExample struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Character describes the persona a reply is generated for
type Character struct {
	ID                string
	Name              string
	Description       string
	Personality       *Personality
	PersonalityPreset string
	CurrentMood       string
	StoryWorld        string
	Background        string
	HasMission        bool
	CurrentMission    string
	UseRealTime       bool
	TimeSetting       string
	Examples          []DialogueExample
}

// Turn is one persisted conversation message, sender "user" or "ai"
type Turn struct {
	Sender  string
	Content string
}

// TemperatureFor derives the sampling temperature from the character's
// personality. More creative and energetic characters run hotter, capped
// at 1.0.
func TemperatureFor(c *Character) float64 {
	if c == nil || c.Personality == nil {
		return 0.7
	}
	creativity := float64(c.Personality.Creativity) / 100
	energy := float64(c.Personality.Energy) / 100
	t := 0.7 + creativity*0.2 + energy*0.1
	if t > 1.0 {
		t = 1.0
	}
	return t
}
