package ai

import "time"

// Groq exposes an OpenAI-compatible chat completions endpoint, so the
// adapter reuses the OpenAI SDK pointed at Groq's base URL.
const groqBaseURL = "https://api.groq.com/openai/v1"

// NewGroqProvider creates a Groq provider
func NewGroqProvider(apiKey, model string, timeout time.Duration) *OpenAIProvider {
	return newOpenAICompatible("groq", apiKey, model, groqBaseURL, timeout)
}
