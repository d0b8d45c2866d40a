package ai

import (
	"context"
	"math/rand"
	"time"

	"github.com/soulchat/soulchat/internal/logging"
)

// emergencyResponses are canned in-character apologies used when every
// provider is unavailable
var emergencyResponses = []string{
	"Sorry, I'm running into some technical trouble right now. Please try again in a bit.",
	"I need a moment to collect my thoughts, bear with me.",
	"Things are a little unstable on my end, but I'll be back to chat with you soon.",
	"Let me get myself sorted out, I'll be right back.",
}

// ReplyMetadata records how a reply was produced
type ReplyMetadata struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	LatencyMS    int64  `json:"latencyMs"`
	TokensUsed   int    `json:"tokensUsed"`
	UsedFallback bool   `json:"usedFallback"`
	Emergency    bool   `json:"emergency,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Reply is a generated character response
type Reply struct {
	Text     string        `json:"text"`
	Emotion  string        `json:"emotion"`
	Metadata ReplyMetadata `json:"metadata"`
}

// Orchestrator generates character replies, walking the provider fallback
// chain with circuit breaker protection. It never returns an error to the
// caller: when every provider is down it degrades to a canned reply.
type Orchestrator struct {
	registry        *Registry
	fallbackEnabled bool
	maxTokens       int
	now             func() time.Time
}

// NewOrchestrator creates an orchestrator over the registry
func NewOrchestrator(registry *Registry, fallbackEnabled bool, maxTokens int) *Orchestrator {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Orchestrator{
		registry:        registry,
		fallbackEnabled: fallbackEnabled,
		maxTokens:       maxTokens,
		now:             time.Now,
	}
}

// GenerateReply produces an in-character reply to the user's message
func (o *Orchestrator) GenerateReply(ctx context.Context, character *Character, userMessage string, history []Turn) *Reply {
	system := BuildSystemPrompt(character, o.now())
	messages := BuildMessages(history, userMessage)

	req := &InferenceRequest{
		System:      system,
		Messages:    messages,
		Temperature: TemperatureFor(character),
		MaxTokens:   o.maxTokens,
	}
	return o.generate(ctx, req)
}

// GenerateProactive produces a conversation opener for an idle session.
// The proactive prompt carries all context itself, so it runs as a single
// user turn.
func (o *Orchestrator) GenerateProactive(ctx context.Context, character *Character, recent []Turn) *Reply {
	prompt := BuildProactivePrompt(character, recent, o.now())
	req := &InferenceRequest{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		Temperature: TemperatureFor(character),
		MaxTokens:   o.maxTokens,
	}
	return o.generate(ctx, req)
}

func (o *Orchestrator) generate(ctx context.Context, req *InferenceRequest) *Reply {
	order := o.registry.Order()
	if !o.fallbackEnabled && len(order) > 1 {
		order = order[:1]
	}

	var totalLatency int64
	var lastErr error

	for i, id := range order {
		p, breaker, ok := o.registry.Get(id)
		if !ok || !p.Configured() {
			continue
		}
		if err := breaker.Allow(); err != nil {
			// Open breaker: fail fast, no latency counted
			lastErr = err
			continue
		}

		start := time.Now()
		result, err := p.Complete(ctx, req)
		latency := time.Since(start).Milliseconds()
		totalLatency += latency

		if err != nil {
			breaker.RecordFailure()
			lastErr = err
			logging.Warnf("[orchestrator] %s failed after %dms: %v", id, latency, err)
			continue
		}
		breaker.RecordSuccess()

		emotion := "neutral"
		if a := AnalyzeEmotion(result.Text); a != nil {
			emotion = a.PrimaryEmotion
		}

		return &Reply{
			Text:    result.Text,
			Emotion: emotion,
			Metadata: ReplyMetadata{
				Provider:     id,
				Model:        result.Model,
				LatencyMS:    totalLatency,
				TokensUsed:   result.Usage.TotalTokens,
				UsedFallback: i > 0,
			},
		}
	}

	return o.emergencyReply(totalLatency, lastErr)
}

// emergencyReply is the last line of defense: a canned apologetic message
func (o *Orchestrator) emergencyReply(latencyMS int64, lastErr error) *Reply {
	errMsg := "no provider available"
	if lastErr != nil {
		errMsg = lastErr.Error()
	}
	logging.Errorf("[orchestrator] all providers failed: %s", errMsg)

	return &Reply{
		Text:    emergencyResponses[rand.Intn(len(emergencyResponses))],
		Emotion: "apologetic",
		Metadata: ReplyMetadata{
			Provider:  "emergency",
			Model:     "fallback",
			LatencyMS: latencyMS,
			Emergency: true,
			Error:     errMsg,
		},
	}
}

// AnalyzeText exposes the emotion analyzer for the API surface
func (o *Orchestrator) AnalyzeText(text string) *EmotionAnalysis {
	return AnalyzeEmotion(text)
}

// Status returns provider status for the API surface
func (o *Orchestrator) Status() []ProviderStatus {
	return o.registry.Status()
}

// BreakerSnapshots returns breaker state for the API surface
func (o *Orchestrator) BreakerSnapshots() []BreakerSnapshot {
	return o.registry.Snapshots()
}

// ResetBreaker manually resets a provider's breaker
func (o *Orchestrator) ResetBreaker(provider string) error {
	return o.registry.ResetBreaker(provider)
}
