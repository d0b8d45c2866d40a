package ai

import (
	"context"
	"errors"
	"testing"
)

// fakeProvider is a scriptable in-memory provider
type fakeProvider struct {
	id         string
	configured bool
	err        error
	text       string
	calls      int
}

func (f *fakeProvider) ID() string       { return f.id }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) Complete(ctx context.Context, req *InferenceRequest) (*InferenceResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &InferenceResult{
		Text:  f.text,
		Model: f.id + "-model",
		Usage: Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func testCharacter() *Character {
	return &Character{
		ID:          "char-1",
		Name:        "Lyra",
		Description: "A wandering bard who collects stories.",
		CurrentMood: "happy",
		Personality: &Personality{
			Energy: 80, Friendliness: 75, Humor: 60,
			Professionalism: 40, Creativity: 90, Empathy: 65,
		},
	}
}

func newTestOrchestrator(providers ...*fakeProvider) (*Orchestrator, *Registry) {
	registry := NewRegistry(testBreakerConfig())
	for _, p := range providers {
		registry.Register(p)
	}
	return NewOrchestrator(registry, true, 1024), registry
}

func TestGenerateReplyPrimarySuccess(t *testing.T) {
	primary := &fakeProvider{id: "openai", configured: true, text: "Hello there, traveler!"}
	fallback := &fakeProvider{id: "anthropic", configured: true, text: "unused"}
	o, _ := newTestOrchestrator(primary, fallback)

	reply := o.GenerateReply(context.Background(), testCharacter(), "hi", nil)

	if reply.Text != "Hello there, traveler!" {
		t.Errorf("text = %q", reply.Text)
	}
	if reply.Metadata.Provider != "openai" {
		t.Errorf("provider = %q, want openai", reply.Metadata.Provider)
	}
	if reply.Metadata.UsedFallback {
		t.Error("expected usedFallback=false for primary success")
	}
	if reply.Metadata.TokensUsed != 15 {
		t.Errorf("tokensUsed = %d, want 15", reply.Metadata.TokensUsed)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback was called %d times", fallback.calls)
	}
}

func TestGenerateReplyFallsBack(t *testing.T) {
	primary := &fakeProvider{id: "openai", configured: true, err: errors.New("rate limited")}
	fallback := &fakeProvider{id: "anthropic", configured: true, text: "Fallback reply"}
	o, _ := newTestOrchestrator(primary, fallback)

	reply := o.GenerateReply(context.Background(), testCharacter(), "hi", nil)

	if reply.Text != "Fallback reply" {
		t.Errorf("text = %q", reply.Text)
	}
	if reply.Metadata.Provider != "anthropic" {
		t.Errorf("provider = %q, want anthropic", reply.Metadata.Provider)
	}
	if !reply.Metadata.UsedFallback {
		t.Error("expected usedFallback=true")
	}
	if primary.calls != 1 {
		t.Errorf("primary calls = %d, want 1", primary.calls)
	}
}

func TestGenerateReplySkipsUnconfigured(t *testing.T) {
	unconfigured := &fakeProvider{id: "openai", configured: false, text: "nope"}
	configured := &fakeProvider{id: "ollama", configured: true, text: "Local reply"}
	o, _ := newTestOrchestrator(unconfigured, configured)

	reply := o.GenerateReply(context.Background(), testCharacter(), "hi", nil)

	if unconfigured.calls != 0 {
		t.Errorf("unconfigured provider was called %d times", unconfigured.calls)
	}
	if reply.Metadata.Provider != "ollama" {
		t.Errorf("provider = %q, want ollama", reply.Metadata.Provider)
	}
}

func TestGenerateReplyEmergency(t *testing.T) {
	p1 := &fakeProvider{id: "openai", configured: true, err: errors.New("down")}
	p2 := &fakeProvider{id: "anthropic", configured: true, err: errors.New("also down")}
	o, _ := newTestOrchestrator(p1, p2)

	reply := o.GenerateReply(context.Background(), testCharacter(), "hi", nil)

	if !reply.Metadata.Emergency {
		t.Fatal("expected emergency reply")
	}
	if reply.Metadata.Provider != "emergency" {
		t.Errorf("provider = %q, want emergency", reply.Metadata.Provider)
	}
	if reply.Emotion != "apologetic" {
		t.Errorf("emotion = %q, want apologetic", reply.Emotion)
	}
	if reply.Text == "" {
		t.Error("emergency reply must carry a canned message")
	}
	if reply.Metadata.Error == "" {
		t.Error("emergency metadata should carry the last error")
	}
}

func TestGenerateReplyOpenBreakerSkipsProvider(t *testing.T) {
	broken := &fakeProvider{id: "openai", configured: true, err: errors.New("down")}
	healthy := &fakeProvider{id: "anthropic", configured: true, text: "ok"}
	o, registry := newTestOrchestrator(broken, healthy)

	// Drive the primary's breaker open
	_, breaker, _ := registry.Get("openai")
	for i := 0; i < 10; i++ {
		breaker.Allow()
		breaker.RecordFailure()
	}
	if breaker.State() != StateOpen {
		t.Fatalf("breaker state = %s, want OPEN", breaker.State())
	}

	reply := o.GenerateReply(context.Background(), testCharacter(), "hi", nil)

	if broken.calls != 0 {
		t.Errorf("open breaker still allowed %d calls", broken.calls)
	}
	if reply.Metadata.Provider != "anthropic" {
		t.Errorf("provider = %q, want anthropic", reply.Metadata.Provider)
	}
	if !reply.Metadata.UsedFallback {
		t.Error("expected usedFallback=true when primary is short-circuited")
	}
}

func TestGenerateReplyFallbackDisabled(t *testing.T) {
	primary := &fakeProvider{id: "openai", configured: true, err: errors.New("down")}
	fallback := &fakeProvider{id: "anthropic", configured: true, text: "unreachable"}
	registry := NewRegistry(testBreakerConfig())
	registry.Register(primary)
	registry.Register(fallback)
	o := NewOrchestrator(registry, false, 1024)

	reply := o.GenerateReply(context.Background(), testCharacter(), "hi", nil)

	if fallback.calls != 0 {
		t.Errorf("fallback called %d times with fallback disabled", fallback.calls)
	}
	if !reply.Metadata.Emergency {
		t.Error("expected emergency reply with fallback disabled")
	}
}

func TestGenerateProactiveUsesPrompt(t *testing.T) {
	p := &fakeProvider{id: "openai", configured: true, text: "Hey, how was your day?"}
	o, _ := newTestOrchestrator(p)

	reply := o.GenerateProactive(context.Background(), testCharacter(), []Turn{
		{Sender: "user", Content: "tell me about the stars"},
	})

	if reply.Metadata.Emergency {
		t.Fatal("unexpected emergency reply")
	}
	if reply.Text != "Hey, how was your day?" {
		t.Errorf("text = %q", reply.Text)
	}
	if p.calls != 1 {
		t.Errorf("calls = %d, want 1", p.calls)
	}
}

func TestTemperatureForCharacter(t *testing.T) {
	tests := []struct {
		name string
		p    *Personality
		want float64
	}{
		{"nil personality", nil, 0.7},
		{"midline", &Personality{Creativity: 50, Energy: 50}, 0.85},
		{"maxed out caps at 1.0", &Personality{Creativity: 100, Energy: 100}, 1.0},
		{"zeroes", &Personality{}, 0.7},
	}
	for _, tt := range tests {
		c := &Character{Personality: tt.p}
		got := TemperatureFor(c)
		if diff := got - tt.want; diff > 0.0001 || diff < -0.0001 {
			t.Errorf("%s: temperature = %v, want %v", tt.name, got, tt.want)
		}
	}
}
