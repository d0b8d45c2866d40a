package ai

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/soulchat/soulchat/internal/config"
	"github.com/soulchat/soulchat/internal/logging"
	"github.com/soulchat/soulchat/internal/provider"
)

// knownProviders is the fixed set of adapters the registry can build
var knownProviders = []string{"openai", "groq", "anthropic", "gemini", "ollama"}

type guardedProvider struct {
	Provider
	breaker *Breaker
}

// Registry holds breaker-wrapped provider adapters keyed by provider ID.
// It is rebuilt when the models.yaml catalog reloads; breakers survive
// rebuilds so outage state is not forgotten on a config touch.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*guardedProvider
	order     []string

	breakerCfg BreakerConfig
}

// NewRegistry creates an empty registry; call Rebuild before use
func NewRegistry(breakerCfg BreakerConfig) *Registry {
	return &Registry{
		providers:  make(map[string]*guardedProvider),
		breakerCfg: breakerCfg,
	}
}

// BuildRegistry creates a registry from the config and catalog, and arranges
// rebuilds on catalog hot-reload.
func BuildRegistry(cfg config.Config, store *provider.Store) *Registry {
	breakerCfg := DefaultBreakerConfig()
	if cfg.Breaker.ErrorThresholdPct > 0 {
		breakerCfg.ErrorThresholdPct = cfg.Breaker.ErrorThresholdPct
	}
	if cfg.Breaker.VolumeThreshold > 0 {
		breakerCfg.VolumeThreshold = cfg.Breaker.VolumeThreshold
	}
	if cfg.Breaker.ResetTimeout > 0 {
		breakerCfg.ResetTimeout = time.Duration(cfg.Breaker.ResetTimeout) * time.Second
	}
	if cfg.Breaker.RollingWindow > 0 {
		breakerCfg.Window = time.Duration(cfg.Breaker.RollingWindow) * time.Second
	}
	if cfg.Breaker.RollingBuckets > 0 {
		breakerCfg.Buckets = cfg.Breaker.RollingBuckets
	}
	if cfg.Breaker.HalfOpenCapacity > 0 {
		breakerCfg.HalfOpenCapacity = cfg.Breaker.HalfOpenCapacity
	}

	r := NewRegistry(breakerCfg)
	r.Rebuild(cfg, store)
	store.OnReload(func(*provider.Catalog) {
		r.Rebuild(cfg, store)
	})
	return r
}

// Rebuild reconstructs all adapters from the config and catalog
func (r *Registry) Rebuild(cfg config.Config, store *provider.Store) {
	timeout := time.Duration(cfg.Providers.RequestTimeout) * time.Second

	next := make(map[string]*guardedProvider, len(knownProviders))
	for _, id := range knownProviders {
		apiKey, baseURL := resolveCredentials(id, cfg, store)
		model := store.DefaultModel(id)

		var p Provider
		switch id {
		case "openai":
			p = NewOpenAIProvider(apiKey, model, timeout)
		case "groq":
			p = NewGroqProvider(apiKey, model, timeout)
		case "anthropic":
			p = NewAnthropicProvider(apiKey, model, timeout)
		case "gemini":
			p = NewGeminiProvider(apiKey, model, timeout)
		case "ollama":
			p = NewOllamaProvider(baseURL, model, 2*timeout)
		}

		r.mu.RLock()
		prev := r.providers[id]
		r.mu.RUnlock()

		breaker := NewBreaker(id, r.breakerCfg)
		if prev != nil {
			breaker = prev.breaker
		}
		next[id] = &guardedProvider{Provider: p, breaker: breaker}
	}

	order := buildOrder(cfg, store)

	r.mu.Lock()
	r.providers = next
	r.order = order
	r.mu.Unlock()

	logging.Infof("[registry] rebuilt, order=%v", order)
}

// buildOrder resolves the attempt order: the catalog's primary first, then
// the fallback chain from config or catalog, deduplicated.
func buildOrder(cfg config.Config, store *provider.Store) []string {
	var order []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}

	if c := store.Catalog(); c.Defaults != nil && c.Defaults.Primary != "" {
		add(strings.SplitN(c.Defaults.Primary, "/", 2)[0])
	}

	fallbacks := cfg.FallbackProviders()
	if len(fallbacks) == 0 {
		fallbacks = store.FallbackChain()
	}
	for _, id := range fallbacks {
		add(id)
	}

	// Nothing configured: try everything in a stable order
	if len(order) == 0 {
		order = append(order, knownProviders...)
	}
	return order
}

func resolveCredentials(id string, cfg config.Config, store *provider.Store) (apiKey, baseURL string) {
	if creds := store.GetCredentials(id); creds != nil {
		apiKey = creds.APIKey
		baseURL = creds.BaseURL
	}
	if apiKey == "" {
		switch id {
		case "openai":
			apiKey = cfg.Providers.OpenAIAPIKey
		case "groq":
			apiKey = cfg.Providers.GroqAPIKey
		case "anthropic":
			apiKey = cfg.Providers.AnthropicAPIKey
		case "gemini":
			apiKey = cfg.Providers.GeminiAPIKey
		}
	}
	if id == "ollama" && baseURL == "" {
		baseURL = cfg.Providers.OllamaHost
	}
	return apiKey, baseURL
}

// Get returns the adapter and its breaker for a provider ID
func (r *Registry) Get(id string) (Provider, *Breaker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gp, ok := r.providers[id]
	if !ok {
		return nil, nil, false
	}
	return gp.Provider, gp.breaker, true
}

// Order returns the provider attempt order, primary first
func (r *Registry) Order() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Snapshots returns breaker snapshots for every registered provider
func (r *Registry) Snapshots() []BreakerSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snaps := make([]BreakerSnapshot, 0, len(r.providers))
	for _, id := range knownProviders {
		if gp, ok := r.providers[id]; ok {
			snaps = append(snaps, gp.breaker.Snapshot())
		}
	}
	return snaps
}

// ResetBreaker manually closes the breaker for a provider
func (r *Registry) ResetBreaker(id string) error {
	r.mu.RLock()
	gp, ok := r.providers[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown provider: %s", id)
	}
	gp.breaker.Reset()
	logging.Infof("[registry] breaker for %s manually reset", id)
	return nil
}

// ProviderStatus describes one provider for the status endpoint
type ProviderStatus struct {
	ID         string `json:"id"`
	Configured bool   `json:"configured"`
	Breaker    string `json:"breaker"`
}

// Status returns the status of every registered provider
func (r *Registry) Status() []ProviderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ProviderStatus, 0, len(r.providers))
	for _, id := range knownProviders {
		gp, ok := r.providers[id]
		if !ok {
			continue
		}
		out = append(out, ProviderStatus{
			ID:         id,
			Configured: gp.Configured(),
			Breaker:    gp.breaker.State().String(),
		})
	}
	return out
}

// Register installs or replaces a single provider. Mainly for tests and
// custom wiring.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := p.ID()
	prev := r.providers[id]
	breaker := NewBreaker(id, r.breakerCfg)
	if prev != nil {
		breaker = prev.breaker
	}
	r.providers[id] = &guardedProvider{Provider: p, breaker: breaker}
	for _, o := range r.order {
		if o == id {
			return
		}
	}
	r.order = append(r.order, id)
}
