package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/soulchat/soulchat/internal/logging"
)

// ModelInfo describes a chat model offered by a provider
type ModelInfo struct {
	ID            string   `json:"id" yaml:"id"`
	DisplayName   string   `json:"displayName" yaml:"displayName"`
	ContextWindow int      `json:"contextWindow" yaml:"contextWindow"`
	Capabilities  []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Active        *bool    `json:"active,omitempty" yaml:"active,omitempty"` // nil = true (default active)
}

// IsActive returns whether the model is active (defaults to true)
func (m *ModelInfo) IsActive() bool {
	if m.Active == nil {
		return true
	}
	return *m.Active
}

// Credentials holds API credentials for a provider
type Credentials struct {
	APIKey  string `json:"apiKey,omitempty" yaml:"api_key,omitempty"`
	BaseURL string `json:"baseUrl,omitempty" yaml:"base_url,omitempty"` // for Ollama or custom endpoints
}

// Defaults defines the primary model and fallback chain
type Defaults struct {
	Primary   string   `yaml:"primary" json:"primary"`
	Fallbacks []string `yaml:"fallbacks,omitempty" json:"fallbacks,omitempty"`
}

// Catalog is the YAML structure describing providers, credentials and models
type Catalog struct {
	Version     string                 `yaml:"version"`
	UpdatedAt   string                 `yaml:"updatedAt"`
	Credentials map[string]Credentials `yaml:"credentials,omitempty"`
	Defaults    *Defaults              `yaml:"defaults,omitempty"`
	Providers   map[string][]ModelInfo `yaml:"providers"`
}

// Store loads the model catalog from a YAML file and keeps it fresh by
// watching the file for writes.
type Store struct {
	mu      sync.RWMutex
	path    string
	catalog *Catalog

	watcher *fsnotify.Watcher

	cbMu      sync.RWMutex
	callbacks []func(*Catalog)
}

// NewStore creates a store backed by the given YAML file and performs the
// initial load. A missing or unparseable file yields an empty catalog.
func NewStore(path string) *Store {
	s := &Store{path: path}
	s.catalog = s.loadFromYAML()
	return s
}

// Catalog returns the current catalog snapshot
func (s *Store) Catalog() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Reload re-reads the YAML file and notifies registered callbacks
func (s *Store) Reload() {
	s.mu.Lock()
	s.catalog = s.loadFromYAML()
	c := s.catalog
	s.mu.Unlock()

	s.cbMu.RLock()
	callbacks := make([]func(*Catalog), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.cbMu.RUnlock()

	for _, cb := range callbacks {
		cb(c)
	}
}

// OnReload registers a callback invoked after each reload
func (s *Store) OnReload(cb func(*Catalog)) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

// Watch starts watching the catalog's directory for changes. Editors often
// replace the file rather than writing in place, so the parent directory is
// watched and events are filtered by name.
func (s *Store) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	s.watcher = watcher

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	base := filepath.Base(s.path)
	go func() {
		var debounceTimer *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					// Debounce: editors may write multiple times
					if debounceTimer != nil {
						debounceTimer.Stop()
					}
					debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
						logging.Infof("[models] %s changed, reloading", base)
						s.Reload()
					})
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Errorf("[models] watcher error: %v", err)
			}
		}
	}()

	logging.Infof("[models] watching %s for changes", dir)
	return nil
}

// Close stops the file watcher
func (s *Store) Close() {
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
}

func (s *Store) loadFromYAML() *Catalog {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return emptyCatalog()
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		logging.Errorf("[models] failed to parse %s: %v", s.path, err)
		return emptyCatalog()
	}
	if c.Providers == nil {
		c.Providers = make(map[string][]ModelInfo)
	}
	return &c
}

func emptyCatalog() *Catalog {
	return &Catalog{
		Version:   "1.0",
		UpdatedAt: time.Now().Format(time.RFC3339),
		Providers: make(map[string][]ModelInfo),
	}
}

// Save writes the catalog back to YAML
func (s *Store) Save(c *Catalog) error {
	c.UpdatedAt = time.Now().Format(time.RFC3339)

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.catalog = c
	s.mu.Unlock()
	return os.WriteFile(s.path, data, 0644)
}

// ProviderModels returns the models for a provider
func (s *Store) ProviderModels(provider string) []ModelInfo {
	return s.Catalog().Providers[provider]
}

// GetCredentials returns credentials for a provider, or nil if none configured
func (s *Store) GetCredentials(provider string) *Credentials {
	c := s.Catalog()
	if c.Credentials == nil {
		return nil
	}
	creds, ok := c.Credentials[provider]
	if !ok {
		return nil
	}
	return &creds
}

// DefaultModel returns the default model for a provider. It first consults
// defaults.primary ("provider/model"), then falls back to the first active
// model in the provider's list. Empty string means nothing is configured.
func (s *Store) DefaultModel(provider string) string {
	c := s.Catalog()

	if c.Defaults != nil && c.Defaults.Primary != "" {
		parts := splitModelID(c.Defaults.Primary)
		if len(parts) == 2 && parts[0] == provider {
			return parts[1]
		}
	}

	for _, m := range c.Providers[provider] {
		if m.IsActive() {
			return m.ID
		}
	}
	return ""
}

// FallbackChain returns the configured fallback chain as provider IDs.
// Entries are "provider/model" or bare provider names.
func (s *Store) FallbackChain() []string {
	c := s.Catalog()
	if c.Defaults == nil {
		return nil
	}
	out := make([]string, 0, len(c.Defaults.Fallbacks))
	for _, f := range c.Defaults.Fallbacks {
		parts := splitModelID(f)
		out = append(out, parts[0])
	}
	return out
}

// splitModelID splits "provider/model" into parts
func splitModelID(modelID string) []string {
	for i := 0; i < len(modelID); i++ {
		if modelID[i] == '/' {
			return []string{modelID[:i], modelID[i+1:]}
		}
	}
	return []string{modelID}
}
