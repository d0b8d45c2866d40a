package config

import (
	"os"
	"strings"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"
)

// LoadFromBytes loads configuration from YAML bytes with environment variable expansion
func LoadFromBytes(data []byte) (Config, error) {
	var c Config
	expanded := os.ExpandEnv(string(data))
	if err := conf.LoadFromYamlBytes([]byte(expanded), &c); err != nil {
		return c, err
	}
	return c, nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return LoadFromBytes(data)
}

// parseBool parses a string as boolean with a default value.
// Accepts: "true", "1", "yes" as true; empty or other values return default.
func parseBool(s string, defaultVal bool) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return defaultVal
	}
	return s == "true" || s == "1" || s == "yes"
}

type Config struct {
	rest.RestConf
	App struct {
		BaseURL        string `json:",optional"`
		ProductionMode string `json:",default=false"`
	}
	Database struct {
		SQLitePath string `json:",default=./data/soulchat.db"`
	}
	Providers struct {
		ModelsPath       string `json:",default=./etc/models.yaml"`
		OpenAIAPIKey     string `json:",optional"`
		GroqAPIKey       string `json:",optional"`
		AnthropicAPIKey  string `json:",optional"`
		GeminiAPIKey     string `json:",optional"`
		OllamaHost       string `json:",optional"`
		RequestTimeout   int    `json:",default=30"`
		FallbackEnabled  string `json:",default=true"`
		FallbackOrder    string `json:",optional"`
		DefaultMaxTokens int    `json:",default=1024"`
	}
	Breaker struct {
		ErrorThresholdPct int `json:",default=50"`
		VolumeThreshold   int `json:",default=10"`
		ResetTimeout      int `json:",default=60"`
		RollingWindow     int `json:",default=10"`
		RollingBuckets    int `json:",default=10"`
		HalfOpenCapacity  int `json:",default=2"`
	}
	Proactive struct {
		Enabled             string `json:",default=true"`
		IntervalMinutes     int    `json:",default=15"`
		InactivityThreshold int    `json:",default=30"`
		MaxMessagesPerDay   int    `json:",default=5"`
	}
	WebSocket struct {
		ReadLimit       int64 `json:",default=65536"`
		SendBufferSize  int   `json:",default=256"`
		AllowAllOrigins string `json:",default=false"`
	}
}

func (c Config) IsProductionMode() bool {
	return parseBool(c.App.ProductionMode, false)
}

func (c Config) IsFallbackEnabled() bool {
	return parseBool(c.Providers.FallbackEnabled, true)
}

func (c Config) IsProactiveEnabled() bool {
	return parseBool(c.Proactive.Enabled, true)
}

func (c Config) AllowAllWSOrigins() bool {
	return parseBool(c.WebSocket.AllowAllOrigins, false)
}

// FallbackProviders returns the configured fallback order as a slice,
// split on commas with whitespace trimmed.
func (c Config) FallbackProviders() []string {
	if strings.TrimSpace(c.Providers.FallbackOrder) == "" {
		return nil
	}
	parts := strings.Split(c.Providers.FallbackOrder, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
