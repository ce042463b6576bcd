package ai

import (
	"fmt"
	"time"
)

// ProviderConfig selects and configures the analysis provider.
type ProviderConfig struct {
	Provider string // "openai" (default) or "anthropic"
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// NewAnalyzer creates the appropriate Analyzer for the configured provider.
func NewAnalyzer(cfg ProviderConfig) (Analyzer, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIAnalyzer(OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}), nil
	case "anthropic":
		return NewAnthropicAnalyzer(AnthropicConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %q", cfg.Provider)
	}
}
