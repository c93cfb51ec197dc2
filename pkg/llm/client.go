package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Provider names accepted in configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// defaultMaxTokens bounds completion output when the config does not.
const defaultMaxTokens = 512

// Config holds configuration for creating a generative backend client.
type Config struct {
	Provider    string // "openai" or "anthropic"
	Endpoint    string // Base URL; required for openai, optional for anthropic
	Model       string // Model name, e.g. "gpt-4o" or "claude-sonnet-4-5"
	APIKey      string // Optional for local OpenAI-compatible endpoints
	MaxTokens   int    // Output bound; defaults to 512
	Temperature float64
}

// NewClient creates a backend client for the configured provider.
func NewClient(cfg *Config, logger *zap.Logger) (Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI, "":
		return newOpenAIClient(cfg, logger)
	case ProviderAnthropic:
		return newAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

func (c *Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return defaultMaxTokens
}
