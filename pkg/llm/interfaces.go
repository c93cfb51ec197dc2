// Package llm provides generative backend clients for SQL synthesis.
// Two providers are supported behind one interface: OpenAI-compatible
// endpoints and Anthropic.
package llm

import "context"

// Client is the generative backend contract consumed by the generation
// service. Use this interface for dependency injection to enable mocking
// in tests.
type Client interface {
	// Complete generates a bounded text completion for the prompt.
	Complete(ctx context.Context, prompt string, systemMessage string) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Ensure implementations satisfy Client at compile time.
var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*AnthropicClient)(nil)
	_ Client = (*MockClient)(nil)
)
