// Package llm provides the model invocation capability used by the
// classifier: given a model identifier and a prompt, return generated text
// plus a token-usage-derived monetary cost.
package llm

import (
	"context"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Provider constants for invoker selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds invoker configuration for one provider endpoint.
type Config struct {
	Provider  string // "openai" or "anthropic"
	APIKey    string // Required: API key for the provider
	BaseURL   string // Optional: custom API endpoint
	MaxTokens int    // Optional: completion token cap, defaults per provider
}

// Invocation is the result of a single model call.
type Invocation struct {
	Text             string
	PromptTokens     int
	CompletionTokens int

	// Cost is the dollar cost of this call, derived from token usage and the
	// pricing table. Zero for models without a known price.
	Cost float64
}

// Invoker is the model invocation capability. Implementations may fail with
// timeouts, network errors, or provider errors; callers are expected to
// degrade rather than propagate.
type Invoker interface {
	Invoke(ctx context.Context, model, prompt string) (*Invocation, error)
}

// NewInvoker creates an Invoker for the configured provider. Defaults to
// OpenAI if no provider is specified.
func NewInvoker(cfg Config) (Invoker, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	switch provider {
	case ProviderOpenAI:
		return newOpenAIInvoker(cfg)
	case ProviderAnthropic:
		return newAnthropicInvoker(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// GenerateSchema produces a JSON schema for T, suitable for embedding in a
// prompt as an output contract.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(&v)
}
