// Package advisor implements the quest help requester: it reads the stored
// provider key, captures the latest screenshot, issues exactly one chat
// completion call, and converts every outcome into a Result the panel can
// display. It defines a provider-agnostic LLM interface with a concrete
// OpenAI implementation and a deterministic mock for testing.
package advisor

import (
	"context"
	"errors"
)

var (
	ErrInvalidConfig     = errors.New("invalid LLM configuration")
	ErrTransport         = errors.New("provider request failed")
	ErrProvider          = errors.New("provider returned an error")
	ErrMalformedResponse = errors.New("provider response missing generated text")
)

// LLM defines the interface for interacting with language models.
// Implementations must be stateless and thread-safe.
type LLM interface {
	// Generate produces guidance text from a prompt and an optional
	// base64-encoded JPEG screenshot. Returns the generated text or an
	// error if generation fails.
	Generate(ctx context.Context, prompt string, screenshotB64 string) (string, error)
}

// LLMConfig holds configuration for an LLM provider.
type LLMConfig struct {
	// Model specifies the model identifier (e.g., "gpt-4o")
	Model string

	// Temperature controls randomness (0 = provider default)
	Temperature float64

	// MaxTokens limits the response length (0 = provider default)
	MaxTokens int

	// APIKey is the authentication key for the provider
	APIKey string
}

// LLMFactory builds an LLM from a config. The requester invokes it once per
// request so a freshly saved key takes effect without a restart.
type LLMFactory func(config LLMConfig) (LLM, error)
