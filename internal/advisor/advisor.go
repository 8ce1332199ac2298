package advisor

import (
	"context"
	"fmt"
	"time"
)

// User-facing failure messages. Every failure is terminal for the action
// that triggered it; the user may immediately retry.
const (
	MissingKeyMessage   = "API key not configured. Please set your API key first."
	NoScreenshotMessage = "No screenshot available. Please take a screenshot first."
)

// Result is the outcome of one quest help request. Exactly one of HelpText
// and Error carries meaning, selected by Success. It is never persisted in
// full; the history store keeps only an excerpt.
type Result struct {
	Success  bool   `json:"success"`
	HelpText string `json:"help_text,omitempty"`
	Error    string `json:"error,omitempty"`
}

// KeyStore provides the stored provider API key, empty when absent.
type KeyStore interface {
	Get() string
}

// ScreenshotSource provides the latest screenshot as base64 JPEG.
type ScreenshotSource interface {
	Latest() (string, error)
}

// Requester issues single-shot quest help requests. It holds no per-request
// state; every call reads the key store fresh so key changes apply
// immediately.
type Requester struct {
	keys    KeyStore
	shots   ScreenshotSource
	newLLM  LLMFactory
	config  LLMConfig
	timeout time.Duration
}

// NewRequester creates a requester backed by the OpenAI implementation.
// The config's APIKey field is ignored; the key is read from keys on every
// request. timeout bounds each provider call.
func NewRequester(keys KeyStore, shots ScreenshotSource, config LLMConfig, timeout time.Duration) *Requester {
	return &Requester{
		keys:    keys,
		shots:   shots,
		newLLM:  NewOpenAILLM,
		config:  config,
		timeout: timeout,
	}
}

// NewRequesterWithFactory creates a requester with a custom LLM factory.
// Used by tests to substitute a mock without touching the network.
func NewRequesterWithFactory(keys KeyStore, shots ScreenshotSource, config LLMConfig, timeout time.Duration, factory LLMFactory) *Requester {
	r := NewRequester(keys, shots, config, timeout)
	r.newLLM = factory
	return r
}

// RequestHelp performs one quest help request and returns its outcome.
// It never returns an error: every failure mode is folded into the Result
// so the caller has a single rendering path. No network call is made when
// no key is stored.
func (r *Requester) RequestHelp(ctx context.Context) Result {
	key := r.keys.Get()
	if key == "" {
		return failure(MissingKeyMessage)
	}

	screenshot, err := r.shots.Latest()
	if err != nil {
		return failure(NoScreenshotMessage)
	}

	config := r.config
	config.APIKey = key
	llm, err := r.newLLM(config)
	if err != nil {
		return failure(fmt.Sprintf("Failed to get help from AI: %v", err))
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	text, err := llm.Generate(ctx, AssemblePrompt(), screenshot)
	if err != nil {
		return failure(fmt.Sprintf("Failed to get help from AI: %v", err))
	}

	return Result{Success: true, HelpText: text}
}

// Model reports the configured model identifier.
func (r *Requester) Model() string {
	return r.config.Model
}

func failure(message string) Result {
	return Result{Success: false, Error: message}
}
