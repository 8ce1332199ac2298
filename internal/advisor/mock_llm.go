package advisor

import (
	"context"
)

// MockLLM is a deterministic LLM implementation for testing.
type MockLLM struct {
	// Response is the fixed text returned by Generate.
	Response string

	// Error, if set, is returned by Generate instead of a response.
	Error error

	// Calls counts how many times Generate was invoked.
	Calls int

	// LastPrompt stores the most recent prompt passed to Generate.
	LastPrompt string

	// LastScreenshot stores the most recent screenshot passed to Generate.
	LastScreenshot string
}

// NewMockLLM creates a mock LLM with the given fixed response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a mock LLM that always returns an error.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Error: err}
}

// Generate returns the configured response or error.
func (m *MockLLM) Generate(ctx context.Context, prompt string, screenshotB64 string) (string, error) {
	m.Calls++
	m.LastPrompt = prompt
	m.LastScreenshot = screenshotB64

	if m.Error != nil {
		return "", m.Error
	}
	return m.Response, nil
}
