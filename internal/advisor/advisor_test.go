package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type fakeKeys struct {
	key string
}

func (f *fakeKeys) Get() string { return f.key }

type fakeShots struct {
	data string
	err  error
}

func (f *fakeShots) Latest() (string, error) { return f.data, f.err }

func newTestRequester(keys KeyStore, shots ScreenshotSource, llm LLM) *Requester {
	factory := func(config LLMConfig) (LLM, error) { return llm, nil }
	config := LLMConfig{Model: "test-model"}
	return NewRequesterWithFactory(keys, shots, config, time.Minute, factory)
}

func TestRequestHelp_MissingKey(t *testing.T) {
	mock := NewMockLLM("unused")
	r := newTestRequester(&fakeKeys{key: ""}, &fakeShots{data: "img"}, mock)

	result := r.RequestHelp(context.Background())

	if result.Success {
		t.Fatal("expected failure for missing key")
	}
	if result.Error != MissingKeyMessage {
		t.Errorf("unexpected error message: %q", result.Error)
	}
	if mock.Calls != 0 {
		t.Errorf("expected zero provider calls, got %d", mock.Calls)
	}
}

func TestRequestHelp_Success(t *testing.T) {
	mock := NewMockLLM("Go talk to the blacksmith")
	r := newTestRequester(&fakeKeys{key: "sk-test-123"}, &fakeShots{data: "img-b64"}, mock)

	result := r.RequestHelp(context.Background())

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.HelpText != "Go talk to the blacksmith" {
		t.Errorf("unexpected help text: %q", result.HelpText)
	}
	if result.Error != "" {
		t.Errorf("error should be empty on success, got %q", result.Error)
	}
	if mock.Calls != 1 {
		t.Errorf("expected exactly one provider call, got %d", mock.Calls)
	}
	if mock.LastScreenshot != "img-b64" {
		t.Errorf("screenshot not forwarded to provider: %q", mock.LastScreenshot)
	}
	if !strings.Contains(mock.LastPrompt, "step-by-step guidance") {
		t.Errorf("prompt does not carry the quest guidance instructions: %q", mock.LastPrompt)
	}
}

func TestRequestHelp_ProviderError(t *testing.T) {
	providerErr := fmt.Errorf("%w: status 401: invalid api key", ErrProvider)
	mock := NewMockLLMWithError(providerErr)
	r := newTestRequester(&fakeKeys{key: "sk-bad"}, &fakeShots{data: "img"}, mock)

	result := r.RequestHelp(context.Background())

	if result.Success {
		t.Fatal("expected failure for provider error")
	}
	if result.Error == "" {
		t.Error("expected non-empty error message")
	}
	if !strings.Contains(result.Error, "401") {
		t.Errorf("error message should carry the provider failure: %q", result.Error)
	}
}

func TestRequestHelp_MalformedResponse(t *testing.T) {
	mock := NewMockLLMWithError(fmt.Errorf("%w: no choices", ErrMalformedResponse))
	r := newTestRequester(&fakeKeys{key: "sk-test"}, &fakeShots{data: "img"}, mock)

	result := r.RequestHelp(context.Background())

	if result.Success {
		t.Fatal("expected failure for malformed response")
	}
	if result.Error == "" {
		t.Error("expected non-empty error message")
	}
}

func TestRequestHelp_NoScreenshot(t *testing.T) {
	mock := NewMockLLM("unused")
	shots := &fakeShots{err: errors.New("no screenshot found")}
	r := newTestRequester(&fakeKeys{key: "sk-test"}, shots, mock)

	result := r.RequestHelp(context.Background())

	if result.Success {
		t.Fatal("expected failure when no screenshot is available")
	}
	if result.Error != NoScreenshotMessage {
		t.Errorf("unexpected error message: %q", result.Error)
	}
	if mock.Calls != 0 {
		t.Errorf("expected zero provider calls, got %d", mock.Calls)
	}
}

func TestRequestHelp_FactoryError(t *testing.T) {
	factory := func(config LLMConfig) (LLM, error) {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}
	r := NewRequesterWithFactory(&fakeKeys{key: "sk"}, &fakeShots{data: "img"}, LLMConfig{}, time.Minute, factory)

	result := r.RequestHelp(context.Background())

	if result.Success {
		t.Fatal("expected failure when LLM construction fails")
	}
	if result.Error == "" {
		t.Error("expected non-empty error message")
	}
}

func TestRequestHelp_KeyReadPerRequest(t *testing.T) {
	keys := &fakeKeys{key: ""}
	var seenKey string
	factory := func(config LLMConfig) (LLM, error) {
		seenKey = config.APIKey
		return NewMockLLM("ok"), nil
	}
	r := NewRequesterWithFactory(keys, &fakeShots{data: "img"}, LLMConfig{Model: "m"}, time.Minute, factory)

	if result := r.RequestHelp(context.Background()); result.Success {
		t.Fatal("expected failure before key is stored")
	}

	keys.key = "sk-late"
	if result := r.RequestHelp(context.Background()); !result.Success {
		t.Fatalf("expected success after key is stored, got %q", result.Error)
	}
	if seenKey != "sk-late" {
		t.Errorf("expected freshly stored key to reach the provider, got %q", seenKey)
	}
}
