package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/questdeck/questdeck/internal/advisor"
	"github.com/questdeck/questdeck/internal/config"
	"github.com/questdeck/questdeck/internal/settings"
)

type fakeRequester struct {
	result advisor.Result
	calls  int
}

func (f *fakeRequester) RequestHelp(ctx context.Context) advisor.Result {
	f.calls++
	return f.result
}

func (f *fakeRequester) Model() string { return "test-model" }

func startTestPlugin(t *testing.T, requester HelpRequester) *Plugin {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	logger := log.New(io.Discard, "", 0)
	p := newPlugin(cfg, settings.NewStore(cfg.DataDir), requester, logger)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("failed to start plugin: %v", err)
	}
	t.Cleanup(func() { p.Stop() })
	return p
}

func TestPlugin_Invoke_UnknownOperation(t *testing.T) {
	p := startTestPlugin(t, &fakeRequester{})

	_, err := p.Invoke(context.Background(), "explode", nil)
	if !errors.Is(err, ErrUnknownOperation) {
		t.Errorf("expected ErrUnknownOperation, got %v", err)
	}
}

func TestPlugin_Invoke_BeforeStart(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	p := newPlugin(cfg, settings.NewStore(cfg.DataDir), &fakeRequester{}, log.New(io.Discard, "", 0))

	_, err := p.Invoke(context.Background(), OpGetAPIKey, nil)
	if !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
}

func TestPlugin_SetAndGetKey(t *testing.T) {
	p := startTestPlugin(t, &fakeRequester{})

	reply, err := p.Invoke(context.Background(), OpSetAPIKey, json.RawMessage(`{"api_key":"sk-test-123"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reply.(setKeyReply).Success {
		t.Fatal("expected set_api_key to report success")
	}

	got, err := p.Invoke(context.Background(), OpGetAPIKey, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.(getKeyReply).APIKey != "sk-test-123" {
		t.Errorf("expected sk-test-123, got %q", got.(getKeyReply).APIKey)
	}
}

func TestPlugin_SetKey_BadArguments(t *testing.T) {
	p := startTestPlugin(t, &fakeRequester{})

	_, err := p.Invoke(context.Background(), OpSetAPIKey, json.RawMessage(`{broken`))
	if !errors.Is(err, ErrBadArguments) {
		t.Errorf("expected ErrBadArguments, got %v", err)
	}
}

func TestPlugin_RequestHelp_RecordsHistory(t *testing.T) {
	requester := &fakeRequester{
		result: advisor.Result{Success: true, HelpText: "Go talk to the blacksmith"},
	}
	p := startTestPlugin(t, requester)

	result := p.RequestHelp(context.Background())
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if requester.calls != 1 {
		t.Errorf("expected one requester call, got %d", requester.calls)
	}

	records, err := p.Recent(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one history record, got %d", len(records))
	}
	if !records[0].Success || records[0].Excerpt != "Go talk to the blacksmith" {
		t.Errorf("unexpected history record: %+v", records[0])
	}
	if records[0].Model != "test-model" {
		t.Errorf("expected model test-model, got %s", records[0].Model)
	}
}

func TestPlugin_RequestHelp_FailureRecordsError(t *testing.T) {
	requester := &fakeRequester{
		result: advisor.Result{Success: false, Error: advisor.MissingKeyMessage},
	}
	p := startTestPlugin(t, requester)

	result := p.RequestHelp(context.Background())
	if result.Success {
		t.Fatal("expected failure")
	}

	records, err := p.Recent(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Success {
		t.Fatalf("expected one failed record, got %+v", records)
	}
	if records[0].Excerpt != advisor.MissingKeyMessage {
		t.Errorf("expected the error message as excerpt, got %q", records[0].Excerpt)
	}
}

func TestPlugin_StopReleasesHistory(t *testing.T) {
	p := startTestPlugin(t, &fakeRequester{})

	if err := p.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Recent(5); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted after stop, got %v", err)
	}
}
