// Package plugin ties the settings store, quest help requester, and request
// history together behind the three operations the panel invokes by name.
// The plugin has an explicit start/stop lifecycle; all state lives on the
// Plugin value, never at module level.
package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/questdeck/questdeck/internal/advisor"
	"github.com/questdeck/questdeck/internal/config"
	"github.com/questdeck/questdeck/internal/history"
	"github.com/questdeck/questdeck/internal/screenshot"
	"github.com/questdeck/questdeck/internal/settings"
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrNotStarted       = errors.New("plugin not started")
	ErrBadArguments     = errors.New("invalid operation arguments")
)

// Operation names the panel invokes. These are the plugin's public surface;
// renaming one is a breaking change for any UI built against the bridge.
const (
	OpRequestQuestHelp = "request_quest_help"
	OpSetAPIKey        = "set_api_key"
	OpGetAPIKey        = "get_api_key"
	OpRecentRequests   = "recent_requests"
)

// HelpRequester is the subset of the advisor the plugin depends on.
type HelpRequester interface {
	RequestHelp(ctx context.Context) advisor.Result
	Model() string
}

// Handler executes one named operation with raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Plugin is the backend object the host loads. Construct with New, then
// Start before invoking operations; Stop releases held resources.
type Plugin struct {
	cfg       config.Config
	settings  *settings.Store
	requester HelpRequester
	logger    *log.Logger

	history *history.Store
	ops     map[string]Handler
	started bool
}

// New wires a plugin from configuration: settings store and history under
// the data dir, screenshot capture over the configured directories, and the
// OpenAI-backed requester.
func New(cfg config.Config, logger *log.Logger) *Plugin {
	store := settings.NewStore(cfg.DataDir)
	requester := advisor.NewRequester(
		store,
		screenshot.NewCapturer(cfg.ScreenshotDirs),
		advisor.LLMConfig{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
		time.Duration(cfg.RequestTimeoutSecs)*time.Second,
	)
	return newPlugin(cfg, store, requester, logger)
}

func newPlugin(cfg config.Config, store *settings.Store, requester HelpRequester, logger *log.Logger) *Plugin {
	p := &Plugin{
		cfg:       cfg,
		settings:  store,
		requester: requester,
		logger:    logger,
	}
	p.ops = map[string]Handler{
		OpRequestQuestHelp: p.handleRequestHelp,
		OpSetAPIKey:        p.handleSetKey,
		OpGetAPIKey:        p.handleGetKey,
		OpRecentRequests:   p.handleRecent,
	}
	return p
}

// Start opens the history store and logs whether a key is already present.
// Safe to call once per plugin instance.
func (p *Plugin) Start(ctx context.Context) error {
	hist, err := history.Open(filepath.Join(p.cfg.DataDir, "history.db"))
	if err != nil {
		return fmt.Errorf("starting plugin: %w", err)
	}
	p.history = hist
	p.started = true

	if p.settings.Get() != "" {
		p.logger.Println("API key loaded from settings")
	} else {
		p.logger.Println("no API key configured yet")
	}
	return nil
}

// Stop releases the history store. The plugin cannot be restarted after
// Stop; the host constructs a fresh instance on reload.
func (p *Plugin) Stop() error {
	p.started = false
	if p.history == nil {
		return nil
	}
	err := p.history.Close()
	p.history = nil
	return err
}

// Invoke dispatches one named operation. Unknown names fail with
// ErrUnknownOperation; operation outcomes that are user-facing failures
// (missing key, provider errors) are encoded in the result, not the error.
func (p *Plugin) Invoke(ctx context.Context, op string, args json.RawMessage) (any, error) {
	if !p.started {
		return nil, ErrNotStarted
	}
	handler, ok := p.ops[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	return handler(ctx, args)
}

// RequestHelp runs one quest help request and logs its outcome to history.
func (p *Plugin) RequestHelp(ctx context.Context) advisor.Result {
	result := p.requester.RequestHelp(ctx)

	excerpt := result.HelpText
	if !result.Success {
		excerpt = result.Error
	}
	if p.history != nil {
		if err := p.history.Append(history.Record{
			Model:   p.requester.Model(),
			Success: result.Success,
			Excerpt: excerpt,
		}); err != nil {
			p.logger.Printf("failed to record request history: %v", err)
		}
	}

	if result.Success {
		p.logger.Printf("quest help request succeeded (%d chars)", len(result.HelpText))
	} else {
		p.logger.Printf("quest help request failed: %s", result.Error)
	}
	return result
}

// SetKey persists the API key, reporting success as a boolean per the
// operation contract.
func (p *Plugin) SetKey(key string) bool {
	if err := p.settings.Set(key); err != nil {
		p.logger.Printf("failed to save API key: %v", err)
		return false
	}
	p.logger.Println("API key saved successfully")
	return true
}

// Key returns the stored API key, empty when absent.
func (p *Plugin) Key() string {
	return p.settings.Get()
}

// Recent lists the most recent help requests, newest first.
func (p *Plugin) Recent(limit int) ([]history.Record, error) {
	if p.history == nil {
		return nil, ErrNotStarted
	}
	return p.history.Recent(limit)
}

type setKeyArgs struct {
	APIKey string `json:"api_key"`
}

type setKeyReply struct {
	Success bool `json:"success"`
}

type getKeyReply struct {
	APIKey string `json:"api_key"`
}

type recentArgs struct {
	Limit int `json:"limit"`
}

func (p *Plugin) handleRequestHelp(ctx context.Context, _ json.RawMessage) (any, error) {
	return p.RequestHelp(ctx), nil
}

func (p *Plugin) handleSetKey(_ context.Context, args json.RawMessage) (any, error) {
	var in setKeyArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrBadArguments, OpSetAPIKey, err)
	}
	return setKeyReply{Success: p.SetKey(in.APIKey)}, nil
}

func (p *Plugin) handleGetKey(_ context.Context, _ json.RawMessage) (any, error) {
	return getKeyReply{APIKey: p.Key()}, nil
}

func (p *Plugin) handleRecent(_ context.Context, args json.RawMessage) (any, error) {
	var in recentArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("%w for %s: %w", ErrBadArguments, OpRecentRequests, err)
		}
	}
	return p.Recent(in.Limit)
}
