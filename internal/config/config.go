// Package config provides configuration loading for questdeck.
//
// Configuration is read from a TOML file with sensible defaults for every
// field; a missing file is not an error. The data directory holds the
// settings store and request history database.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config represents the complete questdeck configuration.
type Config struct {
	// Model is the provider model used for quest help requests.
	Model string `toml:"model"`

	// MaxTokens limits the length of the generated guidance.
	MaxTokens int `toml:"max_tokens"`

	// Temperature controls response randomness (0 = provider default).
	Temperature float64 `toml:"temperature"`

	// RequestTimeoutSecs bounds a single provider call. The provider call
	// is single-shot with no retry, so this is the only knob that decides
	// how long a stuck request can hold the panel.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`

	// DataDir holds settings.json and the request history database.
	DataDir string `toml:"data_dir"`

	// ScreenshotDirs are searched recursively for the newest Steam
	// screenshot when a help request is made.
	ScreenshotDirs []string `toml:"screenshot_dirs"`

	// BridgeAddr is the listen address of the local operation bridge.
	BridgeAddr string `toml:"bridge_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Model:              "gpt-4o",
		MaxTokens:          500,
		Temperature:        0,
		RequestTimeoutSecs: 60,
		DataDir:            filepath.Join(home, ".questdeck"),
		ScreenshotDirs: []string{
			filepath.Join(home, ".steam", "steam", "screenshots"),
			filepath.Join(home, ".local", "share", "Steam", "screenshots"),
		},
		BridgeAddr: "127.0.0.1:9337",
	}
}

// DefaultPath returns the default config file location under the data dir.
func DefaultPath() string {
	return filepath.Join(Default().DataDir, "config.toml")
}

// Load reads the configuration from path. A missing file yields the
// defaults; a present but unparsable file is an error. Loaded values are
// normalized before being returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("%w: reading %s: %w", ErrInvalidConfig, path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parsing %s: %w", ErrInvalidConfig, path, err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize clamps out-of-range values back to usable ones rather than
// failing the whole load over a single bad field.
func (c *Config) normalize() {
	def := Default()
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = def.MaxTokens
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		c.Temperature = def.Temperature
	}
	if c.RequestTimeoutSecs <= 0 {
		c.RequestTimeoutSecs = def.RequestTimeoutSecs
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if len(c.ScreenshotDirs) == 0 {
		c.ScreenshotDirs = def.ScreenshotDirs
	}
	if c.BridgeAddr == "" {
		c.BridgeAddr = def.BridgeAddr
	}
}
