// Package settings persists the user's provider API key across plugin
// restarts. The store owns a single settings.json file under a directory
// injected at construction time; there is exactly one writer (the local
// user), so writes fully overwrite with last-write-wins semantics.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrPersistFailed = errors.New("failed to persist settings")
)

const settingsFile = "settings.json"

// fileFormat is the on-disk shape of settings.json.
type fileFormat struct {
	APIKey string `json:"api_key"`
}

// Store reads and writes the stored API key.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created lazily on
// the first Set.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the full path of the backing settings file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, settingsFile)
}

// Set persists key as the current API key, overwriting any previous value.
// The key is stored verbatim; no format validation is performed. An error is
// returned only on storage I/O failure.
func (s *Store) Set(key string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	data, err := json.Marshal(fileFormat{APIKey: key})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	// Write to a temp file in the same directory and rename so a crash
	// mid-write never leaves a truncated settings file behind.
	tmp, err := os.CreateTemp(s.dir, settingsFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return nil
}

// Get returns the stored API key, or an empty string when no key has been
// set. Absence is not an error; read or parse failures also degrade to an
// empty string so callers never have to handle a failing read.
func (s *Store) Get() string {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return ""
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return ""
	}
	return f.APIKey
}
