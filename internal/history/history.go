// Package history keeps a log of completed quest help requests in a local
// SQLite database. The log is display-only: it is never consulted before
// issuing a request, so it is not a response cache.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

var (
	ErrDatabaseError = errors.New("history database error")
)

// excerptLimit bounds how much of a response is kept per record.
const excerptLimit = 200

const schema = `
CREATE TABLE IF NOT EXISTS requests (
	id       TEXT PRIMARY KEY,
	asked_at INTEGER NOT NULL,
	model    TEXT NOT NULL,
	success  INTEGER NOT NULL,
	excerpt  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requests_asked_at ON requests(asked_at DESC);
`

// Record is one logged help request.
type Record struct {
	ID      string    `json:"id"`
	AskedAt time.Time `json:"asked_at"`
	Model   string    `json:"model"`
	Success bool      `json:"success"`
	// Excerpt is the leading slice of the help text, or the error message
	// for failed requests.
	Excerpt string `json:"excerpt"`
}

// Store persists help request records.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path. The parent directory
// is created when absent; a missing database file is a valid fresh state.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating schema: %w", ErrDatabaseError, err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append logs one completed request. A zero ID gets a generated UUID and a
// zero AskedAt gets the current time.
func (s *Store) Append(rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.AskedAt.IsZero() {
		rec.AskedAt = time.Now()
	}
	rec.Excerpt = truncateExcerpt(rec.Excerpt)

	_, err := s.db.Exec(
		`INSERT INTO requests (id, asked_at, model, success, excerpt) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.AskedAt.Unix(), rec.Model, boolToInt(rec.Success), rec.Excerpt,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, asked_at, model, success, excerpt FROM requests ORDER BY asked_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var askedAt int64
		var success int
		if err := rows.Scan(&rec.ID, &askedAt, &rec.Model, &success, &rec.Excerpt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
		}
		rec.AskedAt = time.Unix(askedAt, 0)
		rec.Success = success != 0
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}
	return records, nil
}

// truncateExcerpt caps the excerpt at excerptLimit bytes without splitting
// a multi-byte rune; generated text is routinely non-ASCII.
func truncateExcerpt(s string) string {
	if len(s) <= excerptLimit {
		return s
	}
	n := excerptLimit
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
