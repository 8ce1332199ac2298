package history

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "history.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_FreshStoreIsEmpty(t *testing.T) {
	store := openTestStore(t)

	records, err := store.Recent(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty history, got %d records", len(records))
	}
}

func TestStore_AppendAndRecent(t *testing.T) {
	store := openTestStore(t)

	rec := Record{
		Model:   "gpt-4o",
		Success: true,
		Excerpt: "Go talk to the blacksmith",
	}
	if err := store.Append(rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := store.Recent(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	got := records[0]
	if got.ID == "" {
		t.Error("expected a generated ID")
	}
	if got.AskedAt.IsZero() {
		t.Error("expected a generated timestamp")
	}
	if !got.Success || got.Excerpt != "Go talk to the blacksmith" || got.Model != "gpt-4o" {
		t.Errorf("record did not round-trip: %+v", got)
	}
}

func TestStore_RecentOrdersNewestFirst(t *testing.T) {
	store := openTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		rec := Record{
			AskedAt: base.Add(time.Duration(i) * time.Minute),
			Model:   "gpt-4o",
			Success: true,
			Excerpt: []string{"first", "second", "third"}[i],
		}
		if err := store.Append(rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	records, err := store.Recent(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Excerpt != "third" || records[1].Excerpt != "second" {
		t.Errorf("unexpected order: %q then %q", records[0].Excerpt, records[1].Excerpt)
	}
}

func TestStore_AppendTruncatesOnRuneBoundary(t *testing.T) {
	store := openTestStore(t)

	// Two-byte runes sized so the byte limit falls mid-rune.
	long := strings.Repeat("é", excerptLimit)
	if err := store.Append(Record{Model: "m", Excerpt: long}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := store.Recent(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := records[0].Excerpt
	if len(got) > excerptLimit {
		t.Errorf("excerpt not truncated: %d bytes", len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("truncated excerpt is not valid UTF-8")
	}
}

func TestStore_AppendTruncatesExcerpt(t *testing.T) {
	store := openTestStore(t)

	long := strings.Repeat("a", 5000)
	if err := store.Append(Record{Model: "m", Excerpt: long}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := store.Recent(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records[0].Excerpt) > excerptLimit {
		t.Errorf("excerpt not truncated: %d bytes", len(records[0].Excerpt))
	}
}
