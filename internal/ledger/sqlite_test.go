package ledger

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = s.Close() }()

	set, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected empty ledger, got %v", set.IDs())
	}

	if err := s.Save(context.Background(), NewSet("a", "b")); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Saving an overlapping set must not error or drop earlier entries.
	if err := s.Save(context.Background(), NewSet("b", "c")); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ids := got.IDs()
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestSQLiteStoreDSNPrefix(t *testing.T) {
	s, err := NewSQLiteStore("sqlite://" + filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open with scheme: %v", err)
	}
	_ = s.Close()

	if _, err := NewSQLiteStore(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
