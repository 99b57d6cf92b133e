package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"marketwatch/internal/history"
)

func TestSinkWritesEvents(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = s.Close() }()

	events := []history.Event{
		{Type: history.EventNotification, OccurredAt: time.Now(), ListingID: "111", Title: "iPhone", Outcome: "sent"},
		{Type: history.EventCycle, OccurredAt: time.Now(), Outcome: "failed", Detail: "navigate: timeout"},
	}
	for _, e := range events {
		if err := s.Send(context.Background(), e); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM watch_history`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}

	var listingID, outcome string
	err = s.db.QueryRow(
		`SELECT listing_id, outcome FROM watch_history WHERE type = ?`, "notification").
		Scan(&listingID, &outcome)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if listingID != "111" || outcome != "sent" {
		t.Fatalf("unexpected row: %s/%s", listingID, outcome)
	}
}

func TestNewRejectsEmptyDSN(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewAcceptsScheme(t *testing.T) {
	s, err := New("sqlite://" + filepath.Join(t.TempDir(), "h.db"))
	if err != nil {
		t.Fatalf("open with scheme: %v", err)
	}
	_ = s.Close()
}
