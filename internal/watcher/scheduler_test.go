package watcher

import (
	"testing"
	"time"
)

func TestNewSchedulerRejectsInvalidSchedule(t *testing.T) {
	w := newTestWatcher(&fakePage{target: testTarget}, newMemStore(), &stubNotifier{}, nil)
	if _, err := NewScheduler(w, "not a cron expr"); err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
}

func TestSchedulerFiresImmediateCycle(t *testing.T) {
	page := &fakePage{target: testTarget, html: listingHTML("111")}
	store := newMemStore()
	n := &stubNotifier{delivered: 1}
	w := newTestWatcher(page, store, n, nil)

	s, err := NewScheduler(w, "*/5 * * * *")
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.Start()
	defer func() { <-s.Stop().Done() }()

	// The startup cycle runs without waiting for the first cron tick.
	deadline := time.Now().Add(2 * time.Second)
	for w.Status().LastResult == "" {
		if time.Now().After(deadline) {
			t.Fatalf("startup cycle never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := w.Status().LastResult; got != "success" {
		t.Fatalf("unexpected result %q", got)
	}
	if len(n.sent()) != 1 {
		t.Fatalf("expected one notification, got %v", n.sent())
	}
}

func TestSchedulerStopWaitsForStartupCycle(t *testing.T) {
	page := &fakePage{target: testTarget, html: listingHTML("111")}
	store := newMemStore()
	gate := make(chan struct{})
	n := &stubNotifier{delivered: 1, gate: gate}
	w := newTestWatcher(page, store, n, nil)

	s, err := NewScheduler(w, "*/5 * * * *")
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.Start()

	// Let the startup cycle reach the ledger and block inside Broadcast.
	deadline := time.Now().Add(2 * time.Second)
	for {
		store.mu.Lock()
		loaded := store.loads
		store.mu.Unlock()
		if loaded == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("startup cycle never reached the ledger")
		}
		time.Sleep(time.Millisecond)
	}

	stopCtx := s.Stop()
	select {
	case <-stopCtx.Done():
		t.Fatalf("stop signalled done while the startup cycle was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	select {
	case <-stopCtx.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("stop never completed after the startup cycle finished")
	}
	if w.Status().LastResult != "success" {
		t.Fatalf("startup cycle cut short: %+v", w.Status())
	}
}
