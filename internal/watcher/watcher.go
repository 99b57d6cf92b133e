// Package watcher runs the polling cycle: acquire session, discover
// listings, diff against the ledger, notify, persist.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"marketwatch/internal/browser"
	"marketwatch/internal/history"
	"marketwatch/internal/ledger"
	"marketwatch/internal/marketplace"
	"marketwatch/internal/metrics"
)

// ErrAlreadyRunning is returned when a trigger fires while a cycle is in
// flight. It is a skip, not a failure: the trigger is dropped, never queued.
var ErrAlreadyRunning = errors.New("cycle already in progress")

// Notifier fans one message out to every configured destination and reports
// how many deliveries succeeded.
type Notifier interface {
	Broadcast(ctx context.Context, text string) int
}

// Options wires the watcher's collaborators.
type Options struct {
	TargetURL   string
	UserAgent   string
	Credentials marketplace.Credentials
	Discoverer  marketplace.Discoverer
	Sessions    *browser.Manager
	Ledger      ledger.Store
	Notifier    Notifier
	History     history.Sink // optional audit trail; nil disables
}

// Status is a snapshot of the watcher for the status endpoint.
type Status struct {
	Running     bool      `json:"running"`
	LastRun     time.Time `json:"last_run"`
	LastResult  string    `json:"last_result"` // "", "success" or "failed"
	LastError   string    `json:"last_error,omitempty"`
	Discovered  int       `json:"discovered"`
	Notified    int       `json:"notified"`
	LedgerSize  int       `json:"ledger_size"`
	SessionUses int       `json:"session_uses"`
}

// Watcher is the cycle orchestrator. At most one cycle body executes at a
// time; overlapping triggers are dropped via the run guard.
type Watcher struct {
	opts Options

	running atomic.Bool

	mu   sync.Mutex
	last Status
}

func New(opts Options) *Watcher {
	return &Watcher{opts: opts}
}

// Run executes one full polling cycle. When a cycle is already in flight it
// returns ErrAlreadyRunning immediately without touching the browser, the
// ledger or the notifier. Any other error means the cycle failed; the guard
// is released on every exit path.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		slog.Info("cycle already running, skipping trigger")
		metrics.IncCycleSkipped()
		return ErrAlreadyRunning
	}
	defer w.running.Store(false)

	start := time.Now()
	discovered, notified, ledgerSize, err := w.cycle(ctx)
	elapsed := time.Since(start)

	st := Status{
		LastRun:     start,
		Discovered:  discovered,
		Notified:    notified,
		LedgerSize:  ledgerSize,
		SessionUses: w.opts.Sessions.Uses(),
	}
	if err != nil {
		// A failed cycle reports its outcome but keeps the gauges from the
		// last completed cycle instead of the aborted run's zero values.
		w.mu.Lock()
		st.Discovered = w.last.Discovered
		st.Notified = w.last.Notified
		st.LedgerSize = w.last.LedgerSize
		w.mu.Unlock()
		st.LastResult = "failed"
		st.LastError = err.Error()
		slog.Error("cycle failed", "error", err, "elapsed", elapsed)
		metrics.IncCycle("failed")
	} else {
		st.LastResult = "success"
		slog.Info("cycle finished", "discovered", discovered, "notified", notified, "ledger_size", ledgerSize, "elapsed", elapsed)
		metrics.IncCycle("success")
	}
	metrics.ObserveCycleDuration(elapsed.Seconds())
	w.setStatus(st)
	w.audit(history.Event{
		Type:       history.EventCycle,
		OccurredAt: time.Now().UTC(),
		Outcome:    st.LastResult,
		Detail:     st.LastError,
	})
	return err
}

// cycle is the Running state body. Each step's failure aborts the remainder.
func (w *Watcher) cycle(ctx context.Context) (discovered, notified, ledgerSize int, err error) {
	sess, err := w.opts.Sessions.Ensure(ctx)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ensure session: %w", err)
	}
	w.opts.Sessions.MarkUsed()

	page, err := sess.NewPage(ctx, w.opts.UserAgent)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			slog.Warn("failed to close page", "error", cerr)
		}
	}()

	slog.Info("navigating to search page", "url", w.opts.TargetURL)
	if err := page.Navigate(ctx, w.opts.TargetURL); err != nil {
		return 0, 0, 0, fmt.Errorf("navigate: %w", err)
	}
	if _, err := marketplace.LoginIfRedirected(ctx, page, w.opts.TargetURL, w.opts.Credentials); err != nil {
		return 0, 0, 0, fmt.Errorf("authenticate: %w", err)
	}

	found, err := w.opts.Discoverer.Discover(ctx, page)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("discover listings: %w", err)
	}
	discovered = found.Len()
	metrics.SetListingsDiscovered(discovered)

	seen, err := w.opts.Ledger.Load(ctx)
	if err != nil {
		return discovered, 0, 0, fmt.Errorf("load ledger: %w", err)
	}

	notified = w.notifyNew(ctx, found, seen)

	if err := w.opts.Ledger.Save(ctx, seen); err != nil {
		return discovered, notified, len(seen), fmt.Errorf("persist ledger: %w", err)
	}
	metrics.SetLedgerSize(len(seen))
	return discovered, notified, len(seen), nil
}

// notifyNew walks the candidate set in first-discovery order and notifies
// every listing the ledger has not recorded. A delivery failure does not
// abort the loop and does not keep the id out of the ledger: re-notifying a
// flaky transport every cycle is worse than losing one message.
func (w *Watcher) notifyNew(ctx context.Context, found *marketplace.ListingSet, seen ledger.Set) int {
	notified := 0
	for _, l := range found.Listings() {
		if seen.Has(l.ID) {
			continue
		}
		delivered := w.opts.Notifier.Broadcast(ctx, l.Message())
		outcome := "sent"
		if delivered == 0 {
			outcome = "failed"
			slog.Warn("notification not delivered to any destination", "listing_id", l.ID)
		}
		metrics.IncNotification(outcome)
		w.audit(history.Event{
			Type:       history.EventNotification,
			OccurredAt: time.Now().UTC(),
			ListingID:  l.ID,
			Title:      l.Title,
			Outcome:    outcome,
		})
		seen.Add(l.ID)
		notified++
	}
	return notified
}

func (w *Watcher) audit(e history.Event) {
	if w.opts.History == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.opts.History.Send(ctx, e); err != nil {
		slog.Warn("failed to record history event", "type", e.Type, "error", err)
	}
}

func (w *Watcher) setStatus(st Status) {
	w.mu.Lock()
	w.last = st
	w.mu.Unlock()
}

// Status reports the most recent cycle outcome.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	st := w.last
	w.mu.Unlock()
	st.Running = w.running.Load()
	st.SessionUses = w.opts.Sessions.Uses()
	return st
}
