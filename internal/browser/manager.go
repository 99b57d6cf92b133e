package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"marketwatch/internal/metrics"
)

// Manager owns the browser session: lazy creation, liveness check and
// bounded-use recycling. Only one cycle touches the session at a time (the
// watcher's run guard enforces that), but the mutex keeps the Manager safe
// for status reads from other goroutines.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	launch Launcher
	cur    Session
	uses   int
}

// NewManager builds a session manager. A nil launcher defaults to the
// chromedp-backed engine.
func NewManager(cfg Config, launch Launcher) *Manager {
	if launch == nil {
		launch = LaunchChrome
	}
	return &Manager{cfg: cfg.withDefaults(), launch: launch}
}

// Ensure returns a live session, recycling the current one when it is
// disconnected or has reached its use quota. A close failure of the old
// session never blocks the relaunch.
func (m *Manager) Ensure(ctx context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur != nil && m.cur.Alive() && m.uses < m.cfg.MaxUses {
		return m.cur, nil
	}
	if m.cur != nil {
		if m.cur.Alive() {
			slog.Info("recycling browser session", "uses", m.uses, "max_uses", m.cfg.MaxUses)
		}
		if err := m.cur.Close(); err != nil {
			slog.Warn("failed to close stale browser session", "error", err)
		}
		m.cur = nil
	}

	if m.cfg.ProfileDir != "" {
		if err := os.MkdirAll(m.cfg.ProfileDir, 0o750); err != nil {
			return nil, fmt.Errorf("create profile dir: %w", err)
		}
	}

	s, err := m.launch(ctx, m.cfg)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	m.cur = s
	m.uses = 0
	metrics.IncSessionLaunch()
	slog.Info("browser session launched", "profile_dir", m.cfg.ProfileDir, "headless", m.cfg.Headless)
	return m.cur, nil
}

// MarkUsed records one successful cycle acquisition against the current
// session. Called by the orchestrator after Ensure succeeds.
func (m *Manager) MarkUsed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uses++
}

// Uses reports acquisitions since the last (re)launch.
func (m *Manager) Uses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uses
}

// Close tears down the current session, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return nil
	}
	err := m.cur.Close()
	m.cur = nil
	m.uses = 0
	return err
}
