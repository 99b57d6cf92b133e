package browser

import (
	"context"
	"errors"
	"testing"
)

type stubSession struct {
	id     int
	alive  bool
	closed bool
}

func (s *stubSession) Alive() bool { return s.alive && !s.closed }

func (s *stubSession) NewPage(context.Context, string) (Page, error) {
	return nil, errors.New("not implemented")
}

func (s *stubSession) Close() error {
	s.closed = true
	return nil
}

func stubLauncher(sessions *[]*stubSession) Launcher {
	return func(context.Context, Config) (Session, error) {
		s := &stubSession{id: len(*sessions), alive: true}
		*sessions = append(*sessions, s)
		return s, nil
	}
}

func TestManagerReusesLiveSession(t *testing.T) {
	var launched []*stubSession
	m := NewManager(Config{}, stubLauncher(&launched))

	s1, err := m.Ensure(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	m.MarkUsed()
	s2, err := m.Ensure(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if s1 != s2 || len(launched) != 1 {
		t.Fatalf("expected session reuse, launched %d", len(launched))
	}
}

func TestManagerRecyclesAtUseQuota(t *testing.T) {
	var launched []*stubSession
	m := NewManager(Config{MaxUses: 12}, stubLauncher(&launched))

	// Twelve acquisitions ride the same session.
	for i := 0; i < 12; i++ {
		if _, err := m.Ensure(context.Background()); err != nil {
			t.Fatalf("ensure %d: %v", i, err)
		}
		m.MarkUsed()
	}
	if len(launched) != 1 {
		t.Fatalf("premature recycle, launched %d", len(launched))
	}

	// The thirteenth hits the quota and relaunches.
	if _, err := m.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(launched) != 2 {
		t.Fatalf("expected relaunch, launched %d", len(launched))
	}
	if !launched[0].closed {
		t.Fatalf("old session not closed")
	}
	if m.Uses() != 0 {
		t.Fatalf("use counter not reset, got %d", m.Uses())
	}
}

func TestManagerReplacesDeadSession(t *testing.T) {
	var launched []*stubSession
	m := NewManager(Config{}, stubLauncher(&launched))

	if _, err := m.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	m.MarkUsed()
	launched[0].alive = false

	s, err := m.Ensure(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(launched) != 2 || s != Session(launched[1]) {
		t.Fatalf("dead session not replaced, launched %d", len(launched))
	}
	if m.Uses() != 0 {
		t.Fatalf("use counter not reset after relaunch")
	}
}

func TestManagerLaunchErrorPropagates(t *testing.T) {
	boom := errors.New("no chrome")
	m := NewManager(Config{}, func(context.Context, Config) (Session, error) { return nil, boom })
	if _, err := m.Ensure(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected launch error, got %v", err)
	}
}

func TestManagerClose(t *testing.T) {
	var launched []*stubSession
	m := NewManager(Config{}, stubLauncher(&launched))
	if _, err := m.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !launched[0].closed {
		t.Fatalf("session not closed")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("idempotent close: %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	if c.MaxUses != DefaultMaxUses || c.ViewportW != DefaultViewportW ||
		c.ViewportH != DefaultViewportH || c.TypeDelay != DefaultTypeDelay {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}
