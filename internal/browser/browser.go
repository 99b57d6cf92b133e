// Package browser models the headless rendering engine as a narrow, opaque
// capability. The watcher core depends only on the Page and Session
// interfaces, never on engine internals, so tests can substitute fakes.
package browser

import "context"

// Page is one open tab scoped to a single polling cycle.
type Page interface {
	// Navigate loads url and waits for the document to settle.
	Navigate(ctx context.Context, url string) error
	// Location returns the URL the page ended up on (after redirects).
	Location(ctx context.Context) (string, error)
	// HTML returns the currently rendered document markup.
	HTML(ctx context.Context) (string, error)
	// Height returns the total scroll height of the document body.
	Height(ctx context.Context) (int64, error)
	// ScrollForward advances the viewport by one viewport height.
	ScrollForward(ctx context.Context) error
	// TypeInto types text into the element matched by sel, pacing keystrokes
	// like a human would.
	TypeInto(ctx context.Context, sel, text string) error
	// Click clicks the element matched by sel.
	Click(ctx context.Context, sel string) error
	// WaitReady blocks until the document has finished loading.
	WaitReady(ctx context.Context) error
	Close() error
}

// Session is a live browser instance. Creation and destruction belong to the
// Manager exclusively.
type Session interface {
	Alive() bool
	NewPage(ctx context.Context, userAgent string) (Page, error)
	Close() error
}

// Launcher starts a fresh browser session.
type Launcher func(ctx context.Context, cfg Config) (Session, error)

// Config carries the launch parameters for the underlying engine.
type Config struct {
	ExecPath   string // empty means let the engine locate a browser
	ProfileDir string // persistent user data dir, keeps auth cookies
	Headless   bool
	MaxUses    int // cycles before the session is recycled
	ViewportW  int
	ViewportH  int
	TypeDelay  int // milliseconds between keystrokes in TypeInto
}

// Defaults applied by the Manager when fields are zero.
const (
	DefaultMaxUses   = 12
	DefaultViewportW = 1280
	DefaultViewportH = 800
	DefaultTypeDelay = 40
)

func (c Config) withDefaults() Config {
	if c.MaxUses <= 0 {
		c.MaxUses = DefaultMaxUses
	}
	if c.ViewportW <= 0 {
		c.ViewportW = DefaultViewportW
	}
	if c.ViewportH <= 0 {
		c.ViewportH = DefaultViewportH
	}
	if c.TypeDelay <= 0 {
		c.TypeDelay = DefaultTypeDelay
	}
	return c
}
