package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// chromeSession drives a headless Chromium via chromedp. The allocator is
// bound to a persistent user data dir so login cookies survive restarts.
type chromeSession struct {
	allocCtx    context.Context
	allocStop   context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
	typeDelay   time.Duration
}

// LaunchChrome is the default Launcher.
func LaunchChrome(ctx context.Context, cfg Config) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.ViewportW, cfg.ViewportH),
		chromedp.UserDataDir(cfg.ProfileDir),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocStop := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)

	// Force the browser process to start now so a broken install fails here
	// rather than on first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		browserStop()
		allocStop()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &chromeSession{
		allocCtx:    allocCtx,
		allocStop:   allocStop,
		browserCtx:  browserCtx,
		browserStop: browserStop,
		typeDelay:   time.Duration(cfg.TypeDelay) * time.Millisecond,
	}, nil
}

func (s *chromeSession) Alive() bool {
	return s.browserCtx.Err() == nil
}

func (s *chromeSession) NewPage(ctx context.Context, userAgent string) (Page, error) {
	tabCtx, tabStop := chromedp.NewContext(s.browserCtx)
	if userAgent != "" {
		if err := chromedp.Run(tabCtx, emulation.SetUserAgentOverride(userAgent)); err != nil {
			tabStop()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}
	return &chromePage{ctx: tabCtx, stop: tabStop, typeDelay: s.typeDelay}, nil
}

func (s *chromeSession) Close() error {
	s.browserStop()
	s.allocStop()
	return nil
}

type chromePage struct {
	ctx       context.Context
	stop      context.CancelFunc
	typeDelay time.Duration
}

func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := deriveRunContext(p.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// deriveRunContext scopes an action context to the caller's deadline and
// cancellation while keeping base as the chromedp parent. Cancelling the
// caller context interrupts an in-flight action even without a deadline.
func deriveRunContext(base, caller context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(base)
	stop := context.AfterFunc(caller, cancel)
	if deadline, ok := caller.Deadline(); ok {
		var dcancel context.CancelFunc
		runCtx, dcancel = context.WithDeadline(runCtx, deadline)
		prev := cancel
		cancel = func() { dcancel(); prev() }
	}
	return runCtx, func() { stop(); cancel() }
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (p *chromePage) Location(ctx context.Context) (string, error) {
	var loc string
	err := p.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *chromePage) Height(ctx context.Context) (int64, error) {
	var h int64
	err := p.run(ctx, chromedp.Evaluate(`document.body.scrollHeight`, &h))
	return h, err
}

func (p *chromePage) ScrollForward(ctx context.Context) error {
	return p.run(ctx, chromedp.Evaluate(`window.scrollBy(0, window.innerHeight)`, nil))
}

func (p *chromePage) TypeInto(ctx context.Context, sel, text string) error {
	if err := p.run(ctx, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		return err
	}
	// Per-character pacing; bulk SendKeys trips bot heuristics on login forms.
	for _, r := range text {
		if err := p.run(ctx, chromedp.SendKeys(sel, string(r), chromedp.ByQuery)); err != nil {
			return err
		}
		time.Sleep(p.typeDelay)
	}
	return nil
}

func (p *chromePage) Click(ctx context.Context, sel string) error {
	return p.run(ctx, chromedp.Click(sel, chromedp.ByQuery))
}

func (p *chromePage) WaitReady(ctx context.Context) error {
	return p.run(ctx, chromedp.WaitReady("body", chromedp.ByQuery))
}

func (p *chromePage) Close() error {
	p.stop()
	return nil
}
