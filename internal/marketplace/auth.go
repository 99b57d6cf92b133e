package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"marketwatch/internal/browser"
)

// Credentials is the marketplace login pair.
type Credentials struct {
	Email    string
	Password string
}

// Login surface selectors. The marketplace serves a stable login form, so
// these are constants rather than configuration.
const (
	loginPathMarker  = "/login"
	emailSelector    = "#email"
	passwordSelector = "#pass"
	submitSelector   = `[name="login"]`
)

// LoginIfRedirected inspects the page URL after navigating to target. When
// the navigation was redirected to the login surface it fills the credential
// form, submits, waits for the navigation to settle and re-navigates to
// target. Attempted at most once per cycle; any failure is cycle-fatal for
// the caller. Returns true when a login was performed.
func LoginIfRedirected(ctx context.Context, page browser.Page, target string, creds Credentials) (bool, error) {
	loc, err := page.Location(ctx)
	if err != nil {
		return false, fmt.Errorf("read page location: %w", err)
	}
	if !strings.Contains(loc, loginPathMarker) {
		return false, nil
	}

	slog.Info("redirected to login, re-authenticating")
	if creds.Email == "" || creds.Password == "" {
		return false, errors.New("login required but no credentials configured")
	}
	if err := page.TypeInto(ctx, emailSelector, creds.Email); err != nil {
		return false, fmt.Errorf("fill email field: %w", err)
	}
	if err := page.TypeInto(ctx, passwordSelector, creds.Password); err != nil {
		return false, fmt.Errorf("fill password field: %w", err)
	}
	if err := page.Click(ctx, submitSelector); err != nil {
		return false, fmt.Errorf("submit login form: %w", err)
	}
	if err := page.WaitReady(ctx); err != nil {
		return false, fmt.Errorf("wait for login navigation: %w", err)
	}
	if err := page.Navigate(ctx, target); err != nil {
		return false, fmt.Errorf("re-navigate after login: %w", err)
	}
	return true, nil
}
