package marketwatch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketwatch/internal/browser"
)

type nopNotifier struct{}

func (nopNotifier) Broadcast(context.Context, string) int { return 0 }

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "*/5 * * * *", cfg.Watch.Schedule)
	assert.Contains(t, cfg.SearchSpec().URL(), "sort=DATE_DESC")
	// An empty config cannot pass validation: delivery is not possible.
	assert.Error(t, cfg.Validate())
}

func TestLedgerFacadeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	store, err := NewLedger(LedgerConfig{Type: "file", Path: path})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	set, err := store.Load(context.Background())
	require.NoError(t, err)
	set.Add("123")
	require.NoError(t, store.Save(context.Background(), set))

	again, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, again.Has("123"))
}

func TestWatcherFacadeStatusAndScheduler(t *testing.T) {
	store, err := NewLedger(LedgerConfig{Path: filepath.Join(t.TempDir(), "seen.json")})
	require.NoError(t, err)

	sessions := browser.NewManager(browser.Config{}, func(context.Context, browser.Config) (browser.Session, error) {
		return nil, context.Canceled
	})
	w := NewWatcher(Options{
		TargetURL: "https://x/search",
		Sessions:  sessions,
		Ledger:    store,
		Notifier:  nopNotifier{},
	})

	st := w.Status()
	assert.False(t, st.Running)
	assert.Empty(t, st.LastResult)

	_, err = NewScheduler(w, "bogus")
	assert.Error(t, err)

	s, err := NewScheduler(w, "*/5 * * * *")
	require.NoError(t, err)
	<-s.Stop().Done()
}

func TestRegisterMetrics(t *testing.T) {
	require.NoError(t, RegisterMetrics(prometheus.NewRegistry()))
	require.NoError(t, RegisterMetricsDefault())
}
