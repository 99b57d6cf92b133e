package marketwatch

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"marketwatch/internal/browser"
	"marketwatch/internal/config"
	"marketwatch/internal/history"
	"marketwatch/internal/history/factory"
	"marketwatch/internal/ledger"
	"marketwatch/internal/logger"
	"marketwatch/internal/marketplace"
	"marketwatch/internal/metrics"
	"marketwatch/internal/notify"
	"marketwatch/internal/server"
	"marketwatch/internal/watcher"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = config.Config

type Listing = marketplace.Listing

type SearchSpec = marketplace.SearchSpec

type Credentials = marketplace.Credentials

type Discoverer = marketplace.Discoverer

type Status = watcher.Status

type HistoryEvent = history.Event

type HistorySink = history.Sink

// ErrAlreadyRunning is returned by Watcher.Run when a cycle is in flight.
var ErrAlreadyRunning = watcher.ErrAlreadyRunning

// Watcher is a thin facade over internal/watcher.Watcher.
// It provides a stable public API for embedding.

type Watcher struct{ inner *watcher.Watcher }

func NewWatcher(opts watcher.Options) *Watcher {
	return &Watcher{inner: watcher.New(opts)}
}

func (w *Watcher) Run(ctx context.Context) error { return w.inner.Run(ctx) }
func (w *Watcher) Status() Status                { return w.inner.Status() }

// Options configures a Watcher. See internal/watcher for field docs.
type Options = watcher.Options

// Scheduler facade

type Scheduler struct{ inner *watcher.Scheduler }

func NewScheduler(w *Watcher, schedule string) (*Scheduler, error) {
	inner, err := watcher.NewScheduler(w.inner, schedule)
	if err != nil {
		return nil, err
	}
	return &Scheduler{inner: inner}, nil
}

func (s *Scheduler) Start()                { s.inner.Start() }
func (s *Scheduler) Stop() context.Context { return s.inner.Stop() }

// Browser session management

type BrowserConfig = browser.Config

type SessionManager = browser.Manager

func NewSessionManager(cfg browser.Config) *SessionManager {
	return browser.NewManager(cfg, nil)
}

// Ledger

type LedgerConfig = ledger.Config

type LedgerStore = ledger.Store

func NewLedger(cfg ledger.Config) (ledger.Store, error) { return ledger.New(cfg) }

// Notification

type TelegramNotifier = notify.Telegram

func NewTelegramNotifier(token string, chatIDs []string) *TelegramNotifier {
	return notify.NewTelegram(token, chatIDs)
}

// Logging

type LogConfig = logger.Config

// SetupLogging installs the slog default logger per cfg and returns it.
func SetupLogging(cfg logger.Config) (*slog.Logger, error) { return logger.Setup(cfg) }

// NewHistorySink builds an audit sink from a DSN. Supported schemes are
// sqlite (or a bare file path), postgres and clickhouse.
func NewHistorySink(dsn string) (history.Sink, error) {
	return factory.NewSinkFromDSN(dsn)
}

func LoadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}

// NewHTTPServer starts an HTTP server exposing status and metrics for the given watcher.
func NewHTTPServer(addr, basePath string, w *Watcher) (*http.Server, error) {
	return server.NewServer(addr, basePath, w.inner)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }
