package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	cycleRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketwatch",
			Subsystem: "cycle",
			Name:      "runs_total",
			Help:      "Number of completed polling cycles by result.",
		}, []string{"result"},
	)
	cycleSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "marketwatch",
			Subsystem: "cycle",
			Name:      "skipped_total",
			Help:      "Number of triggers dropped because a cycle was already running.",
		},
	)
	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "marketwatch",
			Subsystem: "cycle",
			Name:      "duration_seconds",
			Help:      "Wall time of one polling cycle.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
	listingsDiscovered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "marketwatch",
			Name:      "listings_discovered",
			Help:      "Listings captured by the most recent discovery pass.",
		},
	)
	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketwatch",
			Name:      "notifications_total",
			Help:      "Notification delivery attempts by result.",
		}, []string{"result"},
	)
	ledgerSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "marketwatch",
			Name:      "ledger_size",
			Help:      "Number of listing ids recorded in the ledger.",
		},
	)
	sessionLaunches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "marketwatch",
			Subsystem: "session",
			Name:      "launches_total",
			Help:      "Number of browser session (re)launches.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{cycleRuns, cycleSkipped, cycleDuration, listingsDiscovered, notifications, ledgerSize, sessionLaunches}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncCycle(result string) {
	if regOK.Load() {
		cycleRuns.WithLabelValues(result).Inc()
	}
}

func IncCycleSkipped() {
	if regOK.Load() {
		cycleSkipped.Inc()
	}
}

func ObserveCycleDuration(seconds float64) {
	if regOK.Load() {
		cycleDuration.Observe(seconds)
	}
}

func SetListingsDiscovered(n int) {
	if regOK.Load() {
		listingsDiscovered.Set(float64(n))
	}
}

func IncNotification(result string) {
	if regOK.Load() {
		notifications.WithLabelValues(result).Inc()
	}
}

func SetLedgerSize(n int) {
	if regOK.Load() {
		ledgerSize.Set(float64(n))
	}
}

func IncSessionLaunch() {
	if regOK.Load() {
		sessionLaunches.Inc()
	}
}
