package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterIdempotentAndHelpersWork(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	// idempotent: calling again should be no-op
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}

	IncCycle("success")
	IncCycle("failed")
	IncCycleSkipped()
	ObserveCycleDuration(12.5)
	SetListingsDiscovered(24)
	IncNotification("sent")
	SetLedgerSize(100)
	IncSessionLaunch()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	wantNames := map[string]bool{
		"marketwatch_cycle_runs_total":       false,
		"marketwatch_cycle_skipped_total":    false,
		"marketwatch_cycle_duration_seconds": false,
		"marketwatch_listings_discovered":    false,
		"marketwatch_notifications_total":    false,
		"marketwatch_ledger_size":            false,
		"marketwatch_session_launches_total": false,
	}
	for _, mf := range mfs {
		n := mf.GetName()
		if _, ok := wantNames[n]; ok {
			wantNames[n] = true
			if len(mf.GetMetric()) == 0 {
				t.Fatalf("metric %s has no samples", n)
			}
		}
	}
	for n, ok := range wantNames {
		if !ok {
			t.Fatalf("expected to find metric %s", n)
		}
	}
}

func TestHelpersNoOpBeforeRegister(t *testing.T) {
	regOK.Store(false)
	defer regOK.Store(true)
	// Must not panic or mutate anything while unregistered.
	IncCycle("success")
	SetLedgerSize(1)
}

func TestHandlerServesMetrics(t *testing.T) {
	// Ensure collectors are registered with the default registry used by Handler().
	regOK.Store(false)
	if err := Register(prometheus.DefaultRegisterer); err != nil {
		t.Fatal(err)
	}
	IncCycle("success")

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = res.Body.Close() }()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "marketwatch_cycle_runs_total") {
		t.Fatalf("metrics output missing cycle counter")
	}
}
