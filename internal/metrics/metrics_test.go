package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCycle(time.Second, true)
	m.SetState(3, 1)
	m.Transition("buy")
	m.AlertDelivered("buy")
	m.AlertDropped("buy")
	m.AlertRateLimited("buy")
	if m.Registry() != nil {
		t.Fatal("nil metrics should expose no registry")
	}
}

func TestRecording(t *testing.T) {
	m := New()

	m.ObserveCycle(200*time.Millisecond, false)
	m.ObserveCycle(300*time.Millisecond, true)
	m.SetState(42, 2)
	m.Transition("buy")
	m.Transition("buy")
	m.Transition("sell")
	m.AlertDelivered("buy")
	m.AlertRateLimited("buy")
	m.AlertDropped("donation")

	if got := testutil.ToFloat64(m.CyclesTotal); got != 2 {
		t.Fatalf("cycles = %v", got)
	}
	if got := testutil.ToFloat64(m.FetchFailuresTotal); got != 1 {
		t.Fatalf("fetch failures = %v", got)
	}
	if got := testutil.ToFloat64(m.TrackedPairs); got != 42 {
		t.Fatalf("tracked pairs = %v", got)
	}
	if got := testutil.ToFloat64(m.OpenPositions); got != 2 {
		t.Fatalf("open positions = %v", got)
	}
	if got := testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("buy")); got != 2 {
		t.Fatalf("buy transitions = %v", got)
	}
	if got := testutil.ToFloat64(m.AlertsTotal.WithLabelValues("donation", "dropped")); got != 1 {
		t.Fatalf("dropped donations = %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.Transition("sell")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `pumpalerts_transitions_total{side="sell"} 1`) {
		t.Fatalf("exposition missing transition counter:\n%s", body)
	}
}
