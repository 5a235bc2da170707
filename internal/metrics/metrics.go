// Package metrics exposes Prometheus collectors for the monitor loop and the
// alert dispatcher. All recording methods are safe on a nil *Metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics holds all Prometheus metrics of the alert bot.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal        prometheus.Counter
	FetchFailuresTotal prometheus.Counter
	CycleDuration      prometheus.Histogram
	TrackedPairs       prometheus.Gauge
	OpenPositions      prometheus.Gauge
	TransitionsTotal   *prometheus.CounterVec // labels: side
	AlertsTotal        *prometheus.CounterVec // labels: kind, outcome
}

// New creates the collectors on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pumpalerts_cycles_total",
			Help: "Polling cycles executed",
		}),
		FetchFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pumpalerts_fetch_failures_total",
			Help: "Ticker snapshot fetches that failed",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pumpalerts_cycle_duration_seconds",
			Help:    "Wall time of one polling cycle",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		TrackedPairs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pumpalerts_tracked_pairs",
			Help: "Pairs with at least one recorded sample",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pumpalerts_open_positions",
			Help: "Pairs in the OPEN state",
		}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pumpalerts_transitions_total",
			Help: "Signal transitions by side",
		}, []string{"side"}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pumpalerts_alerts_total",
			Help: "Outbound alert attempts by kind and outcome (delivered, dropped, rate_limited)",
		}, []string{"kind", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.CyclesTotal,
		m.FetchFailuresTotal,
		m.CycleDuration,
		m.TrackedPairs,
		m.OpenPositions,
		m.TransitionsTotal,
		m.AlertsTotal,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveCycle records a completed cycle.
func (m *Metrics) ObserveCycle(d time.Duration, fetchFailed bool) {
	if m == nil {
		return
	}
	m.CyclesTotal.Inc()
	m.CycleDuration.Observe(d.Seconds())
	if fetchFailed {
		m.FetchFailuresTotal.Inc()
	}
}

// SetState publishes the current pair and position counts.
func (m *Metrics) SetState(trackedPairs, openPositions int) {
	if m == nil {
		return
	}
	m.TrackedPairs.Set(float64(trackedPairs))
	m.OpenPositions.Set(float64(openPositions))
}

// Transition counts one signal transition.
func (m *Metrics) Transition(side string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(side).Inc()
}

func (m *Metrics) AlertDelivered(kind string) { m.alert(kind, "delivered") }

func (m *Metrics) AlertDropped(kind string) { m.alert(kind, "dropped") }

func (m *Metrics) AlertRateLimited(kind string) { m.alert(kind, "rate_limited") }

func (m *Metrics) alert(kind, outcome string) {
	if m == nil {
		return
	}
	m.AlertsTotal.WithLabelValues(kind, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics endpoint at addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr, path string, logger zerolog.Logger) error {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log := logger.With().Str("component", "metrics").Logger()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("path", path).Msg("metrics server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown")
		}
		return ctx.Err()
	}
}
