// Package metrics exposes Prometheus metrics for the strategy engine.
//
// Registers:
//
//	solstrat_swaps_total{result}
//	solstrat_strategy_runs_total{strategy,outcome}
//	solstrat_monitors_active
//	solstrat_monitor_polls_total
//	solstrat_monitor_poll_failures_total
//	solstrat_monitor_exits_total{reason}
//	solstrat_prediction_samples_dropped_total
//	go_* and process_* system metrics
//
// All recording methods are safe on a nil *Metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	swaps          *prometheus.CounterVec
	strategyRuns   *prometheus.CounterVec
	monitorsActive prometheus.Gauge
	monitorPolls   prometheus.Counter
	pollFailures   prometheus.Counter
	monitorExits   *prometheus.CounterVec
	samplesDropped prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		swaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solstrat_swaps_total",
			Help: "Swaps attempted, by result",
		}, []string{"result"}),
		strategyRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solstrat_strategy_runs_total",
			Help: "Strategy invocations, by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		monitorsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solstrat_monitors_active",
			Help: "Position monitors currently running",
		}),
		monitorPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "solstrat_monitor_polls_total",
			Help: "Position monitor price polls",
		}),
		pollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "solstrat_monitor_poll_failures_total",
			Help: "Position monitor polls skipped because the price fetch failed",
		}),
		monitorExits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solstrat_monitor_exits_total",
			Help: "Position exits, by trigger",
		}, []string{"reason"}),
		samplesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "solstrat_prediction_samples_dropped_total",
			Help: "Prediction price samples discarded after a failed fetch",
		}),
	}

	m.registry.MustRegister(
		m.swaps,
		m.strategyRuns,
		m.monitorsActive,
		m.monitorPolls,
		m.pollFailures,
		m.monitorExits,
		m.samplesDropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// SwapCompleted records a swap result.
func (m *Metrics) SwapCompleted(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.swaps.WithLabelValues(result).Inc()
}

// StrategyRun records a strategy outcome.
func (m *Metrics) StrategyRun(strategy, outcome string) {
	if m == nil {
		return
	}
	m.strategyRuns.WithLabelValues(strategy, outcome).Inc()
}

// MonitorStarted increments the active monitor gauge.
func (m *Metrics) MonitorStarted() {
	if m == nil {
		return
	}
	m.monitorsActive.Inc()
}

// MonitorStopped decrements the active monitor gauge.
func (m *Metrics) MonitorStopped() {
	if m == nil {
		return
	}
	m.monitorsActive.Dec()
}

// MonitorPolled records a monitor poll and whether its fetch failed.
func (m *Metrics) MonitorPolled(failed bool) {
	if m == nil {
		return
	}
	m.monitorPolls.Inc()
	if failed {
		m.pollFailures.Inc()
	}
}

// MonitorExited records an exit by trigger.
func (m *Metrics) MonitorExited(reason string) {
	if m == nil {
		return
	}
	m.monitorExits.WithLabelValues(reason).Inc()
}

// SampleDropped records a discarded prediction sample.
func (m *Metrics) SampleDropped() {
	if m == nil {
		return
	}
	m.samplesDropped.Inc()
}
