// Package telemetry exposes the engine's Prometheus metrics plus
// liveness/readiness endpoints for the optimization coordinator and
// worker processes.
package telemetry

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector the engine records against,
// registered on a private registry so multiple instances (tests,
// multiple worker processes in one binary) never collide.
type Metrics struct {
	CandidatesScored *prometheus.CounterVec
	CandidateScore   *prometheus.HistogramVec
	SimulationRuns   *prometheus.CounterVec
	SimulationTime   *prometheus.HistogramVec
	TradesPerRun     *prometheus.HistogramVec
	Liquidations     *prometheus.CounterVec
	DispatchLatency  *prometheus.HistogramVec
	DispatchFailures *prometheus.CounterVec
	PoolInFlight     *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewMetrics builds a Metrics instance with every collector registered.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,

		CandidatesScored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "constantine_candidates_scored_total",
				Help: "Total hyperparameter candidates scored, by study and outcome",
			},
			[]string{"study", "outcome"},
		),
		CandidateScore: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "constantine_candidate_score",
				Help:    "Distribution of scores assigned to evaluated candidates",
				Buckets: []float64{-1, -0.5, 0, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"study", "ratio"},
		),
		SimulationRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "constantine_simulation_runs_total",
				Help: "Total simulator runs completed, by route and outcome",
			},
			[]string{"route", "outcome"},
		),
		SimulationTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "constantine_simulation_duration_seconds",
				Help:    "Wall-clock duration of one full candle-series replay",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		TradesPerRun: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "constantine_trades_per_run",
				Help:    "Total closed trades recorded per simulation run",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
			},
			[]string{"route"},
		),
		Liquidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "constantine_liquidations_total",
				Help: "Total forced liquidations across simulation runs",
			},
			[]string{"route"},
		),
		DispatchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "constantine_dispatch_latency_seconds",
				Help:    "Round-trip latency of one task dispatch, by transport",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"transport"},
		),
		DispatchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "constantine_dispatch_failures_total",
				Help: "Total dispatch failures, by transport",
			},
			[]string{"transport"},
		),
		PoolInFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "constantine_pool_inflight_tasks",
				Help: "Tasks currently running inside a local worker pool",
			},
			[]string{"pool"},
		),
	}

	registry.MustRegister(
		m.CandidatesScored, m.CandidateScore, m.SimulationRuns, m.SimulationTime,
		m.TradesPerRun, m.Liquidations, m.DispatchLatency, m.DispatchFailures, m.PoolInFlight,
	)

	return m
}

// RecordCandidate increments the scored-candidates counter for one
// outcome: "scored" (ran and produced a score), "rules_rejected" (never
// dispatched), or "sim_error" (dispatched but the worker reported a
// failure).
func (m *Metrics) RecordCandidate(study, outcome string) {
	if m == nil {
		return
	}
	m.CandidatesScored.WithLabelValues(study, outcome).Inc()
}

// ObserveCandidateScore records a successfully scored candidate's score.
func (m *Metrics) ObserveCandidateScore(study, ratio string, score float64) {
	if m == nil {
		return
	}
	m.CandidateScore.WithLabelValues(study, ratio).Observe(score)
}

// RecordSimulation records one worker's completed or failed simulation
// run: its duration, trade count, and liquidation count.
func (m *Metrics) RecordSimulation(route string, ok bool, duration time.Duration, trades, liquidations int) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.SimulationRuns.WithLabelValues(route, outcome).Inc()
	m.SimulationTime.WithLabelValues(route).Observe(duration.Seconds())
	if ok {
		m.TradesPerRun.WithLabelValues(route).Observe(float64(trades))
	}
	if liquidations > 0 {
		m.Liquidations.WithLabelValues(route).Add(float64(liquidations))
	}
}

// RecordDispatch records one Dispatcher.Dispatch round trip.
func (m *Metrics) RecordDispatch(transport string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.DispatchLatency.WithLabelValues(transport).Observe(duration.Seconds())
	if err != nil {
		m.DispatchFailures.WithLabelValues(transport).Inc()
	}
}

// SetPoolInFlight reports the current number of tasks a named local
// pool is actively running.
func (m *Metrics) SetPoolInFlight(pool string, n int) {
	if m == nil {
		return
	}
	m.PoolInFlight.WithLabelValues(pool).Set(float64(n))
}

// Server exposes m on /metrics alongside /healthz and /readyz.
type Server struct {
	srv        *http.Server
	readyState atomic.Bool
}

// NewServer creates a telemetry server for m listening on addr.
func NewServer(addr string, m *Metrics) *Server {
	if addr == "" {
		return nil
	}

	server := &Server{}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if server.readyState.Load() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})

	server.srv = &http.Server{Addr: addr, Handler: mux}
	return server
}

// Start begins serving metrics and health endpoints in a separate goroutine.
func (s *Server) Start() error {
	if s == nil || s.srv == nil {
		return nil
	}
	go func() {
		_ = s.srv.ListenAndServe()
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// SetReady updates the readiness state exposed on /readyz.
func (s *Server) SetReady(ready bool) {
	if s == nil {
		return
	}
	s.readyState.Store(ready)
}
