// Package metrics exposes Prometheus instrumentation for solver runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/verte-zerg/cipherbreak/internal/worker"
)

var (
	// runsTotal counts finished runs by cipher and outcome
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cipherbreak_solver_runs_total",
		Help: "Finished solver runs by cipher and outcome",
	}, []string{"cipher", "outcome"})

	// candidatesTotal counts keys tried
	candidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cipherbreak_solver_candidates_total",
		Help: "Candidate keys tried by cipher",
	}, []string{"cipher"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cipherbreak_solver_run_duration_seconds",
		Help:    "Solver run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4.4min
	}, []string{"cipher"})

	bestScore = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cipherbreak_solver_best_score",
		Help:    "Rating of the best candidate of each finished run",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2},
	}, []string{"cipher"})

	activeRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cipherbreak_solver_active_runs",
		Help: "Solver runs currently executing",
	})
)

// RunStarted marks a run as active.
func RunStarted() {
	activeRuns.Inc()
}

// ObserveRun records a finished run. Pair every call with a RunStarted.
func ObserveRun(s worker.Summary) {
	activeRuns.Dec()
	runsTotal.WithLabelValues(s.Cipher, string(s.Outcome)).Inc()
	candidatesTotal.WithLabelValues(s.Cipher).Add(float64(s.Tried))
	runDuration.WithLabelValues(s.Cipher).Observe(s.EndedAt.Sub(s.StartedAt).Seconds())
	if len(s.TopK) > 0 {
		bestScore.WithLabelValues(s.Cipher).Observe(s.TopK[0].Score)
	}
}
