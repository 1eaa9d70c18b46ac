// Package telemetry exposes Prometheus counters for the numerical kernels.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RootSolves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspiral_root_solves_total",
			Help: "Bracketed root solves by outcome.",
		},
		[]string{"outcome"},
	)

	RootIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inspiral_root_iterations",
			Help:    "Iterations per bracketed root solve.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 11),
		},
	)

	FluxEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspiral_flux_evaluations_total",
			Help: "Flux model right-hand side evaluations by model and outcome.",
		},
		[]string{"model", "outcome"},
	)

	SanityViolations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inspiral_sanity_violations_total",
			Help: "Orbit geometries outside the nominal physical domain.",
		},
	)

	TrajectorySteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspiral_trajectory_steps_total",
			Help: "Accepted trajectory integration steps by model.",
		},
		[]string{"model"},
	)

	BatchElements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspiral_batch_elements_total",
			Help: "Batch elements evaluated by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(RootSolves)
	prometheus.MustRegister(RootIterations)
	prometheus.MustRegister(FluxEvaluations)
	prometheus.MustRegister(SanityViolations)
	prometheus.MustRegister(TrajectorySteps)
	prometheus.MustRegister(BatchElements)
}

// Outcome labels.
const (
	OK    = "ok"
	Slow  = "slow"
	Error = "error"
)

// Outcome maps an error to its label.
func Outcome(err error) string {
	if err != nil {
		return Error
	}
	return OK
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
