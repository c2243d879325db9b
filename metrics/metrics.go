// Package metrics provides Prometheus metrics for the HTTP server and the
// PK/PD engine:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - pkpd_evaluations_total: Counter with drug, mode and outcome labels
//   - pkpd_evaluation_duration_seconds: Histogram with mode label
//   - pkpd_selfcheck_passed: Gauge, 1 when the last self-check passed
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Evaluation outcomes
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Number of per-client rate limiter buckets",
		},
	)

	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pkpd_evaluations_total",
			Help: "PK/PD evaluations by drug, mode and outcome",
		},
		[]string{"drug", "mode", "outcome"},
	)

	EvaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pkpd_evaluation_duration_seconds",
			Help:    "Time spent in the PK/PD engine per evaluation",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
		[]string{"mode"},
	)

	SelfCheckPassed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pkpd_selfcheck_passed",
			Help: "1 when the last model self-check passed, 0 otherwise",
		},
	)

	SelfCheckDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pkpd_selfcheck_duration_seconds",
			Help: "Duration of the last model self-check",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(EvaluationsTotal)
	prometheus.MustRegister(EvaluationDuration)
	prometheus.MustRegister(SelfCheckPassed)
	prometheus.MustRegister(SelfCheckDuration)
}

// RecordEvaluation counts one evaluation. Unknown drugs are folded under a
// single label to keep the cardinality bounded.
func RecordEvaluation(drug, mode string, err error, seconds float64) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeRejected
	}
	if drug == "" {
		drug = "unknown"
	}
	EvaluationsTotal.WithLabelValues(drug, mode, outcome).Inc()
	EvaluationDuration.WithLabelValues(mode).Observe(seconds)
}

// RecordSelfCheck exports the outcome of a self-check
func RecordSelfCheck(passed bool, seconds float64) {
	if passed {
		SelfCheckPassed.Set(1)
	} else {
		SelfCheckPassed.Set(0)
	}
	SelfCheckDuration.Set(seconds)
}

// Handler serves the default registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.Handler()
}
