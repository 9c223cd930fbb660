package pipeline

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipehttp_backend_requests_total",
			Help: "Total number of backend calls by method and response code (\"error\" when no response).",
		},
		[]string{"method", "code"},
	)

	backendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipehttp_backend_request_duration_seconds",
			Help:    "Backend call duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	pipelineExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipehttp_pipeline_executions_total",
			Help: "Total number of pipeline executions by mode and final state.",
		},
		[]string{"mode", "state"},
	)

	executionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipehttp_executions_total",
			Help: "Total number of Execute calls by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(backendRequestsTotal)
	prometheus.MustRegister(backendRequestDuration)
	prometheus.MustRegister(pipelineExecutionsTotal)
	prometheus.MustRegister(executionsTotal)
}

func observeBackend(m Method, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	backendRequestsTotal.WithLabelValues(string(m), code).Inc()
	backendRequestDuration.WithLabelValues(string(m)).Observe(elapsed.Seconds())
}

func observeRun(run *Run) {
	outcome := "ok"
	switch {
	case run.Err != nil:
		outcome = "config_error"
	case run.Failed():
		outcome = "partial"
	}
	executionsTotal.WithLabelValues(outcome).Inc()
}
