// Package observability carries the prometheus metrics and the gin
// middleware shared by the coordinator service and capability nodes.
package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loomctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "loomctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	pipelineSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loomctl",
			Subsystem: "pipeline",
			Name:      "steps_total",
			Help:      "Executed pipeline steps by final status.",
		},
		[]string{"capability", "status"},
	)
	pipelineStepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "loomctl",
			Subsystem: "pipeline",
			Name:      "step_duration_seconds",
			Help:      "Pipeline step duration in seconds, retries included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"capability", "status"},
	)
	coordinatorRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loomctl",
			Subsystem: "coordinator",
			Name:      "runs_total",
			Help:      "Coordinated runs by outcome.",
		},
		[]string{"outcome"},
	)
	oracleCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loomctl",
			Subsystem: "oracle",
			Name:      "calls_total",
			Help:      "Planning oracle calls by phase and status.",
		},
		[]string{"phase", "status"},
	)
	oracleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "loomctl",
			Subsystem: "oracle",
			Name:      "call_duration_seconds",
			Help:      "Planning oracle call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"phase", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			pipelineSteps,
			pipelineStepDuration,
			coordinatorRuns,
			oracleCalls,
			oracleDuration,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordStep(capability, status string, duration time.Duration) {
	RegisterMetrics()
	pipelineSteps.WithLabelValues(capability, status).Inc()
	pipelineStepDuration.WithLabelValues(capability, status).Observe(duration.Seconds())
}

func RecordRun(outcome string) {
	RegisterMetrics()
	coordinatorRuns.WithLabelValues(outcome).Inc()
}

func RecordOracleCall(phase, status string, duration time.Duration) {
	RegisterMetrics()
	oracleCalls.WithLabelValues(phase, status).Inc()
	oracleDuration.WithLabelValues(phase, status).Observe(duration.Seconds())
}
