// Package metrics holds the Prometheus collectors of the admin core.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "colladmin"

// Data access facade metrics.
var (
	FacadeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "facade",
			Name:      "requests_total",
			Help:      "Backend round trips by collection, operation and outcome",
		},
		[]string{"collection", "operation", "outcome"},
	)

	FacadeRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "facade",
			Name:      "request_duration_seconds",
			Help:      "Backend round trip duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"collection", "operation"},
	)
)

// CRUD orchestrator metrics.
var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crud",
			Name:      "submissions_total",
			Help:      "Mutation submissions by mode and result",
		},
		[]string{"mode", "result"}, // result: ok / invalid / rejected / failed
	)

	InferenceFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "fallbacks_total",
			Help:      "Fields that resolved to text through the fallback rule",
		},
	)
)

// Outcome label values for facade metrics.
const (
	OutcomeOK = "ok"
)

var coreMetricsRegistered bool

// CoreCollectors returns the facade, orchestrator and inference collectors.
func CoreCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		FacadeRequestsTotal,
		FacadeRequestDuration,
		SubmissionsTotal,
		InferenceFallbacksTotal,
	}
}

// RegisterCoreMetrics registers the core collectors on the default
// registry. Must be called once from main.
func RegisterCoreMetrics() {
	if coreMetricsRegistered {
		return
	}
	prometheus.MustRegister(CoreCollectors()...)
	coreMetricsRegistered = true
}
