package colladmin

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/colladmin/internal/metrics"
)

// sdkMetrics holds the per-operation SDK collectors. The facade,
// orchestrator and inference collectors of the core go on the same
// registerer.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "colladmin",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK operations by collection, operation and status.",
		}, []string{"collection", "operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "colladmin",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"collection", "operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	for _, c := range metrics.CoreCollectors() {
		if err := registerShared(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// registerOrReuse registers a collector, or points c at the collector a
// previous Client already registered under the same name.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	var are prometheus.AlreadyRegisteredError
	switch {
	case err == nil:
		return nil
	case !errors.As(err, &are):
		return fmt.Errorf("colladmin: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("colladmin: metric already registered with incompatible type: %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// registerShared registers a process-wide core collector. The core
// collectors are package singletons, so finding one already registered is
// only fine when it is that same instance.
func registerShared(reg prometheus.Registerer, c prometheus.Collector) error {
	err := reg.Register(c)
	var are prometheus.AlreadyRegisteredError
	if err == nil || (errors.As(err, &are) && are.ExistingCollector == c) {
		return nil
	}
	return fmt.Errorf("colladmin: register core metric: %w", err)
}

// observer provides logging and metrics for SDK operations.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(
	collection, op string, start time.Time, err error,
) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(collection, op, statusOf(err)).Inc()
		o.metrics.duration.WithLabelValues(collection, op).Observe(
			dur.Seconds(),
		)
	}

	if o.logger != nil {
		if err != nil {
			o.logger.Warn("operation failed",
				"collection", collection,
				"op", op,
				"duration", dur,
				"error", err,
			)
		} else {
			o.logger.Debug("operation completed",
				"collection", collection,
				"op", op,
				"duration", dur,
			)
		}
	}
}

// statusOf maps an operation error to a low-cardinality label.
func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrBusy), errors.Is(err, ErrInvalidTransition):
		return "rejected"
	default:
		return "error"
	}
}
