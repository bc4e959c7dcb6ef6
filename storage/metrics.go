package storage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts backend operations of a MultiStorageBackend.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates storage metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keyshares",
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Storage backend operations by backend, operation and result.",
		}, []string{"backend", "operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "keyshares",
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Duration of storage backend operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "operation"}),
	}

	for _, c := range []prometheus.Collector{m.operations, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(backend, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(backend, operation, result).Inc()
	m.duration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) skipped(backend, operation string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(backend, operation, "unavailable").Inc()
}
