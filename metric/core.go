// Package metric manages Prometheus metrics for the pipeline: core counters
// every run updates, plus a registry for stage-specific metrics.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the core pipeline metrics.
type Metrics struct {
	DocumentsProcessed *prometheus.CounterVec
	RecordsEmitted     *prometheus.CounterVec
	RecordsDropped     *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec
	ErrorsTotal        *prometheus.CounterVec
	StoreOperations    *prometheus.CounterVec
}

// NewMetrics creates the core metric set.
func NewMetrics() *Metrics {
	return &Metrics{
		DocumentsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cleansweep",
				Subsystem: "documents",
				Name:      "processed_total",
				Help:      "Total documents processed per stage",
			},
			[]string{"stage", "status"},
		),

		RecordsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cleansweep",
				Subsystem: "records",
				Name:      "emitted_total",
				Help:      "Total records emitted per stage",
			},
			[]string{"stage"},
		),

		RecordsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cleansweep",
				Subsystem: "records",
				Name:      "dropped_total",
				Help:      "Total records dropped per stage",
			},
			[]string{"stage", "reason"},
		),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cleansweep",
				Subsystem: "stage",
				Name:      "duration_seconds",
				Help:      "Stage processing duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cleansweep",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total errors by stage and classification",
			},
			[]string{"stage", "class"},
		),

		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cleansweep",
				Subsystem: "storage",
				Name:      "operations_total",
				Help:      "Total storage operations by kind and status",
			},
			[]string{"operation", "status"},
		),
	}
}

// RecordDocument increments the processed-documents counter.
func (m *Metrics) RecordDocument(stage, status string) {
	m.DocumentsProcessed.WithLabelValues(stage, status).Inc()
}

// RecordEmitted adds emitted records for a stage.
func (m *Metrics) RecordEmitted(stage string, n int) {
	m.RecordsEmitted.WithLabelValues(stage).Add(float64(n))
}

// RecordDropped adds dropped records for a stage.
func (m *Metrics) RecordDropped(stage, reason string, n int) {
	m.RecordsDropped.WithLabelValues(stage, reason).Add(float64(n))
}

// RecordStageDuration records how long a stage took on one document.
func (m *Metrics) RecordStageDuration(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(stage, class string) {
	m.ErrorsTotal.WithLabelValues(stage, class).Inc()
}

// RecordStoreOperation increments the storage operation counter.
func (m *Metrics) RecordStoreOperation(operation, status string) {
	m.StoreOperations.WithLabelValues(operation, status).Inc()
}
