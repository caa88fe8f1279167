package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360/cleansweep/errors"
)

// Registrar is the interface stages use to register their own metrics.
type Registrar interface {
	RegisterCounter(stage, name string, counter prometheus.Counter) error
	RegisterGauge(stage, name string, gauge prometheus.Gauge) error
	RegisterCounterVec(stage, name string, vec *prometheus.CounterVec) error
	RegisterHistogramVec(stage, name string, vec *prometheus.HistogramVec) error
	Unregister(stage, name string) bool
}

// MetricsRegistry owns the Prometheus registry, the core metrics, and any
// stage-registered collectors.
type MetricsRegistry struct {
	prometheusRegistry *prometheus.Registry
	core               *Metrics
	registered         map[string]prometheus.Collector
	mu                 sync.Mutex
}

// NewMetricsRegistry creates a registry with the core pipeline metrics and
// Go runtime collectors pre-registered.
func NewMetricsRegistry() *MetricsRegistry {
	r := &MetricsRegistry{
		prometheusRegistry: prometheus.NewRegistry(),
		core:               NewMetrics(),
		registered:         make(map[string]prometheus.Collector),
	}

	r.prometheusRegistry.MustRegister(
		r.core.DocumentsProcessed,
		r.core.RecordsEmitted,
		r.core.RecordsDropped,
		r.core.StageDuration,
		r.core.ErrorsTotal,
		r.core.StoreOperations,
	)
	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the pipeline's core metric set.
func (r *MetricsRegistry) CoreMetrics() *Metrics {
	return r.core
}

// register adds a collector under "stage.name", rejecting duplicates both in
// this registry's bookkeeping and in Prometheus itself.
func (r *MetricsRegistry) register(stage, name, method string, c prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", stage, name)
	if _, exists := r.registered[key]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("metric %s already registered for stage %s", name, stage),
			"MetricsRegistry", method, "duplicate metric registration")
	}

	if err := r.prometheusRegistry.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if stderrors.As(err, &already) {
			return errors.WrapInvalid(err, "MetricsRegistry", method,
				fmt.Sprintf("prometheus conflict for metric %s", name))
		}
		return errors.WrapFatal(err, "MetricsRegistry", method, "register collector")
	}

	r.registered[key] = c
	return nil
}

// RegisterCounter registers a counter for a stage.
func (r *MetricsRegistry) RegisterCounter(stage, name string, counter prometheus.Counter) error {
	return r.register(stage, name, "RegisterCounter", counter)
}

// RegisterGauge registers a gauge for a stage.
func (r *MetricsRegistry) RegisterGauge(stage, name string, gauge prometheus.Gauge) error {
	return r.register(stage, name, "RegisterGauge", gauge)
}

// RegisterCounterVec registers a counter vector for a stage.
func (r *MetricsRegistry) RegisterCounterVec(stage, name string, vec *prometheus.CounterVec) error {
	return r.register(stage, name, "RegisterCounterVec", vec)
}

// RegisterHistogramVec registers a histogram vector for a stage.
func (r *MetricsRegistry) RegisterHistogramVec(stage, name string, vec *prometheus.HistogramVec) error {
	return r.register(stage, name, "RegisterHistogramVec", vec)
}

// Unregister removes a stage metric. Returns false if it was not registered.
func (r *MetricsRegistry) Unregister(stage, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", stage, name)
	c, exists := r.registered[key]
	if !exists {
		return false
	}
	if !r.prometheusRegistry.Unregister(c) {
		return false
	}
	delete(r.registered, key)
	return true
}
