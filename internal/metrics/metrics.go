// Package metrics exposes Prometheus collectors for model lifecycle and
// task execution. A nil *Metrics is valid and records nothing, so callers
// never need to guard instrumentation sites.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors.
type Metrics struct {
	registry *prometheus.Registry

	tasksTotal        *prometheus.CounterVec
	taskDuration      *prometheus.HistogramVec
	tasksRunning      prometheus.Gauge
	modelLoads        prometheus.Counter
	modelEvictions    prometheus.Counter
	modelsActive      prometheus.Gauge
	inferenceDuration *prometheus.HistogramVec
}

// New creates and registers the service collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mlagent_tasks_total",
			Help: "Terminal task count by type and status.",
		}, []string{"type", "status"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mlagent_task_duration_seconds",
			Help:    "Task execution duration by type.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"type"}),
		tasksRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mlagent_tasks_running",
			Help: "Tasks currently executing.",
		}),
		modelLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mlagent_model_loads_total",
			Help: "Model weight loads.",
		}),
		modelEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mlagent_model_evictions_total",
			Help: "Models evicted from the active set.",
		}),
		modelsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mlagent_models_active",
			Help: "Models resident in the active set.",
		}),
		inferenceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mlagent_inference_duration_seconds",
			Help:    "Backend inference call duration by model.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"model"}),
	}

	registry.MustRegister(
		m.tasksTotal,
		m.taskDuration,
		m.tasksRunning,
		m.modelLoads,
		m.modelEvictions,
		m.modelsActive,
		m.inferenceDuration,
	)

	return m
}

// Handler returns the exposition endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TaskFinished records a terminal task outcome.
func (m *Metrics) TaskFinished(taskType, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.tasksTotal.WithLabelValues(taskType, status).Inc()
	m.taskDuration.WithLabelValues(taskType).Observe(duration.Seconds())
}

// TaskStarted increments the running task gauge.
func (m *Metrics) TaskStarted() {
	if m == nil {
		return
	}
	m.tasksRunning.Inc()
}

// TaskStopped decrements the running task gauge.
func (m *Metrics) TaskStopped() {
	if m == nil {
		return
	}
	m.tasksRunning.Dec()
}

// ModelLoaded records a model weight load.
func (m *Metrics) ModelLoaded() {
	if m == nil {
		return
	}
	m.modelLoads.Inc()
}

// ModelEvicted records an eviction from the active set.
func (m *Metrics) ModelEvicted() {
	if m == nil {
		return
	}
	m.modelEvictions.Inc()
}

// ActiveModels sets the active set gauge.
func (m *Metrics) ActiveModels(count int) {
	if m == nil {
		return
	}
	m.modelsActive.Set(float64(count))
}

// InferenceObserved records a backend inference call duration.
func (m *Metrics) InferenceObserved(model string, duration time.Duration) {
	if m == nil {
		return
	}
	m.inferenceDuration.WithLabelValues(model).Observe(duration.Seconds())
}
