// Package metrics provides Prometheus metrics for the auscript site.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the site.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Page and submission metrics
	pageRenders        *prometheus.CounterVec
	submissions        *prometheus.CounterVec
	submissionsDropped *prometheus.CounterVec
	submissionsHandled prometheus.Counter

	// Queue Metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejected    prometheus.Counter

	// Worker Metrics
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "auscript",
		subsystem:        "site",
		histogramBuckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		enabled:          true,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.pageRenders = auto.NewCounterVec(
		m.counterOpts("page_renders_total", "Template renders by page and result"),
		[]string{"page", "result"},
	)
	m.submissions = auto.NewCounterVec(
		m.counterOpts("contact_submissions_total", "Contact submissions received by body kind"),
		[]string{"kind"},
	)
	m.submissionsDropped = auto.NewCounterVec(
		m.counterOpts("contact_submissions_dropped_total", "Contact submissions not handed to the observer"),
		[]string{"reason"},
	)
	m.submissionsHandled = auto.NewCounter(
		m.counterOpts("contact_submissions_observed_total", "Contact submissions written to the sink"),
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of queued submissions"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum number of queued submissions"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue size divided by capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Submissions accepted by the queue"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Submissions handed to workers"))
	m.queueRejected = auto.NewCounter(m.counterOpts("queue_rejected_total", "Submissions rejected by a full or closed queue"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Number of observer workers"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Time spent handing one submission to the sink", m.histogramBuckets),
	)
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Sink failures"))

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that ended in an error", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordHTTPRequest records a finished HTTP request with its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordPageRender counts a template render; result is "ok" or "error".
func (m *Manager) RecordPageRender(page, result string) {
	if !m.enabled {
		return
	}
	m.pageRenders.WithLabelValues(page, result).Inc()
}

// RecordSubmission counts a decoded contact submission by kind.
func (m *Manager) RecordSubmission(kind string) {
	if !m.enabled {
		return
	}
	m.submissions.WithLabelValues(kind).Inc()
}

// RecordSubmissionDropped counts a submission the observer could not take.
func (m *Manager) RecordSubmissionDropped(reason string) {
	if !m.enabled {
		return
	}
	m.submissionsDropped.WithLabelValues(reason).Inc()
}

// RecordSubmissionObserved counts a submission written to the sink.
func (m *Manager) RecordSubmissionObserved() {
	if !m.enabled {
		return
	}
	m.submissionsHandled.Inc()
}

// UpdateQueue sets the queue gauges from the current size and capacity.
func (m *Manager) UpdateQueue(size, capacity int) {
	if !m.enabled {
		return
	}
	m.queueSize.Set(float64(size))
	m.queueCapacity.Set(float64(capacity))
	if capacity > 0 {
		m.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordQueueEnqueue increments the enqueue counter.
func (m *Manager) RecordQueueEnqueue() {
	if m.enabled {
		m.queueEnqueued.Inc()
	}
}

// RecordQueueDequeue increments the dequeue counter.
func (m *Manager) RecordQueueDequeue() {
	if m.enabled {
		m.queueDequeued.Inc()
	}
}

// RecordQueueRejected increments the rejected counter.
func (m *Manager) RecordQueueRejected() {
	if m.enabled {
		m.queueRejected.Inc()
	}
}

// UpdateWorkerCount sets the current worker count.
func (m *Manager) UpdateWorkerCount(count int) {
	if m.enabled {
		m.workerCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency records worker processing latency.
func (m *Manager) RecordWorkerProcessingLatency(latencyMs float64) {
	if m.enabled {
		m.workerProcessingLatency.Observe(latencyMs)
	}
}

// RecordWorkerError increments the worker error counter.
func (m *Manager) RecordWorkerError() {
	if m.enabled {
		m.workerErrors.Inc()
	}
}

// RecordErrorByComponent records an error with component and type labels.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	if m.enabled {
		m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByType records an error with type and severity labels.
func (m *Manager) RecordErrorByType(errorType, severity string) {
	if m.enabled {
		m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m.enabled {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func (m *Manager) RecordErrorLatency(component, errorType string, latencyMs float64) {
	if m.enabled {
		m.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
	}
}

// UpdateSystem sets memory and goroutine gauges.
func (m *Manager) UpdateSystem(memBytes uint64, goroutines int) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) {
	if m.enabled {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// Package-level helpers record on the global manager.

// RecordHTTPRequest records an HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordPageRender counts a template render on the global manager.
func RecordPageRender(page, result string) { globalManager.RecordPageRender(page, result) }

// RecordSubmission counts a submission on the global manager.
func RecordSubmission(kind string) { globalManager.RecordSubmission(kind) }

// RecordSubmissionDropped counts a dropped submission on the global manager.
func RecordSubmissionDropped(reason string) { globalManager.RecordSubmissionDropped(reason) }

// RecordSubmissionObserved counts an observed submission on the global manager.
func RecordSubmissionObserved() { globalManager.RecordSubmissionObserved() }

// UpdateQueue sets queue gauges on the global manager.
func UpdateQueue(size, capacity int) { globalManager.UpdateQueue(size, capacity) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.RecordQueueEnqueue() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.RecordQueueDequeue() }

// RecordQueueRejected increments the rejected counter.
func RecordQueueRejected() { globalManager.RecordQueueRejected() }

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) { globalManager.UpdateWorkerCount(count) }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.RecordWorkerProcessingLatency(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.RecordWorkerError() }

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.RecordErrorByComponent(component, errorType)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.RecordErrorByType(errorType, severity)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.RecordErrorLatency(component, errorType, latencyMs)
}

// UpdateSystem sets memory and goroutine gauges.
func UpdateSystem(memBytes uint64, goroutines int) { globalManager.UpdateSystem(memBytes, goroutines) }

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.RecordSystemGCPauseTime(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
