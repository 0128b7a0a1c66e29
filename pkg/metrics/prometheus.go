package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds. Batches of 100k candidates against a few
// thousand draws take tens to hundreds of milliseconds.
var defaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // bucket layout

// Manager owns every Prometheus collector of a ranking run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Scan
	candidatesScored prometheus.Counter
	candidatesTotal  prometheus.Gauge
	batchesScored    prometheus.Counter
	batchLatency     prometheus.Histogram
	evictions        prometheus.Counter
	historyDraws     prometheus.Gauge
	droppedRows      prometheus.Counter

	// Queue and workers
	queueDepth    prometheus.Gauge
	queueCapacity prometheus.Gauge
	activeWorkers prometheus.Gauge

	// Reduction and filtering
	mergeLatency     prometheus.Histogram
	gapFilterLatency prometheus.Histogram
	gapFiltered      *prometheus.CounterVec
	survivors        *prometheus.GaugeVec
	runDuration      prometheus.Gauge

	// Collaborators
	coordinationFailures *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "comborank",
		subsystem:        "ranking",
		histogramBuckets: defaultBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.candidatesScored = m.counter("candidates_scored_total", "Candidates scored against the history")
	m.candidatesTotal = m.gauge("candidates", "Size of the candidate space of the current run")
	m.batchesScored = m.counter("batches_scored_total", "Candidate batches scored")
	m.batchLatency = m.histogram("batch_latency_milliseconds", "Time to score one batch")
	m.evictions = m.counter("topk_evictions_total", "Entries displaced from bounded top-k heaps")
	m.historyDraws = m.gauge("history_draws", "Draws in the encoded history")
	m.droppedRows = m.counter("dropped_rows_total", "Input rows dropped as malformed")

	m.queueDepth = m.gauge("queue_depth", "Batches waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum batches the queue holds")
	m.activeWorkers = m.gauge("workers_active", "Workers currently scoring")

	m.mergeLatency = m.histogram("merge_latency_milliseconds", "Time to merge worker accumulators")
	m.gapFilterLatency = m.histogram("gap_filter_latency_milliseconds", "Time to gap-filter one tier")
	m.runDuration = m.gauge("last_run_duration_seconds", "Wall time of the last completed run")

	m.gapFiltered = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "gap_filtered_total",
		Help: "Ranked entries removed by the max-gap ceiling",
	}, []string{"tier"})

	m.survivors = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "survivors",
		Help: "Rows reported per tier after filtering",
	}, []string{"tier"})

	m.coordinationFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "coordination_failures_total",
		Help: "Failed attempts to release or reopen the output file in its editor",
	}, []string{"action"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_requests_total",
		Help: "Status server requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "Status server request duration",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "errors_total",
		Help: "Errors by component and type",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap memory in use")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Live goroutines")
}

// Package-level recorders on the global manager.

func RecordCandidatesScored(n int) { globalManager.candidatesScored.Add(float64(n)) }

func UpdateCandidatesTotal(n int) { globalManager.candidatesTotal.Set(float64(n)) }

// RecordBatchScored counts a batch and observes its latency.
func RecordBatchScored(latencyMs float64) {
	globalManager.batchesScored.Inc()
	globalManager.batchLatency.Observe(latencyMs)
}

func RecordEvictions(n int64) { globalManager.evictions.Add(float64(n)) }

func UpdateHistorySize(draws int) { globalManager.historyDraws.Set(float64(draws)) }

func RecordDroppedRows(n int) { globalManager.droppedRows.Add(float64(n)) }

func UpdateQueueDepth(n int) { globalManager.queueDepth.Set(float64(n)) }

func UpdateQueueCapacity(n int) { globalManager.queueCapacity.Set(float64(n)) }

func IncActiveWorkers() { globalManager.activeWorkers.Inc() }

func DecActiveWorkers() { globalManager.activeWorkers.Dec() }

func RecordMergeLatency(latencyMs float64) { globalManager.mergeLatency.Observe(latencyMs) }

// RecordGapFilter observes one tier's filter pass and how many entries it removed.
func RecordGapFilter(tier string, removed, kept int, latencyMs float64) {
	globalManager.gapFilterLatency.Observe(latencyMs)
	globalManager.gapFiltered.WithLabelValues(tier).Add(float64(removed))
	globalManager.survivors.WithLabelValues(tier).Set(float64(kept))
}

func RecordRunDuration(seconds float64) { globalManager.runDuration.Set(seconds) }

func RecordCoordinationFailure(action string) {
	globalManager.coordinationFailures.WithLabelValues(action).Inc()
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the registry the global manager reports to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
