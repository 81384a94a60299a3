// Package metrics provides Prometheus metrics for the rubik linkage engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the linkage engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Linkage outcome metrics
	referencesScanned   prometheus.Counter
	referencesMatched   prometheus.Counter
	referencesUnmatched prometheus.Counter
	ambiguousMatches    prometheus.Counter
	strategyHits        *prometheus.CounterVec
	matchRate           prometheus.Gauge
	distinctNames       prometheus.Gauge
	rosterSize          prometheus.Gauge
	passDuration        prometheus.Histogram
	passesTotal         *prometheus.CounterVec

	// Storage metrics
	groupsWritten     prometheus.Counter
	groupLoadErrors   prometheus.Counter
	groupWriteErrors  prometheus.Counter
	recordsMerged     prometheus.Counter
	recordsDiscarded  prometheus.Counter
	storageOpDuration *prometheus.HistogramVec

	// Resolution pipeline metrics
	queueSize          prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	resolveLatency     prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
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
		namespace:        "rubik",
		subsystem:        "linker",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.referencesScanned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "references_scanned_total",
		Help:      "Reference records with a non-empty professor name seen by linkage passes",
	})

	m.referencesMatched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "references_matched_total",
		Help:      "Reference records linked to a roster entry",
	})

	m.referencesUnmatched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "references_unmatched_total",
		Help:      "Reference records left without a roster entry",
	})

	m.ambiguousMatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ambiguous_matches_total",
		Help:      "Distinct names resolved by tie-breaking between several candidates",
	})

	m.strategyHits = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "strategy_hits_total",
			Help:      "Distinct names resolved per matching strategy",
		},
		[]string{"strategy"},
	)

	m.matchRate = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_rate_ratio",
		Help:      "Matched over total references for the last completed pass",
	})

	m.distinctNames = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "distinct_names",
		Help:      "Distinct raw names resolved by the last pass",
	})

	m.rosterSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "roster_size",
		Help:      "Canonical records in the loaded roster",
	})

	m.passDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pass_duration_milliseconds",
		Help:      "Wall time of a complete linkage pass in milliseconds",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	m.passesTotal = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "passes_total",
			Help:      "Linkage and consolidation passes by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	m.groupsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "groups_written_total",
		Help:      "Reference groups persisted after a field change",
	})

	m.groupLoadErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "group_load_errors_total",
		Help:      "Reference groups skipped because they failed to load",
	})

	m.groupWriteErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "group_write_errors_total",
		Help:      "Reference groups that failed to persist",
	})

	m.recordsMerged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "observations_merged_total",
		Help:      "Raw observations folded into another canonical record",
	})

	m.recordsDiscarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "observations_discarded_total",
		Help:      "Raw observations dropped for having too few ratings",
	})

	m.storageOpDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "storage_operation_duration_milliseconds",
			Help:      "Storage collaborator operation latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"backend", "operation"},
	)

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Names waiting in the resolution queue",
	})

	m.queueEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_total",
		Help:      "Names enqueued for resolution",
	})

	m.queueDequeued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeue_total",
		Help:      "Names handed to resolution workers",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Names rejected by the resolution queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Resolution workers started by the last pass",
	})

	m.resolveLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolve_latency_microseconds",
		Help:      "Latency of resolving one distinct name in microseconds",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Errors by component and type",
		},
		[]string{"component", "error_type"},
	)
}

// RecordPass records the outcome counters of one linkage pass.
func RecordPass(scanned, matched, unmatched, ambiguous, distinct int) {
	globalManager.referencesScanned.Add(float64(scanned))
	globalManager.referencesMatched.Add(float64(matched))
	globalManager.referencesUnmatched.Add(float64(unmatched))
	globalManager.ambiguousMatches.Add(float64(ambiguous))
	globalManager.distinctNames.Set(float64(distinct))
}

// RecordStrategyHit increments the counter for the strategy that resolved a name.
func RecordStrategyHit(strategy string) {
	globalManager.strategyHits.WithLabelValues(strategy).Inc()
}

// UpdateMatchRate sets the match rate of the last pass.
func UpdateMatchRate(rate float64) {
	globalManager.matchRate.Set(rate)
}

// UpdateRosterSize sets the number of canonical records loaded.
func UpdateRosterSize(size int) {
	globalManager.rosterSize.Set(float64(size))
}

// RecordPassDuration records a pass wall time in milliseconds.
func RecordPassDuration(ms float64) {
	globalManager.passDuration.Observe(ms)
}

// RecordPassOutcome counts a finished pass of the given kind ("link", "consolidate").
func RecordPassOutcome(kind, outcome string) {
	globalManager.passesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordGroupWritten increments the persisted groups counter.
func RecordGroupWritten() {
	globalManager.groupsWritten.Inc()
}

// RecordGroupLoadError increments the skipped groups counter.
func RecordGroupLoadError() {
	globalManager.groupLoadErrors.Inc()
}

// RecordGroupWriteError increments the failed writes counter.
func RecordGroupWriteError() {
	globalManager.groupWriteErrors.Inc()
}

// RecordConsolidation records how many observations were merged and discarded.
func RecordConsolidation(merged, discarded int) {
	globalManager.recordsMerged.Add(float64(merged))
	globalManager.recordsDiscarded.Add(float64(discarded))
}

// RecordStorageOperation records a storage call latency in milliseconds.
func RecordStorageOperation(backend, operation string, ms float64) {
	globalManager.storageOpDuration.WithLabelValues(backend, operation).Observe(ms)
}

// UpdateQueueSize sets the resolution queue backlog.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueEnqueue increments the enqueued names counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeued names counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the rejected names counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the number of resolution workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordResolveLatency records the latency of one resolution in microseconds.
func RecordResolveLatency(us float64) {
	globalManager.resolveLatency.Observe(us)
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent increments the error counter for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom registry for serving metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
