// Package metrics provides Prometheus metrics for the combine service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the combine service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Ingestion Metrics - roster import pipeline
	ingestRowsValidated  *prometheus.CounterVec
	ingestPreviewLatency prometheus.Histogram
	ingestUploads        prometheus.Counter
	ingestUploadRows     prometheus.Counter
	ingestUploadErrors   prometheus.Counter

	// Numbering Metrics - allocator behavior
	numbersAssigned  prometheus.Counter
	numberFallbacks  prometheus.Counter

	// Live Entry Metrics - what really matters on event day
	submissions      *prometheus.CounterVec
	conflicts        *prometheus.CounterVec
	undos            *prometheus.CounterVec
	lockRejections   prometheus.Counter
	staleResponses   prometheus.Counter
	persistFailures  prometheus.Counter
	submitLatency    prometheus.Histogram

	// Roster Cache Metrics
	rosterPlayers        prometheus.Gauge
	rosterRefreshLatency prometheus.Histogram
	rosterLookupLatency  prometheus.Histogram

	// Store Client Metrics - outbound calls to the backend
	storeRequests       *prometheus.CounterVec
	storeRequestLatency *prometheus.HistogramVec

	// Queue Metrics - row queue feeding validation workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker Metrics - validation pool performance
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics - detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "combine",
		subsystem:        "roster",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.ingestRowsValidated = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_rows_validated_total",
		Help:      "Rows validated during preview, labeled by outcome bucket.",
	}, []string{"outcome"})

	m.ingestPreviewLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_preview_latency_ms",
		Help:      "Latency of the parse/map/validate preview step in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.ingestUploads = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_uploads_total",
		Help:      "Batch roster uploads submitted to the store.",
	})

	m.ingestUploadRows = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_upload_rows_total",
		Help:      "Player rows included in upload batches.",
	})

	m.ingestUploadErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_upload_row_errors_total",
		Help:      "Per-row errors reported back by the store on upload.",
	})

	m.numbersAssigned = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "numbers_assigned_total",
		Help:      "Player numbers assigned by the allocator.",
	})

	m.numberFallbacks = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "number_fallbacks_total",
		Help:      "Allocator fallbacks into the 9900-9999 overflow band.",
	})

	m.submissions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "entry",
		Name:      "submissions_total",
		Help:      "Score submissions, labeled by outcome.",
	}, []string{"outcome"})

	m.conflicts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "entry",
		Name:      "conflicts_total",
		Help:      "Duplicate-score conflicts, labeled by resolution.",
	}, []string{"resolution"})

	m.undos = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "entry",
		Name:      "undos_total",
		Help:      "Undo attempts, labeled by outcome.",
	}, []string{"outcome"})

	m.lockRejections = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "entry",
		Name:      "lock_rejections_total",
		Help:      "Submissions rejected because the drill was locked.",
	})

	m.staleResponses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "entry",
		Name:      "stale_responses_total",
		Help:      "Store responses discarded because a newer action superseded them.",
	})

	m.persistFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "entry",
		Name:      "persist_failures_total",
		Help:      "Best-effort session persistence writes that failed.",
	})

	m.submitLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "entry",
		Name:      "submit_latency_ms",
		Help:      "Latency of score submission round trips in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.rosterPlayers = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "players",
		Help:      "Players currently held in the roster cache.",
	})

	m.rosterRefreshLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refresh_latency_ms",
		Help:      "Latency of full roster cache refreshes in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.rosterLookupLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "lookup_latency_ms",
		Help:      "Latency of roster cache lookups in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.storeRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "requests_total",
		Help:      "Outbound store requests, labeled by operation and outcome.",
	}, []string{"op", "outcome"})

	m.storeRequestLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "request_latency_ms",
		Help:      "Latency of outbound store requests in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"op"})

	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "size",
		Help:      "Current number of queued row jobs.",
	})

	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "capacity",
		Help:      "Configured capacity of the row queue.",
	})

	m.queueUtilization = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "utilization",
		Help:      "Row queue utilization ratio (0-1).",
	})

	m.queueEnqueueRate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "enqueue_total",
		Help:      "Row jobs enqueued.",
	})

	m.queueDequeueRate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "dequeue_total",
		Help:      "Row jobs dequeued.",
	})

	m.queueEnqueueErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "enqueue_errors_total",
		Help:      "Row jobs rejected at enqueue time.",
	})

	m.workerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "worker",
		Name:      "count",
		Help:      "Configured validation worker count.",
	})

	m.workerProcessingLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "worker",
		Name:      "processing_latency_ms",
		Help:      "Latency of per-row validation in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "worker",
		Name:      "errors_total",
		Help:      "Validation worker errors.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests, labeled by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	m.errorRateByComponent = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "errors",
		Name:      "by_component_total",
		Help:      "Errors labeled by component and reason.",
	}, []string{"component", "reason"})

	m.errorRateByType = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "errors",
		Name:      "by_type_total",
		Help:      "Errors labeled by type and severity.",
	}, []string{"type", "severity"})

	m.errorRateByEndpoint = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "errors",
		Name:      "by_endpoint_total",
		Help:      "Errors labeled by endpoint, method and type.",
	}, []string{"endpoint", "method", "type"})

	m.errorLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "errors",
		Name:      "latency_ms",
		Help:      "Latency of failed operations in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"component", "type"})

	m.systemMemoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_bytes",
		Help:      "Current heap allocation in bytes.",
	})

	m.systemGoroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Current number of goroutines.",
	})
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers delegating to the global manager.

// RecordRowValidated counts one validated row by outcome bucket
// ("clean", "soft", "critical").
func RecordRowValidated(outcome string) {
	globalManager.ingestRowsValidated.WithLabelValues(outcome).Inc()
}

// RecordPreviewLatency records the latency of one preview pass.
func RecordPreviewLatency(ms float64) {
	globalManager.ingestPreviewLatency.Observe(ms)
}

// RecordUpload counts one batch upload with its row count.
func RecordUpload(rows int) {
	globalManager.ingestUploads.Inc()
	globalManager.ingestUploadRows.Add(float64(rows))
}

// RecordUploadRowErrors counts per-row errors reported by the store.
func RecordUploadRowErrors(n int) {
	globalManager.ingestUploadErrors.Add(float64(n))
}

// RecordNumberAssigned counts one allocator assignment.
func RecordNumberAssigned() {
	globalManager.numbersAssigned.Inc()
}

// RecordNumberFallback counts one overflow-band fallback.
func RecordNumberFallback() {
	globalManager.numberFallbacks.Inc()
}

// RecordSubmission counts one submission by outcome
// ("ok", "failed", "conflict", "locked", "rejected").
func RecordSubmission(outcome string) {
	globalManager.submissions.WithLabelValues(outcome).Inc()
}

// RecordConflict counts one conflict resolution ("keep", "replace").
func RecordConflict(resolution string) {
	globalManager.conflicts.WithLabelValues(resolution).Inc()
}

// RecordUndo counts one undo attempt by outcome ("ok", "failed").
func RecordUndo(outcome string) {
	globalManager.undos.WithLabelValues(outcome).Inc()
}

// RecordLockRejection counts one submit rejected by a drill lock.
func RecordLockRejection() {
	globalManager.lockRejections.Inc()
}

// RecordStaleResponse counts one discarded stale store response.
func RecordStaleResponse() {
	globalManager.staleResponses.Inc()
}

// RecordPersistFailure counts one failed best-effort persistence write.
func RecordPersistFailure() {
	globalManager.persistFailures.Inc()
}

// RecordSubmitLatency records one submission round trip.
func RecordSubmitLatency(ms float64) {
	globalManager.submitLatency.Observe(ms)
}

// UpdateRosterPlayers sets the roster cache size gauge.
func UpdateRosterPlayers(n int) {
	globalManager.rosterPlayers.Set(float64(n))
}

// RecordRosterRefreshLatency records one full roster refresh.
func RecordRosterRefreshLatency(ms float64) {
	globalManager.rosterRefreshLatency.Observe(ms)
}

// RecordRosterLookupLatency records one roster lookup.
func RecordRosterLookupLatency(ms float64) {
	globalManager.rosterLookupLatency.Observe(ms)
}

// RecordStoreRequest counts one outbound store call.
func RecordStoreRequest(op, outcome string) {
	globalManager.storeRequests.WithLabelValues(op, outcome).Inc()
}

// RecordStoreRequestLatency records the latency of one outbound store call.
func RecordStoreRequestLatency(op string, ms float64) {
	globalManager.storeRequestLatency.WithLabelValues(op).Observe(ms)
}

// UpdateQueueSize sets the row queue size gauge.
func UpdateQueueSize(n int) {
	globalManager.queueSize.Set(float64(n))
}

// UpdateQueueCapacity sets the row queue capacity gauge.
func UpdateQueueCapacity(n int) {
	globalManager.queueCapacity.Set(float64(n))
}

// UpdateQueueUtilization sets the row queue utilization gauge.
func UpdateQueueUtilization(ratio float64) {
	globalManager.queueUtilization.Set(ratio)
}

// RecordQueueEnqueue counts one enqueued row job.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue counts one dequeued row job.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError counts one rejected enqueue.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the validation worker count gauge.
func UpdateWorkerCount(n int) {
	globalManager.workerCount.Set(float64(n))
}

// RecordWorkerProcessingLatency records one row validation.
func RecordWorkerProcessingLatency(ms float64) {
	globalManager.workerProcessingLatency.Observe(ms)
}

// RecordWorkerError counts one validation worker error.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records the duration of one HTTP request.
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

// RecordErrorByComponent counts one error for a component.
func RecordErrorByComponent(component, reason string) {
	globalManager.errorRateByComponent.WithLabelValues(component, reason).Inc()
}

// RecordErrorByType counts one error by type and severity.
func RecordErrorByType(errType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errType, severity).Inc()
}

// RecordErrorByEndpoint counts one error for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errType).Inc()
}

// RecordErrorLatency records the latency of one failed operation.
func RecordErrorLatency(component, errType string, ms float64) {
	globalManager.errorLatency.WithLabelValues(component, errType).Observe(ms)
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutines sets the goroutine count gauge.
func UpdateSystemGoroutines(n int) {
	globalManager.systemGoroutineCount.Set(float64(n))
}
