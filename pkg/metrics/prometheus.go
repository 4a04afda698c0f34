// Package metrics provides Prometheus metrics for the laneup team draw service.
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

// diffBuckets covers team-sum differences, which are small integers in
// practice and grow to a few hundred only with raw 0..100 roster scores.
var diffBuckets = []float64{0, 1, 2, 3, 5, 7, 10, 15, 25, 50, 100, 250} //nolint:gochecknoglobals // bucket layout

// Manager manages all Prometheus metrics for the laneup service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Draw metrics
	draws         *prometheus.CounterVec
	drawFailures  *prometheus.CounterVec
	drawDiff      prometheus.Histogram
	balanceSwaps  prometheus.Histogram
	drawWarnings  prometheus.Counter
	drawLatency   prometheus.Histogram
	pendingDraws  prometheus.Gauge
	drawsExpired  prometheus.Counter
	fallbackDraws prometheus.Counter
	zeroScoreRole prometheus.Counter

	// Result metrics
	resultsApplied   prometheus.Counter
	resultsDuplicate prometheus.Counter
	ratingChanges    *prometheus.CounterVec

	// Storage metrics
	rosterSize        prometheus.Gauge
	historySize       prometheus.Gauge
	repositoryLatency *prometheus.HistogramVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue metrics
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System metrics
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

// Configure rebuilds the global manager on a fresh registry with opts. It must
// run before any metric is recorded or the registry is served.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "laneup",
		subsystem:        "draws",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}
	if !m.enabled {
		// Collectors exist but are never exposed.
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics on the configured registry.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.draws = m.counterVec("draws_total", "Total number of successful draws by mode", "mode")
	m.drawFailures = m.counterVec("draw_failures_total", "Total number of rejected draws by reason", "reason")
	m.drawDiff = m.histogram("draw_diff", "Final team-sum difference of successful draws", diffBuckets)
	m.balanceSwaps = m.histogram("balance_swaps", "Accepted swaps per balanced draw", []float64{0, 1, 2, 3, 4, 5})
	m.drawWarnings = m.counter("draw_warnings_total", "Draws whose final difference exceeded the acceptable maximum")
	m.drawLatency = m.histogram("draw_latency_milliseconds", "Time to produce a draw in milliseconds", m.histogramBuckets)
	m.pendingDraws = m.gauge("pending_draws", "Draws waiting for a reported result")
	m.drawsExpired = m.counter("draws_expired_total", "Pending draws evicted before a result was reported")
	m.fallbackDraws = m.counter("fallback_draws_total", "Draws served by the random split after balancing failed")
	m.zeroScoreRole = m.counter("zero_score_assignments_total", "Players drawn into a role they score 0 in")

	m.resultsApplied = m.counter("results_applied_total", "Match results applied to the roster")
	m.resultsDuplicate = m.counter("results_duplicate_total", "Match results reported more than once")
	m.ratingChanges = m.counterVec("rating_changes_total", "Role score changes by direction", "direction")

	m.rosterSize = m.gauge("roster_size", "Number of players on the roster")
	m.historySize = m.gauge("history_size", "Number of recorded matches")
	m.repositoryLatency = m.histogramVec("repository_latency_milliseconds", "Roster store operation latency in milliseconds", "op")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")

	m.queueSize = m.gauge("queue_size", "Current number of queued results")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of results enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of results dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of enqueue errors")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Queue enqueue latency in milliseconds", m.histogramBuckets)

	m.workerCount = m.gauge("worker_count", "Configured number of result workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of active workers")
	m.workerIdleCount = m.gauge("worker_idle_count", "Number of idle workers")
	m.workerMessagesPerSecond = m.gauge("worker_messages_per_second", "Average results applied per second")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", m.histogramBuckets)
	m.workerErrorRate = m.counter("worker_errors_total", "Total number of worker errors")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of operations that resulted in errors", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Draw metrics.

// RecordDraw counts a successful draw in the given mode.
func RecordDraw(mode string) {
	globalManager.draws.WithLabelValues(mode).Inc()
}

// RecordDrawFailure counts a rejected draw.
func RecordDrawFailure(reason string) {
	globalManager.drawFailures.WithLabelValues(reason).Inc()
}

// ObserveDrawDiff records the final difference of a draw.
func ObserveDrawDiff(diff int) {
	globalManager.drawDiff.Observe(float64(diff))
}

// ObserveBalanceSwaps records how many swaps a balanced draw accepted.
func ObserveBalanceSwaps(n int) {
	globalManager.balanceSwaps.Observe(float64(n))
}

// RecordDrawWarning counts a draw above the acceptable difference.
func RecordDrawWarning() {
	globalManager.drawWarnings.Inc()
}

// RecordDrawLatency records draw latency in milliseconds.
func RecordDrawLatency(latencyMs float64) {
	globalManager.drawLatency.Observe(latencyMs)
}

// UpdatePendingDraws sets the number of draws awaiting a result.
func UpdatePendingDraws(n int) {
	globalManager.pendingDraws.Set(float64(n))
}

// RecordDrawExpired counts a pending draw evicted without a result.
func RecordDrawExpired() {
	globalManager.drawsExpired.Inc()
}

// RecordFallback counts a draw served by the fallback split.
func RecordFallback() {
	globalManager.fallbackDraws.Inc()
}

// RecordZeroScoreAssignments counts players placed in a role they score 0 in.
func RecordZeroScoreAssignments(n int) {
	globalManager.zeroScoreRole.Add(float64(n))
}

// Result metrics.

// RecordResultApplied counts a result written to the roster and history.
func RecordResultApplied() {
	globalManager.resultsApplied.Inc()
}

// RecordResultDuplicate counts a repeated result report.
func RecordResultDuplicate() {
	globalManager.resultsDuplicate.Inc()
}

// RecordRatingChange counts one role score change; direction is "up",
// "down" or "flat".
func RecordRatingChange(direction string) {
	globalManager.ratingChanges.WithLabelValues(direction).Inc()
}

// RecordRatingRollback counts a score restored after a failed result.
func RecordRatingRollback() {
	globalManager.ratingChanges.WithLabelValues("rollback").Inc()
}

// Storage metrics.

// UpdateRosterSize sets the roster size.
func UpdateRosterSize(n int) {
	globalManager.rosterSize.Set(float64(n))
}

// UpdateHistorySize sets the number of recorded matches.
func UpdateHistorySize(n int) {
	globalManager.historySize.Set(float64(n))
}

// RecordRepositoryLatency records a roster store operation latency.
func RecordRepositoryLatency(op string, latencyMs float64) {
	globalManager.repositoryLatency.WithLabelValues(op).Observe(latencyMs)
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue metrics.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker metrics.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	globalManager.workerIdleCount.Set(float64(count))
}

// UpdateWorkerMessagesPerSecond sets the average results applied per second.
func UpdateWorkerMessagesPerSecond(rate float64) {
	globalManager.workerMessagesPerSecond.Set(rate)
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
