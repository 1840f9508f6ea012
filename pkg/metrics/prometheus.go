// Package metrics provides Prometheus metrics for the rankr ranking service.
package metrics

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
	nanosPerMilli          = 1e6
)

// Manager owns every Prometheus collector used by rankr.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Pipeline runs
	runsTotal   *prometheus.CounterVec
	runDuration prometheus.Histogram

	// Sort passes
	passesTotal        *prometheus.CounterVec
	passDuration       *prometheus.HistogramVec
	chunkSortDuration  *prometheus.HistogramVec
	mergeDuration      prometheus.Histogram
	recordsSorted      prometheus.Counter
	chunksDispatched   prometheus.Counter
	workerFailures     *prometheus.CounterVec
	workerActiveCount  prometheus.Gauge
	globalMean         prometheus.Gauge
	recordsScored      prometheus.Counter
	scoringDuration    prometheus.Histogram
	duplicateNames     prometheus.Counter
	csvRowsRead        prometheus.Counter
	csvRowsSkipped     *prometheus.CounterVec
	leaderboardSize    prometheus.Gauge
	snapshotsPublished prometheus.Counter
	snapshotLastUnix   prometheus.Gauge
	publishDuration    prometheus.Histogram
	queryDuration      prometheus.Histogram

	// Task queue
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueEnqueueTotal  prometheus.Counter
	queueDequeueTotal  prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry the
// collectors go to a private registry so several managers can coexist.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rankr",
		subsystem:        "ranking",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		refreshInterval:  defaultRefreshInterval,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval is how often the system collector samples the runtime.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounterVec(m.counterOpts("runs_total", "Pipeline runs by outcome"), []string{"outcome"})
	m.runDuration = auto.NewHistogram(m.histogramOpts("run_duration_milliseconds", "Wall time of a full pipeline run"))

	m.passesTotal = auto.NewCounterVec(m.counterOpts("passes_total", "Parallel sort passes by algorithm and outcome"), []string{"algorithm", "outcome"})
	m.passDuration = auto.NewHistogramVec(m.histogramOpts("pass_duration_milliseconds", "Wall time of a parallel sort pass"), []string{"algorithm"})
	m.chunkSortDuration = auto.NewHistogramVec(m.histogramOpts("chunk_sort_duration_milliseconds", "Time a worker spent sorting one chunk"), []string{"algorithm"})
	m.mergeDuration = auto.NewHistogram(m.histogramOpts("merge_duration_milliseconds", "Time spent merging sorted runs"))
	m.recordsSorted = auto.NewCounter(m.counterOpts("records_sorted_total", "Records passed through a sort pass"))
	m.chunksDispatched = auto.NewCounter(m.counterOpts("chunks_dispatched_total", "Chunks handed to workers"))
	m.workerFailures = auto.NewCounterVec(m.counterOpts("worker_failures_total", "Worker failures by reason"), []string{"reason"})
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Workers currently sorting a chunk"))

	m.globalMean = auto.NewGauge(m.gaugeOpts("global_mean", "Reference mean used by the last scoring step"))
	m.recordsScored = auto.NewCounter(m.counterOpts("records_scored_total", "Records that received a confidence score"))
	m.scoringDuration = auto.NewHistogram(m.histogramOpts("scoring_duration_milliseconds", "Time spent scoring a collection"))
	m.duplicateNames = auto.NewCounter(m.counterOpts("duplicate_names_total", "Repeated names skipped by unique leaderboards"))

	m.csvRowsRead = auto.NewCounter(m.counterOpts("csv_rows_read_total", "CSV rows accepted as records"))
	m.csvRowsSkipped = auto.NewCounterVec(m.counterOpts("csv_rows_skipped_total", "CSV rows skipped while cleaning"), []string{"reason"})

	m.leaderboardSize = auto.NewGauge(m.gaugeOpts("leaderboard_size", "Records in the published ranking"))
	m.snapshotsPublished = auto.NewCounter(m.counterOpts("snapshots_published_total", "Rankings published to the store"))
	m.snapshotLastUnix = auto.NewGauge(m.gaugeOpts("snapshot_last_unix_seconds", "Unix time of the last published ranking"))
	m.publishDuration = auto.NewHistogram(m.histogramOpts("snapshot_publish_duration_milliseconds", "Time spent building a ranking snapshot"))
	m.queryDuration = auto.NewHistogram(m.histogramOpts("repository_query_duration_milliseconds", "Leaderboard and rank query latency"))

	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Task queue capacity"))
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Tasks waiting in the queue"))
	m.queueEnqueueTotal = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Tasks enqueued"))
	m.queueDequeueTotal = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Tasks dequeued"))
	m.queueEnqueueErrors = auto.NewCounterVec(m.counterOpts("queue_enqueue_errors_total", "Rejected enqueues by reason"), []string{"reason"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request latency"), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component and type"), []string{"component", "error_type"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Errors by HTTP endpoint"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	gc := m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds")
	gc.Buckets = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}
	m.systemGCPauseTime = auto.NewHistogram(gc)
}

// RecordRun counts a pipeline run and its latency.
func RecordRun(outcome string, latencyMs float64) {
	globalManager.runsTotal.WithLabelValues(outcome).Inc()
	globalManager.runDuration.Observe(latencyMs)
}

// RecordPass counts a finished sort pass and its latency.
func RecordPass(algorithm, outcome string, latencyMs float64) {
	globalManager.passesTotal.WithLabelValues(algorithm, outcome).Inc()
	globalManager.passDuration.WithLabelValues(algorithm).Observe(latencyMs)
}

// RecordChunkSortLatency records how long one worker took on one chunk.
func RecordChunkSortLatency(algorithm string, latencyMs float64) {
	globalManager.chunkSortDuration.WithLabelValues(algorithm).Observe(latencyMs)
}

// RecordMergeLatency records the duration of the final merge.
func RecordMergeLatency(latencyMs float64) {
	globalManager.mergeDuration.Observe(latencyMs)
}

// RecordRecordsSorted adds n to the sorted records counter.
func RecordRecordsSorted(n int) {
	if n > 0 {
		globalManager.recordsSorted.Add(float64(n))
	}
}

// RecordChunksDispatched adds n to the dispatched chunks counter.
func RecordChunksDispatched(n int) {
	if n > 0 {
		globalManager.chunksDispatched.Add(float64(n))
	}
}

// RecordWorkerFailure counts a failed chunk.
func RecordWorkerFailure(reason string) {
	globalManager.workerFailures.WithLabelValues(reason).Inc()
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// IncWorkerActive increments the busy worker gauge.
func IncWorkerActive() { globalManager.workerActiveCount.Inc() }

// DecWorkerActive decrements the busy worker gauge.
func DecWorkerActive() { globalManager.workerActiveCount.Dec() }

// RecordScoring records a scoring step.
func RecordScoring(records int, mean, latencyMs float64) {
	if records > 0 {
		globalManager.recordsScored.Add(float64(records))
	}
	globalManager.globalMean.Set(mean)
	globalManager.scoringDuration.Observe(latencyMs)
}

// RecordDuplicateName counts a repeated name skipped by a unique listing.
func RecordDuplicateName() {
	globalManager.duplicateNames.Inc()
}

// RecordCSVRowsRead adds n accepted CSV rows.
func RecordCSVRowsRead(n int) {
	if n > 0 {
		globalManager.csvRowsRead.Add(float64(n))
	}
}

// RecordCSVRowSkipped counts a CSV row dropped for reason.
func RecordCSVRowSkipped(reason string) {
	globalManager.csvRowsSkipped.WithLabelValues(reason).Inc()
}

// RecordSnapshotPublished records a ranking published to the store.
func RecordSnapshotPublished(records int, latencyMs float64) {
	globalManager.snapshotsPublished.Inc()
	globalManager.leaderboardSize.Set(float64(records))
	globalManager.snapshotLastUnix.Set(float64(time.Now().Unix()))
	globalManager.publishDuration.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records a read against the ranking store.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.queryDuration.Observe(latencyMs)
}

// UpdateQueueCapacity sets the task queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the number of waiting tasks.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueEnqueue counts an accepted task.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueTotal.Inc()
}

// RecordQueueDequeue counts a task handed to a worker.
func RecordQueueDequeue() {
	globalManager.queueDequeueTotal.Inc()
}

// RecordQueueEnqueueError counts a rejected task.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method string, statusCode int) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Inc()
}

// RecordHTTPRequestDuration records HTTP request latency in milliseconds.
func RecordHTTPRequestDuration(endpoint, method string, statusCode int, latencyMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Observe(latencyMs)
}

// RecordErrorByComponent counts an error raised inside component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint counts an error returned by an HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// CollectSystemMetrics samples the Go runtime once.
func CollectSystemMetrics() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	UpdateSystemMemoryUsage(ms.HeapInuse)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if ms.NumGC > 0 {
		last := ms.PauseNs[(ms.NumGC+255)%256]
		RecordSystemGCPauseTime(float64(last) / nanosPerMilli)
	}
}

// StartSystemCollector samples the runtime every refresh interval until ctx
// is done.
func StartSystemCollector(ctx context.Context) {
	ticker := time.NewTicker(globalManager.refreshInterval)
	defer ticker.Stop()

	CollectSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			CollectSystemMetrics()
		}
	}
}

// Milliseconds converts a duration for the *_milliseconds histograms.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / nanosPerMilli
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
