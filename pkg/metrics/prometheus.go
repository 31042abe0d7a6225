// Package metrics provides Prometheus metrics for the harrier service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultNamespace = "harrier"
	defaultSubsystem = "engine"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Ingestion
	resultsIngested  prometheus.Counter
	resultsDuplicate prometheus.Counter
	resultsRejected  *prometheus.CounterVec

	// Engine
	racesScored      prometheus.Counter
	unscoredResults  *prometheus.CounterVec
	scoringLatency   prometheus.Histogram
	recordsComputed  *prometheus.CounterVec
	insufficientData *prometheus.CounterVec

	// Live leaderboard
	leaderboardUpdates  prometheus.Counter
	leaderboardAthletes *prometheus.GaugeVec
	snapshotDuration    prometheus.Histogram
	snapshotLastUnix    prometheus.Gauge
	snapshotCount       prometheus.Counter

	// Repository
	repositoryRecords      *prometheus.GaugeVec
	repositoryQueryLatency *prometheus.HistogramVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActive            prometheus.Gauge
	workerProcessed         prometheus.Counter
	workerErrors            prometheus.Counter
	workerProcessingLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// Config
	configReloads *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level recorders

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // served at /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: prometheus.DefBuckets,
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

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.resultsIngested = m.counter("results_ingested_total", "Results normalized and stored by the workers")
	m.resultsDuplicate = m.counter("results_duplicate_total", "Submissions rejected for repeating an (athlete, race) pair")
	m.resultsRejected = m.counterVec("results_rejected_total", "Submissions rejected before queueing", "reason")

	m.racesScored = m.counter("races_scored_total", "Team scoring computations completed")
	m.unscoredResults = m.counterVec("unscored_results_total", "Results left out of a cross-course computation", "reason")
	m.scoringLatency = m.histogram("scoring_latency_seconds", "Time to score one race")
	m.recordsComputed = m.counterVec("records_computed_total", "Record computations by kind", "kind")
	m.insufficientData = m.counterVec("insufficient_data_total", "Computations that had nothing to reduce", "kind")

	m.leaderboardUpdates = m.counter("leaderboard_updates_total", "Live leaderboard personal-best improvements")
	m.leaderboardAthletes = m.gaugeVec("leaderboard_athletes", "Athletes on the live leaderboard", "gender")
	m.snapshotDuration = m.histogram("leaderboard_snapshot_duration_seconds", "Time to rebuild a leaderboard snapshot")
	m.snapshotLastUnix = m.gauge("leaderboard_snapshot_last_unix", "Unix time of the last leaderboard snapshot")
	m.snapshotCount = m.counter("leaderboard_snapshots_total", "Leaderboard snapshots published")

	m.repositoryRecords = m.gaugeVec("repository_records", "Stored records by kind", "kind")
	m.repositoryQueryLatency = m.histogramVec("repository_query_latency_seconds", "Repository query latency", "operation")

	m.queueSize = m.gauge("queue_size", "Submissions waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size over capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Submissions accepted by the queue")
	m.queueDequeued = m.counter("queue_dequeued_total", "Submissions taken off the queue")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Submissions refused by a full or closed queue")

	m.workerCount = m.gauge("worker_count", "Configured workers")
	m.workerActive = m.gauge("worker_active", "Workers currently processing a submission")
	m.workerProcessed = m.counter("worker_processed_total", "Submissions processed by workers")
	m.workerErrors = m.counter("worker_errors_total", "Submissions that failed in a worker")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_seconds", "Time to process one submission")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests", "endpoint", "method", "status")
	m.httpRequestDuration = m.histogramVec("http_request_duration_seconds", "HTTP request duration", "endpoint", "method", "status")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "type")

	m.configReloads = m.counterVec("config_reloads_total", "Config file reloads by outcome", "outcome")
}

// Ingestion

// RecordResultIngested counts a stored result.
func RecordResultIngested() { globalManager.resultsIngested.Inc() }

// RecordResultDuplicate counts a repeated (athlete, race) submission.
func RecordResultDuplicate() { globalManager.resultsDuplicate.Inc() }

// RecordResultRejected counts a submission refused for reason.
func RecordResultRejected(reason string) { globalManager.resultsRejected.WithLabelValues(reason).Inc() }

// Engine

// RecordRaceScored observes one team-scoring run.
func RecordRaceScored(seconds float64) {
	globalManager.racesScored.Inc()
	globalManager.scoringLatency.Observe(seconds)
}

// RecordUnscored counts n results left out for reason.
func RecordUnscored(reason string, n int) {
	if n > 0 {
		globalManager.unscoredResults.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordRecordsComputed counts a record computation of kind.
func RecordRecordsComputed(kind string) { globalManager.recordsComputed.WithLabelValues(kind).Inc() }

// RecordInsufficientData counts a computation of kind with no usable input.
func RecordInsufficientData(kind string) { globalManager.insufficientData.WithLabelValues(kind).Inc() }

// Leaderboard

// RecordLeaderboardUpdate counts a personal-best improvement.
func RecordLeaderboardUpdate() { globalManager.leaderboardUpdates.Inc() }

// UpdateLeaderboardAthletes sets the athlete count for gender.
func UpdateLeaderboardAthletes(gender string, count int) {
	globalManager.leaderboardAthletes.WithLabelValues(gender).Set(float64(count))
}

// RecordLeaderboardSnapshot observes a published snapshot.
func RecordLeaderboardSnapshot(seconds float64, unix int64) {
	globalManager.snapshotDuration.Observe(seconds)
	globalManager.snapshotLastUnix.Set(float64(unix))
	globalManager.snapshotCount.Inc()
}

// Repository

// UpdateRepositoryRecords sets the stored record count for kind.
func UpdateRepositoryRecords(kind string, count int) {
	globalManager.repositoryRecords.WithLabelValues(kind).Set(float64(count))
}

// RecordRepositoryQueryLatency observes a repository query.
func RecordRepositoryQueryLatency(operation string, seconds float64) {
	globalManager.repositoryQueryLatency.WithLabelValues(operation).Observe(seconds)
}

// Queue

// UpdateQueueSize sets the queue depth and utilization.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an accepted submission.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a submission handed to a worker.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a refused submission.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// Workers

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// AddWorkerActive adjusts the busy worker gauge by delta.
func AddWorkerActive(delta int) { globalManager.workerActive.Add(float64(delta)) }

// RecordWorkerProcessed observes a processed submission.
func RecordWorkerProcessed(seconds float64) {
	globalManager.workerProcessed.Inc()
	globalManager.workerProcessingLatency.Observe(seconds)
}

// RecordWorkerError counts a failed submission.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// HTTP

// RecordHTTPRequest observes one request.
func RecordHTTPRequest(endpoint, method, status string, seconds float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(seconds)
}

// Errors

// RecordErrorByComponent counts an error of errorType raised in component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// Config

// RecordConfigReload counts a config reload attempt by outcome.
func RecordConfigReload(outcome string) { globalManager.configReloads.WithLabelValues(outcome).Inc() }

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
