// Package metrics provides Prometheus metrics for the scouting data core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the scouting service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion metrics
	submissionsAccepted prometheus.Counter
	submissionsRejected *prometheus.CounterVec

	// Mutation metrics
	recordsUpdated   prometheus.Counter
	recordsDeleted   prometheus.Counter
	permissionDenied *prometheus.CounterVec

	// Store health metrics
	storeRetries  *prometheus.CounterVec
	storeLatency  *prometheus.HistogramVec
	recordsTotal  prometheus.Gauge
	storeFailures *prometheus.CounterVec

	// Analytics metrics
	analyticsQueries *prometheus.CounterVec
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
		namespace:        "castle",
		subsystem:        "scouting",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.submissionsAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_accepted_total",
		Help:      "Total number of scouting records accepted at ingestion",
	})

	m.submissionsRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "submissions_rejected_total",
			Help:      "Total number of rejected submissions by reason",
		},
		[]string{"reason"},
	)

	m.recordsUpdated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_updated_total",
		Help:      "Total number of scouting records modified",
	})

	m.recordsDeleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_deleted_total",
		Help:      "Total number of scouting records removed",
	})

	m.permissionDenied = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "permission_denied_total",
			Help:      "Total number of denied mutation attempts by action",
		},
		[]string{"action"},
	)

	m.storeRetries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_retries_total",
			Help:      "Total number of retried store operations by operation",
		},
		[]string{"op"},
	)

	m.storeLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_latency_milliseconds",
			Help:      "Store operation latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"op"},
	)

	m.storeFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_failures_total",
			Help:      "Total number of store operations that exhausted retries",
		},
		[]string{"op"},
	)

	m.recordsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_total",
		Help:      "Current number of scouting records in the collection",
	})

	m.analyticsQueries = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "analytics_queries_total",
			Help:      "Total number of analytics queries by kind",
		},
		[]string{"kind"},
	)
}

// RecordSubmissionAccepted increments the accepted submissions counter.
func RecordSubmissionAccepted() {
	globalManager.submissionsAccepted.Inc()
}

// RecordSubmissionRejected increments the rejected submissions counter for a reason.
func RecordSubmissionRejected(reason string) {
	globalManager.submissionsRejected.WithLabelValues(reason).Inc()
}

// RecordUpdate increments the updated records counter.
func RecordUpdate() {
	globalManager.recordsUpdated.Inc()
}

// RecordDelete increments the deleted records counter.
func RecordDelete() {
	globalManager.recordsDeleted.Inc()
}

// RecordPermissionDenied increments the denied mutations counter for an action.
func RecordPermissionDenied(action string) {
	globalManager.permissionDenied.WithLabelValues(action).Inc()
}

// RecordStoreRetry increments the store retry counter for an operation.
func RecordStoreRetry(op string) {
	globalManager.storeRetries.WithLabelValues(op).Inc()
}

// RecordStoreFailure increments the exhausted-retries counter for an operation.
func RecordStoreFailure(op string) {
	globalManager.storeFailures.WithLabelValues(op).Inc()
}

// ObserveStoreLatency records store operation latency in milliseconds.
func ObserveStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// UpdateRecordsTotal sets the current record count gauge.
func UpdateRecordsTotal(count int) {
	globalManager.recordsTotal.Set(float64(count))
}

// RecordAnalyticsQuery increments the analytics query counter for a kind.
func RecordAnalyticsQuery(kind string) {
	globalManager.analyticsQueries.WithLabelValues(kind).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
