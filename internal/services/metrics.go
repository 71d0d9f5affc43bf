package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Snapshot metrics
	SnapshotComputations prometheus.Counter
	SnapshotLatency      prometheus.Histogram
	SnapshotErrors       prometheus.Counter

	// Auth metrics
	LoginAttempts *prometheus.CounterVec

	// Live dashboard streams
	DashboardStreams prometheus.Gauge
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		SnapshotComputations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "querydash_snapshot_computations_total",
			Help: "Total number of statistics snapshots computed",
		}),

		SnapshotLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "querydash_snapshot_duration_seconds",
			Help:    "Snapshot computation latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		SnapshotErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "querydash_snapshot_errors_total",
			Help: "Total number of failed snapshot computations",
		}),

		// result: "success" or "failure"
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "querydash_login_attempts_total",
			Help: "Total number of login attempts by result",
		}, []string{"result"}),

		DashboardStreams: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "querydash_dashboard_streams_active",
			Help: "Number of active live-dashboard websocket streams",
		}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance. May be nil when
// metrics are not initialized (tests).
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordSnapshot records one snapshot computation and its latency.
func (m *Metrics) RecordSnapshot(seconds float64) {
	m.SnapshotComputations.Inc()
	m.SnapshotLatency.Observe(seconds)
}

// RecordSnapshotError records a failed snapshot computation.
func (m *Metrics) RecordSnapshotError() {
	m.SnapshotErrors.Inc()
}

// RecordLoginAttempt records a login attempt by result.
func (m *Metrics) RecordLoginAttempt(result string) {
	m.LoginAttempts.WithLabelValues(result).Inc()
}

// RecordStreamOpen records a new dashboard stream.
func (m *Metrics) RecordStreamOpen() {
	m.DashboardStreams.Inc()
}

// RecordStreamClose records a closed dashboard stream.
func (m *Metrics) RecordStreamClose() {
	m.DashboardStreams.Dec()
}
