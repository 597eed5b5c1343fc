// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Chart metrics
	ChartRequestsTotal   *prometheus.CounterVec
	ChartRequestDuration prometheus.Histogram
	FetchErrors          *prometheus.CounterVec

	// Intake metrics
	IntakeEventsTotal *prometheus.CounterVec
	IntakeEventErrors *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	UptimeSeconds prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "nocturne"
	}

	return &Metrics{
		// Chart metrics
		ChartRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chart",
			Name:      "requests_total",
			Help:      "Total number of chart data requests by status",
		}, []string{"status"}),
		ChartRequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chart",
			Name:      "request_duration_seconds",
			Help:      "Chart data request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chart",
			Name:      "fetch_errors_total",
			Help:      "Total number of source stream fetch errors by stream",
		}, []string{"stream"}),

		// Intake metrics
		IntakeEventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "events_total",
			Help:      "Total number of events accepted by entity type",
		}, []string{"entity"}),
		IntakeEventErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "event_errors_total",
			Help:      "Total number of rejected intake events by entity type",
		}, []string{"entity"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordChartRequest records a completed chart request.
func RecordChartRequest(status string, durationSeconds float64) {
	DefaultMetrics.ChartRequestsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ChartRequestDuration.Observe(durationSeconds)
}

// RecordFetchError records a source stream fetch failure.
func RecordFetchError(stream string) {
	DefaultMetrics.FetchErrors.WithLabelValues(stream).Inc()
}

// RecordIntakeEvent records an accepted intake event.
func RecordIntakeEvent(entity string) {
	DefaultMetrics.IntakeEventsTotal.WithLabelValues(entity).Inc()
}

// RecordIntakeError records a rejected intake event.
func RecordIntakeError(entity string) {
	DefaultMetrics.IntakeEventErrors.WithLabelValues(entity).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
