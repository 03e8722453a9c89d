package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Notification metrics
	NotificationsSent   *prometheus.CounterVec
	NotificationsDenied *prometheus.CounterVec
	EmailFailures       *prometheus.CounterVec
	RealtimeFailures    prometheus.Counter

	// Scheduled job metrics
	JobRuns     *prometheus.CounterVec
	JobItems    *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
}

// New creates all application metrics and registers them with reg.
// A nil registerer yields unregistered collectors, which is what tests want.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications persisted, by template key",
		}, []string{"template"}),
		NotificationsDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_denied_total",
			Help:      "Total number of notification sends rejected by the authorization policy",
		}, []string{"template"}),
		EmailFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_failures_total",
			Help:      "Total number of failed email deliveries",
		}, []string{"template"}),
		RealtimeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_publish_failures_total",
			Help:      "Total number of failed realtime notification publishes",
		}),

		JobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Total number of scheduled job runs",
		}, []string{"job", "status"}),
		JobItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_items_total",
			Help:      "Total number of items handled by scheduled jobs",
		}, []string{"job", "result"}),
		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of scheduled job runs",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
		}, []string{"job"}),

		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
}

// NewNop returns metrics that are not registered anywhere.
func NewNop() *Metrics {
	return New("", nil)
}
