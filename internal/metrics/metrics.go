package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported by the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	StoreOperationDuration *prometheus.HistogramVec
	SyncRunsTotal          *prometheus.CounterVec
	SyncStagedUpdates      prometheus.Gauge
	BookingLookupFailures  prometheus.Counter
	NotificationsSent      *prometheus.CounterVec
}

// New registers all collectors on a fresh registry using the given name prefix.
func New(prefix string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		StoreOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_store_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		SyncRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_guest_sync_runs_total",
				Help: "Guest-count reconciliation passes by outcome",
			},
			[]string{"outcome"},
		),
		SyncStagedUpdates: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "_guest_sync_staged_updates",
				Help: "Number of properties whose guest count changed in the last pass",
			},
		),
		BookingLookupFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_booking_lookup_failures_total",
				Help: "Per-property booking lookups that failed and defaulted to zero guests",
			},
		),
		NotificationsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_push_notifications_total",
				Help: "Web push deliveries by result",
			},
			[]string{"result"},
		),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// TrackStoreOperation returns a function that records the duration of a database operation.
func (m *Metrics) TrackStoreOperation(operation string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if m == nil {
			return
		}
		m.StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordSyncRun records the outcome of a reconciliation pass.
func (m *Metrics) RecordSyncRun(outcome string, staged int) {
	if m == nil {
		return
	}
	m.SyncRunsTotal.WithLabelValues(outcome).Inc()
	if outcome != "failed" {
		m.SyncStagedUpdates.Set(float64(staged))
	}
}

// RecordBookingLookupFailure counts a swallowed per-property lookup failure.
func (m *Metrics) RecordBookingLookupFailure() {
	if m == nil {
		return
	}
	m.BookingLookupFailures.Inc()
}

// RecordNotification counts a push delivery attempt.
func (m *Metrics) RecordNotification(result string) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(result).Inc()
}
