package handler

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kaisan-events/registration-service/internal/domain"
)

// Metrics holds Prometheus metrics
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	remindersSent       *prometheus.CounterVec
	// authRequired is its own series, not a failure label: needing a QR
	// scan is a recoverable operator state and alerting on it together
	// with failures would be misleading.
	authRequired     prometheus.Counter
	dispatchFailures *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	registrations    prometheus.Counter
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		remindersSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminders_sent_total",
				Help: "Total number of reminders sent successfully",
			},
			[]string{"kind"},
		),
		authRequired: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "dispatch_auth_required_total",
				Help: "Dispatch attempts that surfaced a QR scan request",
			},
		),
		dispatchFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_failures_total",
				Help: "Total number of failed dispatch attempts",
			},
			[]string{"kind", "class"},
		),
		dispatchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispatch_duration_seconds",
				Help:    "End to end dispatch attempt duration",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"status"},
		),
		registrations: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "registrations_total",
				Help: "Total number of registrations created",
			},
		),
	}
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDispatch records one dispatch attempt outcome
func (m *Metrics) RecordDispatch(kind domain.NotificationKind, outcome domain.DispatchOutcome, duration time.Duration) {
	switch outcome.Status {
	case domain.OutcomeSent:
		m.remindersSent.WithLabelValues(string(kind)).Inc()
	case domain.OutcomeAuthRequired:
		m.authRequired.Inc()
	case domain.OutcomeTransient, domain.OutcomePermanent:
		m.dispatchFailures.WithLabelValues(string(kind), string(outcome.Status)).Inc()
	}
	m.dispatchDuration.WithLabelValues(string(outcome.Status)).Observe(duration.Seconds())
}

// RecordRegistration records a created registration
func (m *Metrics) RecordRegistration() {
	m.registrations.Inc()
}

// MetricsHandler exposes the Prometheus scrape endpoint
type MetricsHandler struct {
	metrics *Metrics
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(metrics *Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Handler returns the Prometheus HTTP handler
func (h *MetricsHandler) Handler() http.Handler {
	return promhttp.Handler()
}
