package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "estimate_service"

// Metrics holds all application metrics
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	WSConnections   prometheus.Gauge
	RequestsHandled *prometheus.CounterVec

	VotesPlaced     prometheus.Counter
	RoundsOpened    prometheus.Counter
	RoundsCompleted prometheus.Counter
	RoundsRestarted prometheus.Counter
	InvitesIssued   prometheus.Counter
	EventsAppended  prometheus.Counter
}

// New creates and registers all metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates and registers all metrics with a custom
// registry (tests use a fresh one to avoid duplicate registration).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "endpoint"},
		),
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections",
				Help:      "Current number of live websocket connections",
			},
		),
		RequestsHandled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_requests_total",
				Help:      "Total number of gateway request envelopes handled",
			},
			[]string{"service", "method", "success"},
		),
		VotesPlaced: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "votes_placed_total",
				Help:      "Total number of votes placed or changed",
			},
		),
		RoundsOpened: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rounds_opened_total",
				Help:      "Total number of voting rounds opened",
			},
		),
		RoundsCompleted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rounds_completed_total",
				Help:      "Total number of voting rounds completed",
			},
		),
		RoundsRestarted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rounds_restarted_total",
				Help:      "Total number of voting rounds restarted",
			},
		),
		InvitesIssued: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invites_issued_total",
				Help:      "Total number of invites issued",
			},
		),
		EventsAppended: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_appended_total",
				Help:      "Total number of activity log events appended",
			},
		),
	}
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordGatewayRequest records one dispatched envelope.
func (m *Metrics) RecordGatewayRequest(service, method string, success bool) {
	m.RequestsHandled.WithLabelValues(service, method, strconv.FormatBool(success)).Inc()
}
