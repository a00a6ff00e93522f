package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the gateway. Each
// Metrics owns its registry so independent instances (tests, multiple
// servers in one process) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	BoundSessions   prometheus.Gauge
	PendingSessions prometheus.Gauge
	SessionEvents   *prometheus.CounterVec
	APIRequests     *prometheus.CounterVec
	WSMessages      *prometheus.CounterVec
	RequestLatency  *prometheus.HistogramVec
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		BoundSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bound_sessions",
			Help:      "Number of live bound sessions.",
		}),
		PendingSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_sessions",
			Help:      "Number of live pending sessions.",
		}),
		SessionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session lifecycle events by type.",
		}, []string{"event"}),
		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "API requests by route and envelope code.",
		}, []string{"route", "code"}),
		WSMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket frames by direction and type.",
		}, []string{"direction", "type"}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_latency_ms",
			Help:      "Request handling latency in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"route"}),
	}
}

func (m *Metrics) ObserveRequest(route string, code int, d time.Duration) {
	m.APIRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.RequestLatency.WithLabelValues(route).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
