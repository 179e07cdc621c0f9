// Package observability serves Prometheus metrics and health probes on a
// separate listener from the API.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service collectors. It satisfies httpapi.Recorder.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuthEventsTotal *prometheus.CounterVec
	TokensSwept     prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glowup_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "glowup_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glowup_auth_events_total",
				Help: "Session operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		TokensSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glowup_refresh_tokens_swept_total",
			Help: "Expired refresh tokens removed by the sweeper",
		}),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.AuthEventsTotal, m.TokensSwept)
	return m
}

func (m *Metrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveAuthEvent(operation, outcome string) {
	m.AuthEventsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveSwept matches the sweeper's observe callback.
func (m *Metrics) ObserveSwept(n int64) {
	m.TokensSwept.Add(float64(n))
}
