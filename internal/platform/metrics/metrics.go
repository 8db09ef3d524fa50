package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the transport-level Prometheus metrics shared by all routes.
type Metrics struct {
	RequestLatency *prometheus.HistogramVec
	RequestErrors  *prometheus.CounterVec
}

// New creates and registers all HTTP metrics.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landrec_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and method",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method"}),
		RequestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landrec_http_request_errors_total",
			Help: "HTTP responses with status >= 400 by route and status",
		}, []string{"route", "status"}),
	}
}

// ObserveRequest records one request's latency.
func (m *Metrics) ObserveRequest(route, method string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, method).Observe(d.Seconds())
	}
}

// IncrementError counts a failed response.
func (m *Metrics) IncrementError(route, status string) {
	if m != nil {
		m.RequestErrors.WithLabelValues(route, status).Inc()
	}
}
