// Package metrics exposes process-level Prometheus instrumentation: HTTP
// request latency and in-flight gauge. Domain packages carry their own
// collectors; this package only covers the transport surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the transport collectors. All methods are safe on a nil
// receiver so tests can run handlers without metrics wired.
type Metrics struct {
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// New registers the transport collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "attestry",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "attestry",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Requests currently being served.",
		}),
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
}

// IncInFlight marks a request as started.
func (m *Metrics) IncInFlight() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// DecInFlight marks a request as finished.
func (m *Metrics) DecInFlight() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}
