// Package metrics exposes Prometheus instrumentation for the identity
// ledger. All methods are safe on a nil receiver so callers can run
// without metrics wired.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ledger's Prometheus collectors.
type Metrics struct {
	transitions *prometheus.CounterVec
	verifierSet prometheus.Gauge
}

// New registers the ledger collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attestry",
			Subsystem: "ledger",
			Name:      "transitions_total",
			Help:      "Ledger operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		verifierSet: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "attestry",
			Subsystem: "ledger",
			Name:      "verifier_set_size",
			Help:      "Current number of stored verifiers, excluding the owner.",
		}),
	}
}

// IncTransition counts one ledger operation attempt.
func (m *Metrics) IncTransition(operation, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(operation, outcome).Inc()
}

// SetVerifierSetSize records the stored verifier count.
func (m *Metrics) SetVerifierSetSize(n int) {
	if m == nil {
		return
	}
	m.verifierSet.Set(float64(n))
}
