// Package metrics holds Prometheus metrics for calls to external services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"facepay/pkg/platform/circuit"
)

// Upstream records latency and outcome of calls to the face service and
// the ledger node, plus circuit breaker state.
type Upstream struct {
	CallLatency  *prometheus.HistogramVec
	CallOutcomes *prometheus.CounterVec
	BreakerState *prometheus.GaugeVec
}

// NewUpstream registers the upstream metrics on reg (default registerer when nil).
func NewUpstream(reg prometheus.Registerer) *Upstream {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Upstream{
		CallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "facepay_upstream_call_duration_seconds",
			Help:    "Latency of calls to external services",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"service", "operation"}),
		CallOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "facepay_upstream_calls_total",
			Help: "Calls to external services by outcome category",
		}, []string{"service", "operation", "outcome"}),
		BreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "facepay_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		}, []string{"breaker"}),
	}
}

// ObserveCall records one upstream call. outcome is "ok" or an error category.
func (m *Upstream) ObserveCall(service, operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CallLatency.WithLabelValues(service, operation).Observe(elapsed.Seconds())
	m.CallOutcomes.WithLabelValues(service, operation, outcome).Inc()
}

// BreakerListener returns a circuit state listener that updates the gauge.
func (m *Upstream) BreakerListener() func(name string, state circuit.State) {
	return func(name string, state circuit.State) {
		if m == nil {
			return
		}
		m.BreakerState.WithLabelValues(name).Set(float64(state))
	}
}
