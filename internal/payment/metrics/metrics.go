package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the payment orchestrator.
type Metrics struct {
	Outcomes      *prometheus.CounterVec
	StepDuration  *prometheus.HistogramVec
	InFlight      prometheus.Gauge
	JournalErrors prometheus.Counter
}

// New registers the payment collectors on reg (default registerer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "facepay_payment_outcomes_total",
			Help: "Terminal payment outcomes by state and failure reason",
		}, []string{"state", "reason"}),
		StepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "facepay_payment_step_duration_seconds",
			Help:    "Duration of payment steps (verify, transfer, reward)",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"step"}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "facepay_payments_in_flight",
			Help: "Payments currently being processed",
		}),
		JournalErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "facepay_payment_journal_errors_total",
			Help: "Outcomes that could not be recorded",
		}),
	}
}

func (m *Metrics) IncOutcome(state, reason string) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(state, reason).Inc()
}

func (m *Metrics) ObserveStep(step string, seconds float64) {
	if m == nil {
		return
	}
	m.StepDuration.WithLabelValues(step).Observe(seconds)
}

func (m *Metrics) IncInFlight() {
	if m == nil {
		return
	}
	m.InFlight.Inc()
}

func (m *Metrics) DecInFlight() {
	if m == nil {
		return
	}
	m.InFlight.Dec()
}

func (m *Metrics) IncJournalError() {
	if m == nil {
		return
	}
	m.JournalErrors.Inc()
}
