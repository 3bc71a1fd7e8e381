package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for enrollment operations.
type Metrics struct {
	Enrollments  *prometheus.CounterVec
	Recognitions *prometheus.CounterVec
	Clears       prometheus.Counter
}

// New registers the enrollment collectors on reg (default registerer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Enrollments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "facepay_enrollments_total",
			Help: "Enrollment attempts by outcome",
		}, []string{"outcome"}),
		Recognitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "facepay_recognitions_total",
			Help: "Standalone face recognitions by outcome",
		}, []string{"outcome"}),
		Clears: f.NewCounter(prometheus.CounterOpts{
			Name: "facepay_enrollment_clears_total",
			Help: "Number of times the enrollment store was cleared",
		}),
	}
}

func (m *Metrics) IncEnrollment(outcome string) {
	if m == nil {
		return
	}
	m.Enrollments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncRecognition(outcome string) {
	if m == nil {
		return
	}
	m.Recognitions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncClear() {
	if m == nil {
		return
	}
	m.Clears.Inc()
}
