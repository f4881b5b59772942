package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RentalMetrics counts lifecycle transitions, settlements and scheduler sweeps.
type RentalMetrics struct {
	transitions *prometheus.CounterVec
	settlements *prometheus.CounterVec
	settleTime  *prometheus.HistogramVec
	swept       *prometheus.CounterVec
}

// NewRentalMetrics registers the rental metrics on the provided registerer.
func NewRentalMetrics(reg prometheus.Registerer) *RentalMetrics {
	if reg == nil {
		return &RentalMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rental",
		Name:      "transitions_total",
		Help:      "Rental transition attempts by operation and outcome.",
	}, []string{"operation", "outcome"})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payment",
		Name:      "settlements_total",
		Help:      "Payment settlements by type and outcome.",
	}, []string{"type", "outcome"})
	settleTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "payment",
		Name:      "settlement_duration_seconds",
		Help:      "Time spent settling a payment inside its transaction.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"type"})
	swept := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rental",
		Name:      "sweep_rentals_total",
		Help:      "Rentals touched by scheduler sweeps.",
	}, []string{"sweep"})
	reg.MustRegister(transitions, settlements, settleTime, swept)
	return &RentalMetrics{
		transitions: transitions,
		settlements: settlements,
		settleTime:  settleTime,
		swept:       swept,
	}
}

// ObserveTransition records one transition attempt; outcome is "ok" or an error code.
func (m *RentalMetrics) ObserveTransition(operation, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// ObserveSettlement records a settlement attempt and its duration.
func (m *RentalMetrics) ObserveSettlement(paymentType, outcome string, duration time.Duration) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(paymentType), normalizeLabel(outcome)).Inc()
	m.settleTime.WithLabelValues(normalizeLabel(paymentType)).Observe(duration.Seconds())
}

// AddSwept adds n rentals to the named sweep counter.
func (m *RentalMetrics) AddSwept(sweep string, n int) {
	if m == nil || m.swept == nil || n <= 0 {
		return
	}
	m.swept.WithLabelValues(normalizeLabel(sweep)).Add(float64(n))
}
