package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Circuit breaker states as exported on the state gauge.
const (
	BreakerClosed   = 0
	BreakerOpen     = 1
	BreakerHalfOpen = 2
)

// BreakerMetrics exports circuit breaker state and rejected calls per upstream.
type BreakerMetrics struct {
	state    *prometheus.GaugeVec
	failures *prometheus.CounterVec
}

// NewBreakerMetrics registers the breaker metrics on the provided registerer.
func NewBreakerMetrics(reg prometheus.Registerer) *BreakerMetrics {
	if reg == nil {
		return &BreakerMetrics{}
	}
	state := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "breaker",
		Name:      "state",
		Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open).",
	}, []string{"name"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "breaker",
		Name:      "failures_total",
		Help:      "Calls that failed or were rejected by the circuit breaker.",
	}, []string{"name"})
	reg.MustRegister(state, failures)
	return &BreakerMetrics{state: state, failures: failures}
}

// SetState records the breaker's current state.
func (m *BreakerMetrics) SetState(name string, state int) {
	if m == nil || m.state == nil {
		return
	}
	m.state.WithLabelValues(normalizeLabel(name)).Set(float64(state))
}

// IncFailure counts a failed or rejected call.
func (m *BreakerMetrics) IncFailure(name string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(name)).Inc()
}
