package metrics

import "github.com/prometheus/client_golang/prometheus"

// Scheduling exposes counters/histograms for the booking lifecycle.
// All methods are safe on a nil receiver.
type Scheduling struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	conflicts  *prometheus.CounterVec
	earnings   *prometheus.CounterVec
}

func NewScheduling(reg prometheus.Registerer) *Scheduling {
	m := &Scheduling{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "operations_total",
			Help:      "Scheduling operations by outcome kind",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "operation_latency_seconds",
			Help:      "Latency of scheduling operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "slot_conflicts_total",
			Help:      "Rejected bookings by conflict source",
		}, []string{"source"}),
		earnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "earnings_posted_total",
			Help:      "Earnings posting attempts by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operations, m.latency, m.conflicts, m.earnings)
	return m
}

func (m *Scheduling) ObserveOperation(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(seconds)
}

// ObserveConflict records a rejected booking. source is "check", "lock" or "storage".
func (m *Scheduling) ObserveConflict(source string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(source).Inc()
}

// ObserveEarning records a posting attempt. result is "posted" or "duplicate".
func (m *Scheduling) ObserveEarning(result string) {
	if m == nil {
		return
	}
	m.earnings.WithLabelValues(result).Inc()
}
