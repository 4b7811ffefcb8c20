package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the reconciliation engine.
type Metrics struct {
	// Completed passes by result
	Passes *prometheus.CounterVec

	// Ticks skipped because a pass was still running or the lease was held
	SkippedTicks prometheus.Counter

	// Applied status transitions by action
	Transitions *prometheus.CounterVec

	// Completion notifications by result
	Notifications *prometheus.CounterVec

	// Registry call failures by error category
	UpstreamErrors *prometheus.CounterVec

	// Full pass latency
	PassDuration prometheus.Histogram
}

// New creates a new Metrics instance with all reconciliation metrics registered.
func New() *Metrics {
	return &Metrics{
		Passes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "egrn_reconcile_passes_total",
			Help: "Total reconciliation passes by result",
		}, []string{"result"}), // result: "ok", "error"

		SkippedTicks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "egrn_reconcile_skipped_ticks_total",
			Help: "Total ticks skipped because the previous pass was still running",
		}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "egrn_reconcile_transitions_total",
			Help: "Total applied order status transitions by action",
		}, []string{"action"}), // action: "update", "complete"

		Notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "egrn_reconcile_notifications_total",
			Help: "Total completion notifications by result",
		}, []string{"result"}), // result: "sent", "error"

		UpstreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "egrn_reconcile_upstream_errors_total",
			Help: "Total registry call failures by error category",
		}, []string{"category"}),

		PassDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "egrn_reconcile_pass_duration_seconds",
			Help:    "Duration of full reconciliation passes",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// IncrementPass records a finished pass.
func (m *Metrics) IncrementPass(result string) {
	if m != nil {
		m.Passes.WithLabelValues(result).Inc()
	}
}

// IncrementSkippedTick records a tick that found the lock held.
func (m *Metrics) IncrementSkippedTick() {
	if m != nil {
		m.SkippedTicks.Inc()
	}
}

// IncrementTransition records an applied status transition.
func (m *Metrics) IncrementTransition(action string) {
	if m != nil {
		m.Transitions.WithLabelValues(action).Inc()
	}
}

// IncrementNotification records a completion notification attempt.
func (m *Metrics) IncrementNotification(result string) {
	if m != nil {
		m.Notifications.WithLabelValues(result).Inc()
	}
}

// IncrementUpstreamError records a failed registry call.
func (m *Metrics) IncrementUpstreamError(category string) {
	if m != nil {
		m.UpstreamErrors.WithLabelValues(category).Inc()
	}
}

// ObservePassDuration records how long a full pass took.
func (m *Metrics) ObservePassDuration(d time.Duration) {
	if m != nil {
		m.PassDuration.Observe(d.Seconds())
	}
}
