package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records checkout-session and webhook reconciliation outcomes.
type PaymentMetrics struct {
	sessions *prometheus.CounterVec
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_total",
		Help: "Checkout sessions created, labeled by processor and outcome.",
	}, []string{"processor", "outcome"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Webhook events received, labeled by processor and outcome.",
	}, []string{"processor", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_handle_duration_seconds",
		Help:    "Duration of webhook event handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"processor"})
	reg.MustRegister(sessions, events, duration)
	return &PaymentMetrics{
		sessions: sessions,
		events:   events,
		duration: duration,
	}
}

// IncSession counts one checkout-session attempt for the processor.
func (m *PaymentMetrics) IncSession(processor, outcome string) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.WithLabelValues(normalizeLabel(processor), normalizeLabel(outcome)).Inc()
}

// IncEvent counts one webhook event for the processor.
func (m *PaymentMetrics) IncEvent(processor, outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(processor), normalizeLabel(outcome)).Inc()
}

// ObserveHandleDuration records how long a webhook event took to reconcile.
func (m *PaymentMetrics) ObserveHandleDuration(processor string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(processor)).Observe(d.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
