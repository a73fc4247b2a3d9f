package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const maxLabelLen = 64

func sanitizeLabel(s string) string {
	if s == "" {
		return "unknown"
	}
	s = strings.ReplaceAll(s, " ", "_")
	if len(s) > maxLabelLen {
		s = s[:maxLabelLen]
	}
	return s
}

// BillingMetrics instruments webhook reconciliation, checkout and the
// outbound billing provider.
type BillingMetrics struct {
	webhookEvents    *prometheus.CounterVec
	checkoutSessions *prometheus.CounterVec
	providerCalls    *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	breakerState     *prometheus.GaugeVec
}

var (
	billingInstance *BillingMetrics
	billingOnce     sync.Once
)

// Billing returns the process-wide billing metrics, registered on the
// default registry on first use.
func Billing() *BillingMetrics {
	billingOnce.Do(func() {
		billingInstance = NewBillingMetrics(prometheus.DefaultRegisterer)
	})
	return billingInstance
}

// NewBillingMetrics builds the collectors and registers them on reg. A nil
// registerer leaves them unregistered.
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	m := &BillingMetrics{
		webhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamfox",
				Subsystem: "billing",
				Name:      "webhook_events_total",
				Help:      "Billing webhook deliveries by event kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		checkoutSessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamfox",
				Subsystem: "billing",
				Name:      "checkout_sessions_total",
				Help:      "Checkout session attempts by outcome",
			},
			[]string{"outcome"},
		),
		providerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamfox",
				Subsystem: "billing",
				Name:      "provider_calls_total",
				Help:      "Outbound billing provider calls by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		providerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "streamfox",
				Subsystem: "billing",
				Name:      "provider_call_duration_seconds",
				Help:      "Latency of outbound billing provider calls",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "streamfox",
				Subsystem: "billing",
				Name:      "breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.webhookEvents,
			m.checkoutSessions,
			m.providerCalls,
			m.providerLatency,
			m.breakerState,
		)
	}

	return m
}

// RecordWebhookEvent counts one webhook delivery. kind is the provider event type.
func (m *BillingMetrics) RecordWebhookEvent(kind, outcome string) {
	m.webhookEvents.WithLabelValues(sanitizeLabel(kind), sanitizeLabel(outcome)).Inc()
}

func (m *BillingMetrics) RecordCheckout(outcome string) {
	m.checkoutSessions.WithLabelValues(sanitizeLabel(outcome)).Inc()
}

// RecordProviderCall counts a provider call and observes its duration in seconds.
func (m *BillingMetrics) RecordProviderCall(op, outcome string, seconds float64) {
	m.providerCalls.WithLabelValues(sanitizeLabel(op), sanitizeLabel(outcome)).Inc()
	m.providerLatency.WithLabelValues(sanitizeLabel(op)).Observe(seconds)
}

func (m *BillingMetrics) SetBreakerState(name string, state float64) {
	m.breakerState.WithLabelValues(sanitizeLabel(name)).Set(state)
}
