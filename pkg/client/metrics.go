package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kasa-protocol/kasa-go/pkg/policy"
)

// Request outcomes reported by Metrics.
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
	OutcomeExhausted = "exhausted"
)

// Metrics holds the client's prometheus collectors. A nil *Metrics is valid
// and records nothing, so one instance can be shared by several clients.
type Metrics struct {
	attempts    prometheus.Counter
	directives  *prometheus.CounterVec
	requests    *prometheus.CounterVec
	recreations prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		attempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kasa",
			Subsystem: "client",
			Name:      "attempts_total",
			Help:      "Total number of request attempts",
		}),
		directives: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kasa",
			Subsystem: "client",
			Name:      "directives_total",
			Help:      "Policy directives issued for failed attempts",
		}, []string{"directive"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kasa",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Completed requests by outcome",
		}, []string{"outcome"}),
		recreations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kasa",
			Subsystem: "client",
			Name:      "transport_recreations_total",
			Help:      "Exchangers created to replace a discarded one",
		}),
	}
}

func (m *Metrics) attempt() {
	if m != nil {
		m.attempts.Inc()
	}
}

func (m *Metrics) directive(d policy.Directive) {
	if m != nil {
		m.directives.WithLabelValues(d.Name()).Inc()
	}
}

func (m *Metrics) request(outcome string) {
	if m != nil {
		m.requests.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) recreation() {
	if m != nil {
		m.recreations.Inc()
	}
}
