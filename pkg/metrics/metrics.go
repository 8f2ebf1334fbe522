package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Webhook outcomes, labelled by event kind.
const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

var (
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "botnovo",
		Subsystem: "webhook",
		Name:      "events_total",
		Help:      "Webhook events received from the session gateway, by kind and outcome.",
	}, []string{"kind", "outcome"})

	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "botnovo",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Outbound requests to the session gateway, by operation and result.",
	}, []string{"operation", "result"})
)
