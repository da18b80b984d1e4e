// Package metrics holds the Prometheus collectors for visitor workflow events.
// Collectors are registered with the default registry and exposed on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Push dispatch kinds.
const (
	KindVisitorRequest = "visitor_request"
	KindBroadcast      = "broadcast"
	KindSMS            = "sms"
)

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Visitor action outcomes.
const (
	ActionApproved         = "approved"
	ActionRejected         = "rejected"
	ActionAlreadyProcessed = "already_processed"
	ActionForbidden        = "forbidden"
	ActionNotFound         = "not_found"
	ActionInvalid          = "invalid"
	ActionError            = "error"
)

var (
	// Dispatches counts individual notification deliveries by kind and outcome.
	Dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visitsafe_dispatches_total",
			Help: "Notification deliveries by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// VisitorActions counts action endpoint decisions by outcome.
	VisitorActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visitsafe_visitor_actions_total",
			Help: "Visitor action requests by outcome.",
		},
		[]string{"outcome"},
	)

	// EvictedTokens counts device tokens removed after a failed broadcast delivery.
	EvictedTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "visitsafe_evicted_device_tokens_total",
			Help: "Device tokens removed after failed delivery.",
		},
	)
)

func init() {
	prometheus.MustRegister(Dispatches, VisitorActions, EvictedTokens)
}

// ObserveDispatch records one delivery attempt.
func ObserveDispatch(kind string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	Dispatches.WithLabelValues(kind, outcome).Inc()
}
