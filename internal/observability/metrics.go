package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CheckoutSessions    *prometheus.CounterVec // result
	Reconciliations     *prometheus.CounterVec // path, result
	WebhookEvents       *prometheus.CounterVec // type, result
	EntitlementGrants   *prometheus.CounterVec // path
	EntitlementExpiries prometheus.Counter
}

// NewMetrics registers the billing counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CheckoutSessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskboard",
			Subsystem: "billing",
			Name:      "checkout_sessions_total",
			Help:      "Checkout sessions requested, by result.",
		}, []string{"result"}),
		Reconciliations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskboard",
			Subsystem: "billing",
			Name:      "reconciliations_total",
			Help:      "Reconciliation attempts, by path (pull|webhook) and result.",
		}, []string{"path", "result"}),
		WebhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskboard",
			Subsystem: "billing",
			Name:      "webhook_events_total",
			Help:      "Payment provider webhook deliveries, by event type and result.",
		}, []string{"type", "result"}),
		EntitlementGrants: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskboard",
			Subsystem: "billing",
			Name:      "entitlement_grants_total",
			Help:      "Premium entitlements granted, by reconciliation path.",
		}, []string{"path"}),
		EntitlementExpiries: f.NewCounter(prometheus.CounterOpts{
			Namespace: "taskboard",
			Subsystem: "billing",
			Name:      "entitlement_expiries_total",
			Help:      "Premium flags cleared by the expiry sweep.",
		}),
	}
}
