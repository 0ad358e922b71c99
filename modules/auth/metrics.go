package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts sign-in activity. Claim and SSO outcomes carry a label so
// dashboards can separate success from the rejection sub-cases that users
// never see distinguished.
type Metrics struct {
	LinksIssued  prometheus.Counter
	ClaimOutcome *prometheus.CounterVec
	SSOOutcome   *prometheus.CounterVec
}

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeClaimed  = "already_claimed"
	OutcomeExpired  = "expired"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// NewMetrics registers the kernel's counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LinksIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "grantgate",
			Subsystem: "auth",
			Name:      "magic_links_issued_total",
			Help:      "Magic links issued via the sign-in request form.",
		}),
		ClaimOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grantgate",
			Subsystem: "auth",
			Name:      "magic_link_claims_total",
			Help:      "Magic link claim attempts by outcome.",
		}, []string{"outcome"}),
		SSOOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grantgate",
			Subsystem: "auth",
			Name:      "sso_signins_total",
			Help:      "SSO callback completions by outcome.",
		}, []string{"outcome"}),
	}
}
