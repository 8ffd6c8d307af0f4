package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UsersProvisioned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "teap_users_provisioned_total",
		Help: "Users created through the provisioning flow.",
	})

	TeamsDerived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teap_teams_derived_total",
			Help: "Team derivation outcomes, labeled created, skipped or failed.",
		},
		[]string{"outcome"},
	)

	MembershipsCascaded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "teap_memberships_cascaded_total",
		Help: "Completed team membership cascades.",
	})

	DivisionDrift = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "teap_division_drift",
		Help: "Divisions out of sync between config and the directory, per the last reconciliation.",
	})
)

// Init registers the collectors in the default registry.
func Init() {
	prometheus.MustRegister(UsersProvisioned, TeamsDerived, MembershipsCascaded, DivisionDrift)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
