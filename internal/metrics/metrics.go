// Package metrics exposes Prometheus instrumentation for ledger mutations
// and verification outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Mutations counts applied ledger mutations by operation.
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitlite_ledger_mutations_total",
		Help: "Applied ledger mutations by operation.",
	}, []string{"op"})

	// Verifications counts verification attempts by flow and result.
	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitlite_verifications_total",
		Help: "Verification attempts by flow (otp, receipt) and result.",
	}, []string{"flow", "result"})

	// PlanFailures counts settlement plans that left a residual imbalance.
	// Any increment here is a logic defect, not an operational condition.
	PlanFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitlite_settlement_plan_failures_total",
		Help: "Settlement plans aborted by a residual balance imbalance.",
	})
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
