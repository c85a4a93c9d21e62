package submission

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var submissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "report_submissions_total",
		Help: "Report submissions by outcome",
	},
	[]string{"outcome"},
)

func recordOutcome(outcome string) {
	submissionsTotal.WithLabelValues(outcome).Inc()
}
