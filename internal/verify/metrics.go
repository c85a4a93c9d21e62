package verify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	verificationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_outcomes_total",
			Help: "Verification results by outcome (related, rejected, ambiguous, error)",
		},
		[]string{"outcome"},
	)

	modelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reasoning_call_duration_seconds",
			Help:    "Reasoning service call duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "status"},
	)
)

func recordOutcome(result *Result) {
	switch {
	case result.Ambiguous:
		verificationOutcomes.WithLabelValues("ambiguous").Inc()
	case result.Related:
		verificationOutcomes.WithLabelValues("related").Inc()
	default:
		verificationOutcomes.WithLabelValues("rejected").Inc()
	}
}

func observeModelCall(provider string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	modelCallDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
}
