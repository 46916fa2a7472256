package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncsTotal counts sync runs by outcome.
	// Labels: status (success, error)
	SyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "houzz_to_zoho",
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Total number of sync runs by outcome",
		},
		[]string{"status"},
	)

	// EstimatesCreated counts created estimates by extraction source.
	// Labels: source (tables, main_sections, generic, subtotal, total,
	// defaults, spreadsheet)
	EstimatesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "houzz_to_zoho",
			Subsystem: "sync",
			Name:      "estimates_created_total",
			Help:      "Total number of estimates created in Zoho Books by extraction source",
		},
		[]string{"source"},
	)
)

func recordSync(status string) {
	SyncsTotal.WithLabelValues(status).Inc()
}

func recordEstimateCreated(source string) {
	EstimatesCreated.WithLabelValues(source).Inc()
}
