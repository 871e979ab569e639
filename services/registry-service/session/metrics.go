package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_submissions_total",
			Help: "Submissions by record kind and result",
		},
		[]string{"kind", "result"},
	)

	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_transitions_total",
			Help: "Committed review decisions by record kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	deletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_deletions_total",
			Help: "Records removed by batch deletion",
		},
		[]string{"kind"},
	)
)
