package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "story_sessions_created_total",
		Help: "Total number of sessions that started successfully.",
	})

	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_turns_total",
			Help: "Total number of resolved turns by action.",
		},
		[]string{"action"},
	)

	turnErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_turn_errors_total",
			Help: "Total number of rejected turns by action and HTTP status.",
		},
		[]string{"action", "status"},
	)

	storiesEndedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "story_endings_total",
		Help: "Total number of turns that reached an ending.",
	})
)
