package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storygraph_sessions_created_total",
		Help: "Total number of traversal sessions created.",
	})

	advancesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storygraph_advances_total",
			Help: "Total number of advance requests by outcome.",
		},
		[]string{"outcome"},
	)

	eventStreamsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storygraph_event_streams_active",
		Help: "Number of connected SSE event streams.",
	})
)
