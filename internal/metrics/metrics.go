// Package metrics has the Prometheus metrics of the dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RefreshTicksTotal counts refresh ticks.
	RefreshTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stagewatch",
			Subsystem: "refresh",
			Name:      "ticks_total",
			Help:      "Total number of refresh ticks",
		},
	)

	// FetchFailuresTotal counts failed backend fetches by endpoint.
	FetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stagewatch",
			Subsystem: "refresh",
			Name:      "fetch_failures_total",
			Help:      "Total number of failed backend fetches by endpoint",
		},
		[]string{"endpoint"}, // "status", "structure", "errors", "interval"
	)

	// TickDuration tracks how long the fetches of a tick take to settle.
	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "stagewatch",
			Subsystem: "refresh",
			Name:      "tick_duration_seconds",
			Help:      "Refresh tick duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// RefreshIntervalSeconds is the current refresh interval.
	RefreshIntervalSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stagewatch",
			Subsystem: "refresh",
			Name:      "interval_seconds",
			Help:      "Current refresh interval in seconds",
		},
	)

	// StatusNodes tracks the nodes reported by the backend by state.
	StatusNodes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "stagewatch",
			Subsystem: "backend",
			Name:      "nodes",
			Help:      "Number of backend nodes by state",
		},
		[]string{"state"}, // "not-started", "running", "stopped"
	)

	// HTTPRequestsTotal counts dashboard HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stagewatch",
			Subsystem: "web",
			Name:      "requests_total",
			Help:      "Total number of dashboard HTTP requests by route and code",
		},
		[]string{"route", "code"},
	)
)
