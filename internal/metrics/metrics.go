// Package metrics holds the prometheus collectors exported by sgrsearch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchRequests counts coordinator searches by scope and outcome
	// (committed, cached, stale, failed, empty).
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sgrsearch_search_requests_total",
			Help: "Searches handled by the coordinator by scope and outcome",
		},
		[]string{"scope", "outcome"},
	)

	// BackendCalls counts backend search calls by source and outcome.
	BackendCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sgrsearch_backend_calls_total",
			Help: "Backend search calls by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// BackendRetries counts retry-on-empty attempts by source.
	BackendRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sgrsearch_backend_empty_retries_total",
			Help: "Retries issued because a backend returned no items",
		},
		[]string{"source"},
	)

	// BackendLatency tracks backend search latency by source.
	BackendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sgrsearch_backend_search_seconds",
			Help:    "Backend search latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// PluginRequests counts correlated plugin requests by action and outcome
	// (ok, error, timeout, cancelled).
	PluginRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sgrsearch_plugin_requests_total",
			Help: "Plugin requests by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	// PluginPending tracks requests waiting for a plugin response.
	PluginPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sgrsearch_plugin_pending_requests",
			Help: "Plugin requests waiting for a correlated response",
		},
	)

	// SearchSessions tracks the per-user search sessions held in memory.
	SearchSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sgrsearch_search_sessions",
			Help: "Per-user search sessions held in memory",
		},
	)

	// Interactions counts slash command invocations by command and outcome
	// (ok, error, unknown).
	Interactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sgrsearch_interactions_total",
			Help: "Slash command invocations by command and outcome",
		},
		[]string{"command", "outcome"},
	)

	// InteractionLatency tracks slash command handling time by command.
	InteractionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sgrsearch_interaction_seconds",
			Help:    "Slash command handling time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
)
