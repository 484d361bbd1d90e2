// Package telemetry defines the Prometheus collectors for the search
// pipeline. The HTTP server exposes them on /metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchRequests counts /api/search requests by outcome (ok, error,
	// cache_hit, fast_path).
	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finsearch",
		Name:      "search_requests_total",
		Help:      "Search requests by outcome.",
	}, []string{"outcome"})

	// SearchDuration tracks end-to-end search latency.
	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "finsearch",
		Name:      "search_duration_seconds",
		Help:      "End-to-end search latency.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	// PlannerOutcomes counts planner runs by result (ok, parse_fallback,
	// llm_error).
	PlannerOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finsearch",
		Name:      "planner_outcomes_total",
		Help:      "Query planner runs by outcome.",
	}, []string{"outcome"})

	// TaskResults counts fan-out task completions by task kind and status.
	TaskResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finsearch",
		Name:      "task_results_total",
		Help:      "Provider task completions by kind and status.",
	}, []string{"kind", "status"})

	// CacheOps counts cache lookups by cache name (plan, response) and
	// result (hit, miss, error).
	CacheOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finsearch",
		Name:      "cache_ops_total",
		Help:      "Cache lookups by cache and result.",
	}, []string{"cache", "result"})
)
