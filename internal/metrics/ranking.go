package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "simdex"

// Ranking engine metrics.
var (
	RankingPairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_pairs_total",
			Help:      "Pairwise comparisons by outcome",
		},
		[]string{"operation", "status"}, // status: ok / error / timeout
	)

	RankingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ranking_duration_seconds",
			Help:      "Batch ranking duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation", "mode"}, // mode: parallel / sequential
	)

	RankingFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_fallback_total",
			Help:      "Batches recomputed sequentially after the worker pool failed",
		},
		[]string{"operation"},
	)

	RankingCandidatesTruncatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_candidates_truncated_total",
			Help:      "Batches whose candidate list exceeded the configured cap",
		},
		[]string{"operation"},
	)

	GLPIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "glpi_requests_total",
			Help:      "GLPI REST API requests",
		},
		[]string{"endpoint", "status"},
	)

	GLPIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "glpi_request_duration_seconds",
			Help:      "GLPI REST API request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	TicketCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_cache_total",
			Help:      "Ticket cache hits and misses",
		},
		[]string{"kind", "result"}, // kind: ticket / candidates, result: hit / miss
	)

	MCPToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mcp_tool_calls_total",
			Help:      "MCP tool invocations by outcome",
		},
		[]string{"tool", "status"},
	)
)

var registerOnce sync.Once

// Register registers the HTTP and service metrics with the default registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			httpResponseBytes,
			httpRequestsInFlight,
			RankingPairsTotal,
			RankingDuration,
			RankingFallbackTotal,
			RankingCandidatesTruncatedTotal,
			GLPIRequestsTotal,
			GLPIRequestDuration,
			TicketCacheTotal,
			MCPToolCallsTotal,
		)
	})
}
