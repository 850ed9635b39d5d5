package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tracker, pipeline and RPC instrumentation, partitioned by network.

var (
	// Tracker
	TrackerPendingTransactions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "txtracker",
		Subsystem: "tracker",
		Name:      "pending_transactions",
		Help:      "Transactions submitted but not yet settled in any block",
	}, []string{"network"})

	TrackerBlocksTracked = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "txtracker",
		Subsystem: "tracker",
		Name:      "blocks_tracked",
		Help:      "Blocks in the fork tree above the last finalized block",
	}, []string{"network"})

	TrackerUnfinalizedSettlements = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "txtracker",
		Subsystem: "tracker",
		Name:      "unfinalized_settlements",
		Help:      "Settlement records waiting for their block to finalize",
	}, []string{"network"})

	TrackerSettledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txtracker",
		Subsystem: "tracker",
		Name:      "settled_total",
		Help:      "Total settlement callbacks emitted, by outcome type",
	}, []string{"network", "outcome"})

	TrackerDoneTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txtracker",
		Subsystem: "tracker",
		Name:      "done_total",
		Help:      "Total done callbacks emitted on finalization",
	}, []string{"network"})

	TrackerFinalizedBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txtracker",
		Subsystem: "tracker",
		Name:      "finalized_blocks_total",
		Help:      "Blocks promoted to finalized by finalization events",
	}, []string{"network"})

	TrackerPrunedBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txtracker",
		Subsystem: "tracker",
		Name:      "pruned_blocks_total",
		Help:      "Abandoned fork blocks pruned and unpinned after finalization",
	}, []string{"network"})

	TrackerFinalityGapsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txtracker",
		Subsystem: "tracker",
		Name:      "finality_gaps_total",
		Help:      "Finalization walks that stopped early on a missing parent link",
	}, []string{"network"})

	// Pipeline
	PipelineEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txtracker",
		Subsystem: "pipeline",
		Name:      "events_total",
		Help:      "Total events consumed from the stream, by kind",
	}, []string{"network", "kind"})

	PipelineEventErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txtracker",
		Subsystem: "pipeline",
		Name:      "event_errors_total",
		Help:      "Total events whose handling failed",
	}, []string{"network", "kind"})

	PipelineEventLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "txtracker",
		Subsystem: "pipeline",
		Name:      "event_duration_seconds",
		Help:      "Per-event handling duration",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"network", "kind"})

	SourceDecodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txtracker",
		Subsystem: "source",
		Name:      "decode_errors_total",
		Help:      "Event log lines that failed to decode and were skipped",
	}, []string{"network"})

	// RPC
	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txtracker",
		Subsystem: "rpc",
		Name:      "calls_total",
		Help:      "Total node RPC calls by method and status",
	}, []string{"method", "status"})

	RPCCallLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "txtracker",
		Subsystem: "rpc",
		Name:      "call_duration_seconds",
		Help:      "Node RPC call duration",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method"})

	RPCRateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txtracker",
		Subsystem: "rpc",
		Name:      "rate_limit_waits_total",
		Help:      "RPC calls that had to wait for a rate limit token",
	}, []string{"network"})

	RPCRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txtracker",
		Subsystem: "rpc",
		Name:      "retries_total",
		Help:      "RPC call retries after transient failures",
	}, []string{"method"})

	RPCBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "txtracker",
		Subsystem: "rpc",
		Name:      "breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"network"})

	// Cache
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txtracker",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Query cache hits by query kind",
	}, []string{"query"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txtracker",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Query cache misses by query kind",
	}, []string{"query"})

	// Alerts
	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txtracker",
		Subsystem: "alerts",
		Name:      "sent_total",
		Help:      "Alerts successfully dispatched per channel",
	}, []string{"channel", "type"})

	AlertsCooldownSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "txtracker",
		Subsystem: "alerts",
		Name:      "cooldown_skipped_total",
		Help:      "Alerts suppressed by the cooldown window",
	}, []string{"channel", "type"})
)
