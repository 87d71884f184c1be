package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
	OutcomeRejected   = "rejected"
	OutcomeMalformed  = "malformed"
	OutcomeNoop       = "noop"
)

var (
	SyncOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "sync_operations_total",
			Help:      "Cart and wishlist synchronizer operations by outcome.",
		},
		[]string{"collection", "operation", "outcome"},
	)

	RemoteCalls = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "profile_request_duration_seconds",
			Help:      "Latency of profile service requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	EvictedSessions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "evicted_sessions_total",
			Help:      "Session stores dropped from memory after going idle.",
		},
	)
)
