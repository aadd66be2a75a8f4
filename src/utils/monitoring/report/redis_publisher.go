package report

import (
	"go.uber.org/atomic"
)

type RedisPublisherErrors struct {
	Publish           atomic.Uint64 `json:"publish"`
	PersistentFailure atomic.Uint64 `json:"persistent"`
	QueueFull         atomic.Uint64 `json:"queue_full"`
}

type RedisPublisherState struct {
	LastSuccessfulMessageTimestamp atomic.Int64  `json:"last_successful_message_timestamp"`
	MessagesPublished              atomic.Uint64 `json:"messages_published"`

	// Connection pool, refreshed by the monitor
	PoolHits       atomic.Uint32 `json:"pool_hits"`
	PoolMisses     atomic.Uint32 `json:"pool_misses"`
	PoolTimeouts   atomic.Uint32 `json:"pool_timeouts"`
	PoolTotalConns atomic.Uint32 `json:"pool_total_conns"`
	PoolIdleConns  atomic.Uint32 `json:"pool_idle_conns"`
	PoolStaleConns atomic.Uint32 `json:"pool_stale_conns"`
}

type RedisPublisherReport struct {
	State  RedisPublisherState  `json:"state"`
	Errors RedisPublisherErrors `json:"errors"`
}
