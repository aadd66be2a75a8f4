package report

import (
	"go.uber.org/atomic"
)

type DispatcherErrors struct {
	JobsDropped atomic.Uint64 `json:"jobs_dropped"`
}

type DispatcherState struct {
	JobsEnqueued atomic.Uint64 `json:"jobs_enqueued"`
	JobsDone     atomic.Uint64 `json:"jobs_done"`
	PendingJobs  atomic.Int64  `json:"pending_jobs"`
}

type DispatcherReport struct {
	State  DispatcherState  `json:"state"`
	Errors DispatcherErrors `json:"errors"`
}

type SynchronizerErrors struct {
	MirrorWrite      atomic.Uint64 `json:"mirror_write"`
	MirrorRead       atomic.Uint64 `json:"mirror_read"`
	PrefixRepetition atomic.Uint64 `json:"prefix_repetition"`
	Notify           atomic.Uint64 `json:"notify"`
}

type SynchronizerState struct {
	MirrorsCreated atomic.Uint64 `json:"mirrors_created"`
	MirrorsUpdated atomic.Uint64 `json:"mirrors_updated"`
	MirrorsDeleted atomic.Uint64 `json:"mirrors_deleted"`
	Skipped        atomic.Uint64 `json:"skipped"`

	AverageMirrorsSyncedPerMinute atomic.Float64 `json:"average_mirrors_synced_per_minute"`
}

type SynchronizerReport struct {
	State  SynchronizerState  `json:"state"`
	Errors SynchronizerErrors `json:"errors"`
}

type SweeperErrors struct {
	Query     atomic.Uint64 `json:"query"`
	Reconcile atomic.Uint64 `json:"reconcile"`
}

type SweeperState struct {
	Runs                 atomic.Uint64 `json:"runs"`
	LastRunTimestamp     atomic.Int64  `json:"last_run_timestamp"`
	LastRunDurationMs    atomic.Int64  `json:"last_run_duration_ms"`
	DraftsVisited        atomic.Uint64 `json:"drafts_visited"`
	OrphanMirrorsDeleted atomic.Uint64 `json:"orphan_mirrors_deleted"`
}

type SweeperReport struct {
	State  SweeperState  `json:"state"`
	Errors SweeperErrors `json:"errors"`
}
