package monitor_registry

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// Lifecycle
	LifecycleOperations *prometheus.Desc
	LifecycleErrors     *prometheus.Desc

	// Dispatcher
	JobsEnqueued *prometheus.Desc
	JobsDone     *prometheus.Desc
	PendingJobs  *prometheus.Desc
	JobsDropped  *prometheus.Desc

	// Synchronizer
	MirrorsSynced                 *prometheus.Desc
	AverageMirrorsSyncedPerMinute *prometheus.Desc
	MirrorWriteErrors             *prometheus.Desc
	NotifyErrors                  *prometheus.Desc

	// Sweeper
	SweeperRuns           *prometheus.Desc
	SweeperLastRun        *prometheus.Desc
	OrphanMirrorsDeleted  *prometheus.Desc
	SweeperReconcileError *prometheus.Desc

	// Redis publisher
	RedisPublishErrors     *prometheus.Desc
	RedisPersistentErrors  *prometheus.Desc
	RedisMessagesPublished *prometheus.Desc
	RedisPoolHits          *prometheus.Desc
	RedisPoolMisses        *prometheus.Desc
	RedisPoolTimeouts      *prometheus.Desc
	RedisPoolTotalConns    *prometheus.Desc

	// Consumer
	ConsumerMessagesHandled   *prometheus.Desc
	ConsumerDuplicatesDropped *prometheus.Desc

	// Search
	SearchQueries    *prometheus.Desc
	SearchErrors     *prometheus.Desc
	FacetCorrections *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		// Run
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, nil),

		// Lifecycle
		LifecycleOperations: prometheus.NewDesc("lifecycle_operations", "", []string{"operation"}, nil),
		LifecycleErrors:     prometheus.NewDesc("error_lifecycle", "", []string{"kind"}, nil),

		// Dispatcher
		JobsEnqueued: prometheus.NewDesc("dispatcher_jobs_enqueued", "", nil, nil),
		JobsDone:     prometheus.NewDesc("dispatcher_jobs_done", "", nil, nil),
		PendingJobs:  prometheus.NewDesc("dispatcher_pending_jobs", "", nil, nil),
		JobsDropped:  prometheus.NewDesc("error_dispatcher_jobs_dropped", "", nil, nil),

		// Synchronizer
		MirrorsSynced:                 prometheus.NewDesc("mirrors_synced", "", []string{"operation"}, nil),
		AverageMirrorsSyncedPerMinute: prometheus.NewDesc("average_mirrors_synced_per_minute", "", nil, nil),
		MirrorWriteErrors:             prometheus.NewDesc("error_mirror_write", "", nil, nil),
		NotifyErrors:                  prometheus.NewDesc("error_notify", "", nil, nil),

		// Sweeper
		SweeperRuns:           prometheus.NewDesc("sweeper_runs", "", nil, nil),
		SweeperLastRun:        prometheus.NewDesc("sweeper_last_run_timestamp", "", nil, nil),
		OrphanMirrorsDeleted:  prometheus.NewDesc("sweeper_orphan_mirrors_deleted", "", nil, nil),
		SweeperReconcileError: prometheus.NewDesc("error_sweeper_reconcile", "", nil, nil),

		// Redis publisher
		RedisPublishErrors:     prometheus.NewDesc("error_redis_publish_errors", "", nil, nil),
		RedisPersistentErrors:  prometheus.NewDesc("error_redis_persistent_errors", "", nil, nil),
		RedisMessagesPublished: prometheus.NewDesc("redis_messages_published", "", nil, nil),
		RedisPoolHits:          prometheus.NewDesc("redis_pool_hits", "", nil, nil),
		RedisPoolMisses:        prometheus.NewDesc("redis_pool_misses", "", nil, nil),
		RedisPoolTimeouts:      prometheus.NewDesc("redis_pool_timeouts", "", nil, nil),
		RedisPoolTotalConns:    prometheus.NewDesc("redis_pool_total_conns", "", nil, nil),

		// Consumer
		ConsumerMessagesHandled:   prometheus.NewDesc("consumer_messages_handled", "", nil, nil),
		ConsumerDuplicatesDropped: prometheus.NewDesc("consumer_duplicates_dropped", "", nil, nil),

		// Search
		SearchQueries:    prometheus.NewDesc("search_queries", "", nil, nil),
		SearchErrors:     prometheus.NewDesc("error_search_query", "", nil, nil),
		FacetCorrections: prometheus.NewDesc("search_facet_corrections", "", nil, nil),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	// Run
	ch <- self.UpForSeconds

	// Lifecycle
	ch <- self.LifecycleOperations
	ch <- self.LifecycleErrors

	// Dispatcher
	ch <- self.JobsEnqueued
	ch <- self.JobsDone
	ch <- self.PendingJobs
	ch <- self.JobsDropped

	// Synchronizer
	ch <- self.MirrorsSynced
	ch <- self.AverageMirrorsSyncedPerMinute
	ch <- self.MirrorWriteErrors
	ch <- self.NotifyErrors

	// Sweeper
	ch <- self.SweeperRuns
	ch <- self.SweeperLastRun
	ch <- self.OrphanMirrorsDeleted
	ch <- self.SweeperReconcileError

	// Redis publisher
	ch <- self.RedisPublishErrors
	ch <- self.RedisPersistentErrors
	ch <- self.RedisMessagesPublished
	ch <- self.RedisPoolHits
	ch <- self.RedisPoolMisses
	ch <- self.RedisPoolTimeouts
	ch <- self.RedisPoolTotalConns

	// Consumer
	ch <- self.ConsumerMessagesHandled
	ch <- self.ConsumerDuplicatesDropped

	// Search
	ch <- self.SearchQueries
	ch <- self.SearchErrors
	ch <- self.FacetCorrections
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	r := &self.monitor.Report

	// Run
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(r.Run.State.UpForSeconds.Load()))

	// Lifecycle
	for operation, v := range map[string]uint64{
		"add":        r.Lifecycle.State.Added.Load(),
		"update":     r.Lifecycle.State.Updated.Load(),
		"verify":     r.Lifecycle.State.Verified.Load(),
		"publish":    r.Lifecycle.State.Published.Load(),
		"audit":      r.Lifecycle.State.Audited.Load(),
		"delete":     r.Lifecycle.State.Deleted.Load(),
		"guidelines": r.Lifecycle.State.GuidelinesUpdated.Load(),
	} {
		ch <- prometheus.MustNewConstMetric(self.LifecycleOperations, prometheus.CounterValue, float64(v), operation)
	}
	for kind, v := range map[string]uint64{
		"validation":   r.Lifecycle.Errors.Validation.Load(),
		"not_found":    r.Lifecycle.Errors.NotFound.Load(),
		"conflict":     r.Lifecycle.Errors.Conflict.Load(),
		"unauthorized": r.Lifecycle.Errors.Unauthorized.Load(),
		"store":        r.Lifecycle.Errors.Store.Load(),
	} {
		ch <- prometheus.MustNewConstMetric(self.LifecycleErrors, prometheus.CounterValue, float64(v), kind)
	}

	// Dispatcher
	ch <- prometheus.MustNewConstMetric(self.JobsEnqueued, prometheus.CounterValue, float64(r.Dispatcher.State.JobsEnqueued.Load()))
	ch <- prometheus.MustNewConstMetric(self.JobsDone, prometheus.CounterValue, float64(r.Dispatcher.State.JobsDone.Load()))
	ch <- prometheus.MustNewConstMetric(self.PendingJobs, prometheus.GaugeValue, float64(r.Dispatcher.State.PendingJobs.Load()))
	ch <- prometheus.MustNewConstMetric(self.JobsDropped, prometheus.CounterValue, float64(r.Dispatcher.Errors.JobsDropped.Load()))

	// Synchronizer
	ch <- prometheus.MustNewConstMetric(self.MirrorsSynced, prometheus.CounterValue, float64(r.Synchronizer.State.MirrorsCreated.Load()), "create")
	ch <- prometheus.MustNewConstMetric(self.MirrorsSynced, prometheus.CounterValue, float64(r.Synchronizer.State.MirrorsUpdated.Load()), "update")
	ch <- prometheus.MustNewConstMetric(self.MirrorsSynced, prometheus.CounterValue, float64(r.Synchronizer.State.MirrorsDeleted.Load()), "delete")
	ch <- prometheus.MustNewConstMetric(self.AverageMirrorsSyncedPerMinute, prometheus.GaugeValue, r.Synchronizer.State.AverageMirrorsSyncedPerMinute.Load())
	ch <- prometheus.MustNewConstMetric(self.MirrorWriteErrors, prometheus.CounterValue, float64(r.Synchronizer.Errors.MirrorWrite.Load()))
	ch <- prometheus.MustNewConstMetric(self.NotifyErrors, prometheus.CounterValue, float64(r.Synchronizer.Errors.Notify.Load()))

	// Sweeper
	ch <- prometheus.MustNewConstMetric(self.SweeperRuns, prometheus.CounterValue, float64(r.Sweeper.State.Runs.Load()))
	ch <- prometheus.MustNewConstMetric(self.SweeperLastRun, prometheus.GaugeValue, float64(r.Sweeper.State.LastRunTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.OrphanMirrorsDeleted, prometheus.CounterValue, float64(r.Sweeper.State.OrphanMirrorsDeleted.Load()))
	ch <- prometheus.MustNewConstMetric(self.SweeperReconcileError, prometheus.CounterValue, float64(r.Sweeper.Errors.Reconcile.Load()))

	// Redis publisher
	ch <- prometheus.MustNewConstMetric(self.RedisPublishErrors, prometheus.CounterValue, float64(r.RedisPublisher.Errors.Publish.Load()))
	ch <- prometheus.MustNewConstMetric(self.RedisPersistentErrors, prometheus.CounterValue, float64(r.RedisPublisher.Errors.PersistentFailure.Load()))
	ch <- prometheus.MustNewConstMetric(self.RedisMessagesPublished, prometheus.CounterValue, float64(r.RedisPublisher.State.MessagesPublished.Load()))
	ch <- prometheus.MustNewConstMetric(self.RedisPoolHits, prometheus.GaugeValue, float64(r.RedisPublisher.State.PoolHits.Load()))
	ch <- prometheus.MustNewConstMetric(self.RedisPoolMisses, prometheus.GaugeValue, float64(r.RedisPublisher.State.PoolMisses.Load()))
	ch <- prometheus.MustNewConstMetric(self.RedisPoolTimeouts, prometheus.GaugeValue, float64(r.RedisPublisher.State.PoolTimeouts.Load()))
	ch <- prometheus.MustNewConstMetric(self.RedisPoolTotalConns, prometheus.GaugeValue, float64(r.RedisPublisher.State.PoolTotalConns.Load()))

	// Consumer
	ch <- prometheus.MustNewConstMetric(self.ConsumerMessagesHandled, prometheus.CounterValue, float64(r.Consumer.State.MessagesHandled.Load()))
	ch <- prometheus.MustNewConstMetric(self.ConsumerDuplicatesDropped, prometheus.CounterValue, float64(r.Consumer.State.DuplicatesDropped.Load()))

	// Search
	ch <- prometheus.MustNewConstMetric(self.SearchQueries, prometheus.CounterValue, float64(r.Search.State.Queries.Load()))
	ch <- prometheus.MustNewConstMetric(self.SearchErrors, prometheus.CounterValue, float64(r.Search.Errors.Query.Load()))
	ch <- prometheus.MustNewConstMetric(self.FacetCorrections, prometheus.CounterValue, float64(r.Search.State.FacetCorrections.Load()))
}
