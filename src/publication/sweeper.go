package publication

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/publicid"
	"github.com/catalogue-registry/registry/src/store"
	"github.com/catalogue-registry/registry/src/utils/config"
	"github.com/catalogue-registry/registry/src/utils/monitoring"
	monitor_registry "github.com/catalogue-registry/registry/src/utils/monitoring/registry"
	"github.com/catalogue-registry/registry/src/utils/task"

	"github.com/robfig/cron"
	"go.uber.org/atomic"
	"go.uber.org/ratelimit"
)

// Sweeper periodically walks all drafts and mirrors and repairs whatever the dispatcher missed
type Sweeper struct {
	*task.Task

	monitor      monitoring.Monitor
	synchronizer *Synchronizer

	drafts store.Store
	public store.Store

	cron    *cron.Cron
	limiter ratelimit.Limiter
	running *atomic.Bool
}

func NewSweeper(config *config.Config) (self *Sweeper) {
	self = new(Sweeper)
	// Local counters until a shared monitor is set
	self.monitor = monitor_registry.NewMonitor()

	self.cron = cron.New()
	self.limiter = ratelimit.New(config.Sweeper.MaxPerSecond)
	self.running = atomic.NewBool(false)

	self.Task = task.NewTask(config, "sweeper").
		WithOnBeforeStart(self.schedule).
		WithSubtaskFunc(self.run).
		WithOnStop(self.cron.Stop)

	return
}

func (self *Sweeper) WithMonitor(v monitoring.Monitor) *Sweeper {
	self.monitor = v
	return self
}

func (self *Sweeper) WithSynchronizer(v *Synchronizer) *Sweeper {
	self.synchronizer = v
	return self
}

func (self *Sweeper) WithDraftStore(v store.Store) *Sweeper {
	self.drafts = v
	return self
}

func (self *Sweeper) WithPublicStore(v store.Store) *Sweeper {
	self.public = v
	return self
}

func (self *Sweeper) schedule() error {
	return self.cron.AddFunc(self.Config.Sweeper.Schedule, func() {
		err := self.RunOnce(self.Ctx)
		if err != nil {
			self.Log.WithError(err).Error("Sweep failed")
		}
	})
}

func (self *Sweeper) run() error {
	self.cron.Start()
	<-self.StopChannel
	return nil
}

// RunOnce reconciles every draft and removes mirrors whose draft is gone
func (self *Sweeper) RunOnce(ctx context.Context) (err error) {
	if !self.running.CompareAndSwap(false, true) {
		self.Log.Info("Previous sweep still running, skipping")
		return nil
	}
	defer self.running.Store(false)

	start := time.Now()
	self.Log.Info("Sweep started")

	err = self.reconcileDrafts(ctx)
	if err != nil {
		return
	}

	err = self.deleteOrphans(ctx)
	if err != nil {
		return
	}

	state := &self.monitor.GetReport().Sweeper.State
	state.Runs.Inc()
	state.LastRunTimestamp.Store(time.Now().Unix())
	state.LastRunDurationMs.Store(time.Since(start).Milliseconds())
	self.Log.WithField("duration", time.Since(start)).Info("Sweep finished")
	return
}

// Calls f for every bundle in the store, page by page
func (self *Sweeper) walk(ctx context.Context, st store.Store, f func(*catalogue.Bundle)) error {
	ff := store.NewFacetFilter()
	ff.OrderBy = store.OrderBy{Field: string(catalogue.FieldInternalId)}

	err := store.Walk(ctx, st, ff, self.Config.Sweeper.PageSize, func(b *catalogue.Bundle) error {
		f(b)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		self.monitor.GetReport().Sweeper.Errors.Query.Inc()
	}
	return err
}

func (self *Sweeper) reconcileDrafts(ctx context.Context) error {
	return self.walk(ctx, self.drafts, func(draft *catalogue.Bundle) {
		self.limiter.Take()
		self.monitor.GetReport().Sweeper.State.DraftsVisited.Inc()

		err := self.synchronizer.Reconcile(ctx, draft)
		if err != nil {
			self.monitor.GetReport().Sweeper.Errors.Reconcile.Inc()
			self.Log.WithError(err).WithField("key", draft.Key()).Warn("Failed to reconcile draft")
		}
	})
}

// Id of the draft the mirror was made from
func originalIdOf(mirror *catalogue.Bundle) string {
	if mirror.Identifiers.OriginalId != "" {
		return mirror.Identifiers.OriginalId
	}
	return strings.TrimPrefix(mirror.Id, mirror.CatalogueId+publicid.Separator)
}

func (self *Sweeper) deleteOrphans(ctx context.Context) (err error) {
	// Collected first, deleting while paging would shift the pages
	var orphans []*catalogue.Bundle
	err = self.walk(ctx, self.public, func(mirror *catalogue.Bundle) {
		_, err := self.drafts.Get(ctx, mirror.Type, originalIdOf(mirror), mirror.CatalogueId)
		if errors.Is(err, catalogue.ErrNotFound) {
			orphans = append(orphans, mirror)
		}
	})
	if err != nil {
		return
	}

	for _, mirror := range orphans {
		self.limiter.Take()

		err = self.synchronizer.deleteMirror(ctx, mirror.Type, mirror.Id, mirror.CatalogueId, originalIdOf(mirror))
		if err != nil {
			self.monitor.GetReport().Sweeper.Errors.Reconcile.Inc()
			continue
		}
		self.monitor.GetReport().Sweeper.State.OrphanMirrorsDeleted.Inc()
	}
	return nil
}
