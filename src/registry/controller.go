// Package registry wires the catalogue registry together and runs it.
package registry

import (
	"github.com/catalogue-registry/registry/src/lifecycle"
	"github.com/catalogue-registry/registry/src/notify"
	"github.com/catalogue-registry/registry/src/publication"
	"github.com/catalogue-registry/registry/src/search"
	"github.com/catalogue-registry/registry/src/security"
	"github.com/catalogue-registry/registry/src/store"
	"github.com/catalogue-registry/registry/src/utils/argo"
	"github.com/catalogue-registry/registry/src/utils/config"
	"github.com/catalogue-registry/registry/src/utils/model"
	monitor_registry "github.com/catalogue-registry/registry/src/utils/monitoring/registry"
	"github.com/catalogue-registry/registry/src/utils/publisher"
	"github.com/catalogue-registry/registry/src/utils/task"
)

type Controller struct {
	*task.Task

	Monitor *monitor_registry.Monitor

	// Entry points for embedding applications
	Manager *lifecycle.Manager
	Search  *search.Engine
	Sweeper *publication.Sweeper
	Server  *Server

	// Elevated subject for operations the registry triggers itself
	System *security.Subject
}

// Main class that orchestrates the registry.
// Drafts and mirrors are kept in Postgres, or in memory in development mode.
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)

	self.Task = task.NewTask(config, "controller")
	self.System = security.NewSystemCapability()

	self.Monitor = monitor_registry.NewMonitor().
		WithMaxHistorySize(30).
		WithMaxPendingJobs(config.Dispatcher.QueueSize)

	drafts, public, err := self.stores()
	if err != nil {
		return
	}

	// Mirror change notifications
	var notifier publication.Notifier
	var redisPublisher *publisher.RedisPublisher
	if config.Redis.Enabled {
		redisPublisher = publisher.NewRedisPublisher(config).
			WithMonitor(self.Monitor)
		notifier = redisPublisher
	} else {
		notifier = publisher.NewLogPublisher()
	}

	synchronizer := publication.NewSynchronizer(config).
		WithMonitor(self.Monitor).
		WithNotifier(notifier).
		WithDraftStore(drafts).
		WithPublicStore(public)

	dispatcher := publication.NewDispatcher(config).
		WithMonitor(self.Monitor).
		WithSynchronizer(synchronizer)

	self.Sweeper = publication.NewSweeper(config).
		WithMonitor(self.Monitor).
		WithSynchronizer(synchronizer).
		WithDraftStore(drafts).
		WithPublicStore(public)

	authority := security.NewStoreAuthority(drafts)

	self.Manager = lifecycle.NewManager(config).
		WithMonitor(self.Monitor).
		WithDraftStore(drafts).
		WithDispatcher(dispatcher).
		WithAuthority(authority).
		WithServiceTypeValidator(argo.NewClient(config.Argo))

	self.Search = search.NewEngine(config).
		WithMonitor(self.Monitor).
		WithAuthority(authority).
		WithDraftStore(drafts).
		WithPublicStore(public)

	self.Server = NewServer(config).
		WithMonitor(self.Monitor)

	self.Task = self.Task.
		WithSubtask(self.Monitor.Task).
		WithSubtask(self.Server.Task).
		WithSubtask(dispatcher.Task)

	if redisPublisher != nil {
		self.Task = self.Task.WithSubtask(redisPublisher.Task)
	}

	if config.Sweeper.Enabled {
		self.Task = self.Task.WithSubtask(self.Sweeper.Task)
	}

	if config.Redis.Enabled && config.Notifications.ConsumerEnabled {
		consumer := notify.NewConsumer(config).
			WithMonitor(self.Monitor).
			WithHandler(publisher.NewLogPublisher().Notify)
		self.Task = self.Task.WithSubtask(consumer.Task)
	}

	return
}

func (self *Controller) stores() (drafts, public store.Store, err error) {
	if self.Config.IsDevelopment {
		self.Log.Warn("Development mode, drafts and mirrors are kept in memory")
		return store.NewMemory(store.NamespaceDraft), store.NewMemory(store.NamespacePublic), nil
	}

	db, err := model.NewConnection(self.Ctx, self.Config, "registry")
	if err != nil {
		return
	}
	return store.NewPostgres(db, store.NamespaceDraft), store.NewPostgres(db, store.NamespacePublic), nil
}

// NewRepair builds a sweeper that runs once, outside of a running registry
func NewRepair(config *config.Config) (sweeper *publication.Sweeper, err error) {
	self := &Controller{Task: task.NewTask(config, "repair")}

	drafts, public, err := self.stores()
	if err != nil {
		return
	}

	monitor := monitor_registry.NewMonitor()

	synchronizer := publication.NewSynchronizer(config).
		WithMonitor(monitor).
		WithNotifier(publisher.NewLogPublisher()).
		WithDraftStore(drafts).
		WithPublicStore(public)

	sweeper = publication.NewSweeper(config).
		WithMonitor(monitor).
		WithSynchronizer(synchronizer).
		WithDraftStore(drafts).
		WithPublicStore(public)
	return
}
