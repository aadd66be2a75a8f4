package publisher

import (
	"context"
	"errors"
	"time"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/utils/config"
	"github.com/catalogue-registry/registry/src/utils/model"
	"github.com/catalogue-registry/registry/src/utils/monitoring"
	monitor_registry "github.com/catalogue-registry/registry/src/utils/monitoring/registry"
	"github.com/catalogue-registry/registry/src/utils/task"

	"github.com/redis/go-redis/v9"
)

var ErrQueueFull = errors.New("notification queue is full")

// Appends mirror change notifications to Redis streams, one stream per topic
type RedisPublisher struct {
	*task.Task

	monitor monitoring.Monitor

	client *redis.Client
	input  chan *model.Notification
}

func NewRedisPublisher(config *config.Config) (self *RedisPublisher) {
	self = new(RedisPublisher)
	// Local counters until a shared monitor is set
	self.monitor = monitor_registry.NewMonitor()

	self.input = make(chan *model.Notification, config.Notifications.QueueSize)

	self.Task = task.NewTask(config, "redis-publisher").
		WithOnBeforeStart(self.connect).
		WithSubtaskFunc(self.run).
		WithPeriodicSubtaskFunc(30*time.Second, self.monitorPool).
		WithWorkerPool(config.Notifications.MaxWorkers).
		WithOnAfterStop(self.disconnect)

	return
}

func (self *RedisPublisher) WithMonitor(monitor monitoring.Monitor) *RedisPublisher {
	self.monitor = monitor
	return self
}

// Stream the notification is appended to
func (self *RedisPublisher) Stream(notification *model.Notification) string {
	return self.Config.Notifications.StreamPrefix + catalogue.Topic(notification.EntityType, notification.Operation)
}

// Notify queues the notification. It never blocks the caller.
func (self *RedisPublisher) Notify(ctx context.Context, notification *model.Notification) error {
	select {
	case self.input <- notification:
		return nil
	default:
		self.monitor.GetReport().RedisPublisher.Errors.QueueFull.Inc()
		return catalogue.Sync(ErrQueueFull, "dropping %s", notification.Topic())
	}
}

func (self *RedisPublisher) connect() (err error) {
	self.client, err = NewClient(self.Ctx, self.Config.Redis, self.Name)
	if err != nil {
		self.Log.WithError(err).Error("Failed to connect to Redis")
	}
	return
}

func (self *RedisPublisher) disconnect() {
	if self.client == nil {
		return
	}
	err := self.client.Close()
	if err != nil {
		self.Log.WithError(err).Error("Failed to close connection")
	}
}

func (self *RedisPublisher) monitorPool() error {
	stats := self.client.PoolStats()
	state := &self.monitor.GetReport().RedisPublisher.State
	state.PoolHits.Store(stats.Hits)
	state.PoolMisses.Store(stats.Misses)
	state.PoolTimeouts.Store(stats.Timeouts)
	state.PoolTotalConns.Store(stats.TotalConns)
	state.PoolIdleConns.Store(stats.IdleConns)
	state.PoolStaleConns.Store(stats.StaleConns)
	return nil
}

func (self *RedisPublisher) run() (err error) {
	for {
		select {
		case <-self.StopChannel:
			self.Log.Debug("Publisher stopped")
			return nil
		case notification := <-self.input:
			self.SubmitToWorker(func() {
				self.publish(notification)
			})
		}
	}
}

func (self *RedisPublisher) publish(notification *model.Notification) {
	stream := self.Stream(notification)

	err := task.NewRetry().
		WithContext(self.Ctx).
		WithMaxElapsedTime(self.Config.Notifications.MaxElapsedTime).
		WithMaxInterval(self.Config.Notifications.MaxInterval).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			self.Log.WithError(err).WithField("stream", stream).Warn("Failed to publish notification, retrying")
			self.monitor.GetReport().RedisPublisher.Errors.Publish.Inc()
			return err
		}).
		Run(func() error {
			return self.client.XAdd(self.Ctx, &redis.XAddArgs{
				Stream: stream,
				MaxLen: self.Config.Notifications.MaxStreamLength,
				Approx: true,
				Values: map[string]interface{}{"notification": notification},
			}).Err()
		})
	if err != nil {
		self.Log.WithError(err).WithField("stream", stream).Error("Failed to publish notification, giving up")
		self.monitor.GetReport().RedisPublisher.Errors.PersistentFailure.Inc()
		return
	}

	self.monitor.GetReport().RedisPublisher.State.MessagesPublished.Inc()
	self.monitor.GetReport().RedisPublisher.State.LastSuccessfulMessageTimestamp.Store(time.Now().Unix())
}
