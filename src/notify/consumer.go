// Package notify reads mirror change notifications back from the Redis streams.
package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/utils/config"
	"github.com/catalogue-registry/registry/src/utils/model"
	"github.com/catalogue-registry/registry/src/utils/monitoring"
	monitor_registry "github.com/catalogue-registry/registry/src/utils/monitoring/registry"
	"github.com/catalogue-registry/registry/src/utils/publisher"
	"github.com/catalogue-registry/registry/src/utils/task"

	"github.com/redis/go-redis/v9"
)

// HandlerFunc processes one notification. Messages whose handler fails stay pending and are read again after restart.
type HandlerFunc func(ctx context.Context, notification *model.Notification) error

// Consumer reads every notification stream as a member of a consumer group.
// Redeliveries of the same change are dropped before reaching the handler.
type Consumer struct {
	*task.Task

	monitor monitoring.Monitor
	client  *redis.Client
	dedup   *Deduplicator
	handler HandlerFunc

	streams []string
}

func NewConsumer(config *config.Config) (self *Consumer) {
	self = new(Consumer)
	// Local counters until a shared monitor is set
	self.monitor = monitor_registry.NewMonitor()

	self.dedup = NewDeduplicator(config.Notifications.DeduplicationTTL)
	self.streams = Streams(config.Notifications.StreamPrefix)

	self.Task = task.NewTask(config, "consumer").
		WithOnBeforeStart(self.connect).
		WithSubtaskFunc(self.run).
		WithOnAfterStop(self.disconnect)

	return
}

func (self *Consumer) WithMonitor(monitor monitoring.Monitor) *Consumer {
	self.monitor = monitor
	return self
}

func (self *Consumer) WithHandler(handler HandlerFunc) *Consumer {
	self.handler = handler
	return self
}

// Streams lists every stream the publisher may append to
func Streams(prefix string) (out []string) {
	ops := []catalogue.Operation{catalogue.OperationCreate, catalogue.OperationUpdate, catalogue.OperationDelete}
	for _, t := range catalogue.EntityTypes {
		for _, op := range ops {
			out = append(out, prefix+catalogue.Topic(t, op))
		}
	}
	return
}

func (self *Consumer) connect() (err error) {
	self.client, err = publisher.NewClient(self.Ctx, self.Config.Redis, self.Name)
	if err != nil {
		self.Log.WithError(err).Error("Failed to connect to Redis")
		return
	}

	for _, stream := range self.streams {
		err = self.client.XGroupCreateMkStream(self.Ctx, stream, self.Config.Notifications.ConsumerGroup, "$").Err()
		if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			self.Log.WithError(err).WithField("stream", stream).Error("Failed to create consumer group")
			return
		}
	}
	return nil
}

func (self *Consumer) disconnect() {
	if self.client == nil {
		return
	}
	err := self.client.Close()
	if err != nil {
		self.Log.WithError(err).Error("Failed to close connection")
	}
}

// Reads a batch starting at id. ">" means messages never delivered to the group, "0" this consumer's pending ones.
func (self *Consumer) read(id string) (out []redis.XStream, err error) {
	args := make([]string, 0, 2*len(self.streams))
	args = append(args, self.streams...)
	for range self.streams {
		args = append(args, id)
	}

	out, err = self.client.XReadGroup(self.Ctx, &redis.XReadGroupArgs{
		Group:    self.Config.Notifications.ConsumerGroup,
		Consumer: self.Config.Notifications.ConsumerName,
		Streams:  args,
		Count:    self.Config.Notifications.ConsumerBatch,
		Block:    self.Config.Notifications.ConsumerBlock,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return
}

func (self *Consumer) run() error {
	// Leftovers from the previous run go first, read once
	pending := true

	for {
		select {
		case <-self.StopChannel:
			self.Log.Debug("Consumer stopped")
			return nil
		default:
		}

		id := ">"
		if pending {
			id = "0"
		}

		streams, err := self.read(id)
		if err != nil {
			if self.Ctx.Err() != nil {
				return nil
			}
			self.monitor.GetReport().Consumer.Errors.Read.Inc()
			self.Log.WithError(err).Error("Failed to read notifications")

			select {
			case <-self.StopChannel:
			case <-time.After(time.Second):
			}
			continue
		}

		count := 0
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				count++
				if self.handle(self.Ctx, msg) {
					self.ack(stream.Stream, msg.ID)
				}
			}
		}

		if pending && count == 0 {
			pending = false
		}
	}
}

// Returns true when the message may be acknowledged
func (self *Consumer) handle(ctx context.Context, msg redis.XMessage) bool {
	self.monitor.GetReport().Consumer.State.MessagesReceived.Inc()

	raw, ok := msg.Values["notification"].(string)
	if !ok {
		self.monitor.GetReport().Consumer.Errors.Decode.Inc()
		self.Log.WithField("id", msg.ID).Error("Message without notification")
		return true
	}

	notification := new(model.Notification)
	err := notification.UnmarshalBinary([]byte(raw))
	if err != nil {
		self.monitor.GetReport().Consumer.Errors.Decode.Inc()
		self.Log.WithError(err).WithField("id", msg.ID).Error("Failed to decode notification")
		return true
	}

	if self.dedup.Seen(notification) {
		self.monitor.GetReport().Consumer.State.DuplicatesDropped.Inc()
		self.Log.WithField("key", notification.DeduplicationKey()).Debug("Duplicate notification dropped")
		return true
	}

	if self.handler != nil {
		err = self.handler(ctx, notification)
		if err != nil {
			self.dedup.Forget(notification)
			self.Log.WithError(err).WithField("topic", notification.Topic()).Warn("Failed to handle notification")
			return false
		}
	}

	self.monitor.GetReport().Consumer.State.MessagesHandled.Inc()
	return true
}

func (self *Consumer) ack(stream, id string) {
	err := self.client.XAck(self.Ctx, stream, self.Config.Notifications.ConsumerGroup, id).Err()
	if err != nil {
		self.monitor.GetReport().Consumer.Errors.Ack.Inc()
		self.Log.WithError(err).WithField("stream", stream).WithField("id", id).Error("Failed to acknowledge notification")
	}
}
