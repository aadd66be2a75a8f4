package publisher

import (
	"context"

	"github.com/catalogue-registry/registry/src/utils/logger"
	"github.com/catalogue-registry/registry/src/utils/model"

	"github.com/sirupsen/logrus"
)

// LogPublisher only logs notifications. Used when Redis is disabled.
type LogPublisher struct {
	log *logrus.Entry
}

func NewLogPublisher() (self *LogPublisher) {
	self = new(LogPublisher)
	self.log = logger.NewSublogger("log-publisher")
	return
}

func (self *LogPublisher) Notify(ctx context.Context, notification *model.Notification) error {
	self.log.WithField("topic", notification.Topic()).
		WithField("id", notification.EntityId).
		WithField("catalogue", notification.CatalogueId).
		Debug("Mirror changed")
	return nil
}
