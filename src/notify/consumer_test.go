package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/utils/config"
	"github.com/catalogue-registry/registry/src/utils/model"
	monitor_registry "github.com/catalogue-registry/registry/src/utils/monitoring/registry"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestConsumerTestSuite(t *testing.T) {
	suite.Run(t, new(ConsumerTestSuite))
}

type ConsumerTestSuite struct {
	suite.Suite
	ctx      context.Context
	monitor  *monitor_registry.Monitor
	consumer *Consumer
	handled  []*model.Notification
	fail     bool
}

func (s *ConsumerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.monitor = monitor_registry.NewMonitor()
	s.handled = nil
	s.fail = false

	s.consumer = NewConsumer(config.Default()).
		WithMonitor(s.monitor).
		WithHandler(func(ctx context.Context, notification *model.Notification) error {
			if s.fail {
				return errors.New("index unavailable")
			}
			s.handled = append(s.handled, notification)
			return nil
		})
}

func (s *ConsumerTestSuite) message(timestamp int64) redis.XMessage {
	notification := &model.Notification{
		MessageId:   "m",
		EntityType:  catalogue.TypeService,
		Operation:   catalogue.OperationUpdate,
		EntityId:    "cat1.R",
		CatalogueId: "cat1",
		Timestamp:   timestamp,
	}
	data, err := notification.MarshalBinary()
	require.Nil(s.T(), err)
	return redis.XMessage{ID: "1-0", Values: map[string]interface{}{"notification": string(data)}}
}

func (s *ConsumerTestSuite) TestStreams() {
	streams := Streams("registry.")
	require.Len(s.T(), streams, 3*len(catalogue.EntityTypes))
	require.Contains(s.T(), streams, "registry.service.update")
	require.Contains(s.T(), streams, "registry.monitoring.delete")
}

func (s *ConsumerTestSuite) TestDuplicatesAreDropped() {
	require.True(s.T(), s.consumer.handle(s.ctx, s.message(1)))
	require.True(s.T(), s.consumer.handle(s.ctx, s.message(1)))

	// Another change of the same entity
	require.True(s.T(), s.consumer.handle(s.ctx, s.message(2)))

	require.Len(s.T(), s.handled, 2)
	state := &s.monitor.Report.Consumer.State
	require.Equal(s.T(), uint64(3), state.MessagesReceived.Load())
	require.Equal(s.T(), uint64(2), state.MessagesHandled.Load())
	require.Equal(s.T(), uint64(1), state.DuplicatesDropped.Load())
}

func (s *ConsumerTestSuite) TestFailedHandlerKeepsMessagePending() {
	s.fail = true
	require.False(s.T(), s.consumer.handle(s.ctx, s.message(1)))

	// Redelivery isn't a duplicate
	s.fail = false
	require.True(s.T(), s.consumer.handle(s.ctx, s.message(1)))
	require.Len(s.T(), s.handled, 1)
}

func (s *ConsumerTestSuite) TestMalformedMessagesAreAcknowledged() {
	require.True(s.T(), s.consumer.handle(s.ctx, redis.XMessage{ID: "1-0", Values: map[string]interface{}{}}))
	require.True(s.T(), s.consumer.handle(s.ctx, redis.XMessage{ID: "2-0", Values: map[string]interface{}{"notification": "{"}}))

	require.Empty(s.T(), s.handled)
	require.Equal(s.T(), uint64(2), s.monitor.Report.Consumer.Errors.Decode.Load())
}

func (s *ConsumerTestSuite) TestDeduplicatorExpires() {
	dedup := NewDeduplicator(20 * time.Millisecond)
	notification := &model.Notification{EntityType: catalogue.TypeProvider, Operation: catalogue.OperationCreate, EntityId: "cat1.P", Timestamp: 1}

	require.False(s.T(), dedup.Seen(notification))
	require.True(s.T(), dedup.Seen(notification))

	require.Eventually(s.T(), func() bool {
		return !dedup.Seen(notification)
	}, time.Second, 10*time.Millisecond)
}
