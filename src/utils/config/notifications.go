package config

import (
	"time"

	"github.com/spf13/viper"
)

type Notifications struct {
	// Prefix of the stream names, stream is <prefix><type>.<operation>
	StreamPrefix string

	// Approximate maximum length of every stream
	MaxStreamLength int64

	// Publish backoff configuration, 0 is no limit
	MaxElapsedTime time.Duration
	MaxInterval    time.Duration

	// Num of workers that publish messages
	MaxWorkers int

	// Size of the publisher's input channel
	QueueSize int

	// Is the consumer group reading the streams
	ConsumerEnabled bool
	ConsumerGroup   string
	ConsumerName    string
	ConsumerBlock   time.Duration
	ConsumerBatch   int64

	// How long a delivered message is remembered for de-duplication
	DeduplicationTTL time.Duration
}

func setNotificationsDefaults() {
	viper.SetDefault("Notifications.StreamPrefix", "registry.")
	viper.SetDefault("Notifications.MaxStreamLength", "100000")
	viper.SetDefault("Notifications.MaxElapsedTime", "10m")
	viper.SetDefault("Notifications.MaxInterval", "60s")
	viper.SetDefault("Notifications.MaxWorkers", "5")
	viper.SetDefault("Notifications.QueueSize", "1000")
	viper.SetDefault("Notifications.ConsumerEnabled", "false")
	viper.SetDefault("Notifications.ConsumerGroup", "registry-index")
	viper.SetDefault("Notifications.ConsumerName", "registry-0")
	viper.SetDefault("Notifications.ConsumerBlock", "5s")
	viper.SetDefault("Notifications.ConsumerBatch", "50")
	viper.SetDefault("Notifications.DeduplicationTTL", "1h")
}
