package config

import (
	"time"

	"github.com/spf13/viper"
)

type Dispatcher struct {
	// Number of independent ordered queues. Jobs of one entity always land in the same queue.
	Shards int

	// Size of the input channel
	QueueSize int

	// Maximum time a single synchronization job may take
	JobTimeout time.Duration
}

func setDispatcherDefaults() {
	viper.SetDefault("Dispatcher.Shards", "8")
	viper.SetDefault("Dispatcher.QueueSize", "1000")
	viper.SetDefault("Dispatcher.JobTimeout", "2m")
}
