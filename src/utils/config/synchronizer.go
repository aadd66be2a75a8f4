package config

import (
	"time"

	"github.com/spf13/viper"
)

type Synchronizer struct {
	// Mirror write backoff, 0 is no limit
	MaxElapsedTime time.Duration
	MaxInterval    time.Duration
}

func setSynchronizerDefaults() {
	viper.SetDefault("Synchronizer.MaxElapsedTime", "1m")
	viper.SetDefault("Synchronizer.MaxInterval", "10s")
}
