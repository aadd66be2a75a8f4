package config

import (
	"github.com/spf13/viper"
)

type Sweeper struct {
	// Is the periodic repair sweep scheduled
	Enabled bool

	// Cron schedule of the sweep
	Schedule string

	// Maximum number of entities reconciled per second
	MaxPerSecond int

	// Number of bundles fetched per query
	PageSize int
}

func setSweeperDefaults() {
	viper.SetDefault("Sweeper.Enabled", "true")
	viper.SetDefault("Sweeper.Schedule", "@every 6h")
	viper.SetDefault("Sweeper.MaxPerSecond", "50")
	viper.SetDefault("Sweeper.PageSize", "100")
}
