package config

import (
	"time"

	"github.com/spf13/viper"
)

type Argo struct {
	// Monitoring service types are not validated when the url is empty
	Url   string
	Token string

	RequestTimeout time.Duration

	// How long the fetched service types are cached
	CacheTTL time.Duration
}

func setArgoDefaults() {
	viper.SetDefault("Argo.Url", "")
	viper.SetDefault("Argo.Token", "")
	viper.SetDefault("Argo.RequestTimeout", "30s")
	viper.SetDefault("Argo.CacheTTL", "10m")
}
