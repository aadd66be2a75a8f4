package config

import (
	"github.com/spf13/viper"
)

type Registry struct {
	// Catalogue used when a bundle arrives without one
	CatalogueId string

	// Upper bound for a single page of search results
	MaxQuantity int

	// Months after which an approved resource needs another audit
	AuditIntervalMonths int
}

func setRegistryDefaults() {
	viper.SetDefault("Registry.CatalogueId", "eosc")
	viper.SetDefault("Registry.MaxQuantity", "100")
	viper.SetDefault("Registry.AuditIntervalMonths", "12")
}
