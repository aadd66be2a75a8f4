package cmd

import (
	"github.com/catalogue-registry/registry/src/registry"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(repairCmd)
}

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Reconcile every draft with its public mirror once and delete orphan mirrors",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		sweeper, err := registry.NewRepair(conf)
		if err != nil {
			return
		}
		return sweeper.RunOnce(ctx)
	},
}
