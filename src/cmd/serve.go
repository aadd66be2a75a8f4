package cmd

import (
	"github.com/catalogue-registry/registry/src/registry"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the registry: mirror dispatcher, repair sweeper, notifications and monitoring API",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := registry.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		select {
		case <-ctx.Done():
		case <-controller.CtxRunning.Done():
			controller.Log.Error("Registry stopped on its own")
		}

		controller.StopWait()
		return
	},
}
