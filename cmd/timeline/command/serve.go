package command

import (
	"github.com/spf13/cobra"

	"github.com/tidepool-org/timeline/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the timeline HTTP service",
	Run: func(cmd *cobra.Command, args []string) {
		api.MainLoop()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
