package cli

import (
	"github.com/spf13/cobra"

	"github.com/bashhack/dura/internal/daemon"
)

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Request the running daemon to shut down",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Always exits 0, whether or not a daemon is actually running (spec §6).
		return daemon.RequestShutdown()
	},
}

func init() {
	rootCmd.AddCommand(killCmd)
}
