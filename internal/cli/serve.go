package cli

import (
	"github.com/spf13/cobra"

	"github.com/bashhack/dura/internal/daemon"
	"github.com/bashhack/dura/internal/dconfig"
	internalErrors "github.com/bashhack/dura/internal/errors"
	"github.com/bashhack/dura/internal/events"
	"github.com/bashhack/dura/internal/metrics"
	"github.com/bashhack/dura/internal/supervisor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Become the singleton daemon and run the supervisor loop",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := events.NewDefault()

		store, err := dconfig.NewStore()
		if err != nil {
			return err
		}

		if err := daemon.Acquire(store); err != nil {
			var conflict *internalErrors.SingletonConflictError
			if internalErrors.As(err, &conflict) {
				logger.Warn("a dura daemon is already running as pid %d", conflict.PID)
				return nil
			}
			return err
		}

		sink := metrics.NewSink()
		sup := supervisor.New(store, logger, sink, supervisor.WithAccelerator())
		return sup.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
