package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "dura",
	Short:         "Continuously snapshot uncommitted changes onto side branches",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with a context canceled on SIGINT, SIGTERM,
// or SIGHUP, mirroring gitbak's main.go signal-handling shape. It exits
// the process with a nonzero code on error, per spec §6.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "dura: %v\n", err)
		os.Exit(1)
	}
}

// IsKnownVerb reports whether name is a registered dura subcommand, used by
// the cmd/dura passthrough check before shelling out to `dura-<name>`.
func IsKnownVerb(name string) bool {
	for _, c := range rootCmd.Commands() {
		if c.Name() == name {
			return true
		}
	}
	return name == "help" || name == "completion"
}
