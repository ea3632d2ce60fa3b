package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bashhack/dura/internal/dconfig"
	"github.com/bashhack/dura/internal/metrics"
)

// statusCmd reports daemon liveness, the watched set, and the latency
// histogram (C7). The histogram itself lives in the running daemon's
// memory; this process reads the snapshot the supervisor persists to
// dconfig.StatusPath() at the end of every tick, rather than reaching into
// another process's memory directly.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print daemon liveness, the watched repository set, and tick latencies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := dconfig.NewStore()
		if err != nil {
			return err
		}

		doc, err := store.Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if doc.PID != nil {
			fmt.Fprintf(out, "daemon: running (pid %d)\n", *doc.PID)
		} else {
			fmt.Fprintln(out, "daemon: not running")
		}

		repos := doc.SortedRepoPaths()
		fmt.Fprintf(out, "watched repositories: %d\n", len(repos))
		for _, p := range repos {
			fmt.Fprintf(out, "  %s\n", p)
		}

		statusPath, err := dconfig.StatusPath()
		if err != nil {
			return err
		}
		snap, err := metrics.ReadSnapshotFile(statusPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(out, "tick latency: no samples yet")
				return nil
			}
			return err
		}
		fmt.Fprintf(out, "tick latency (us): count=%d min=%d p50=%d p90=%d p99=%d max=%d\n",
			snap.Count, snap.Min, snap.P50, snap.P90, snap.P99, snap.Max)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
