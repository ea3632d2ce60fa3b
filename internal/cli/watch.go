package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bashhack/dura/internal/dconfig"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Add a repository to the watched set",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "."
		if len(args) == 1 {
			target = args[0]
		}

		store, err := dconfig.NewStore()
		if err != nil {
			return err
		}

		abs, err := store.Watch(target)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", abs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
