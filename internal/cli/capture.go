package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bashhack/dura/internal/dconfig"
	"github.com/bashhack/dura/internal/events"
	"github.com/bashhack/dura/internal/vcs"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Run one capture against the current directory's repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repoPath, err := os.Getwd()
		if err != nil {
			return err
		}

		store, err := dconfig.NewStore()
		if err != nil {
			return err
		}

		doc, err := store.Load()
		if err != nil {
			return err
		}

		repoCfg, ok := doc.Repos[repoPath]
		if !ok {
			repoCfg = &dconfig.RepoConfig{}
		}

		logger := events.NewDefault()

		result, err := vcs.Capture(repoPath, toPlanConfig(repoCfg, doc))
		if err != nil {
			logger.Emit(events.SnapshotEvent{Repo: repoPath, Outcome: events.OutcomeError, ErrorKind: "capture_failed"})
			return err
		}
		if result == nil {
			logger.Emit(events.SnapshotEvent{Repo: repoPath, Outcome: events.OutcomeNothing})
			return nil
		}

		logger.Emit(events.SnapshotEvent{
			Repo:       repoPath,
			Outcome:    events.OutcomeCaptured,
			Branch:     result.Branch,
			CommitHash: result.CommitHash.String(),
			BaseHash:   result.BaseHash.String(),
		})
		return nil
	},
}

// toPlanConfig merges one repo's overrides with the document's global
// commit-identity settings, the same shape internal/supervisor builds.
func toPlanConfig(repoCfg *dconfig.RepoConfig, doc *dconfig.Document) vcs.PlanConfig {
	return vcs.PlanConfig{
		Include:                repoCfg.Include,
		Exclude:                repoCfg.Exclude,
		MaxDepth:               repoCfg.MaxDepth,
		CommitAuthor:           doc.CommitAuthor,
		CommitEmail:            doc.CommitEmail,
		CommitExcludeGitConfig: doc.CommitExcludeGitConfig,
	}
}

func init() {
	rootCmd.AddCommand(captureCmd)
}
