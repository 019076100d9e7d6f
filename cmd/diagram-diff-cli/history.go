package main

import (
	"fmt"

	"github.com/spf13/cobra"

	githistory "github.com/nathantilsley/diagram-diff/internal/diff/adapters/git_history"
	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
	"github.com/nathantilsley/diagram-diff/internal/platform/gitrepo"
)

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var repoDir, path, previousPath, latestRef, previousRef string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Compare a diagram between two revisions of a git checkout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := gitrepo.Open(repoDir, newLogger(cmd, opts))
			if err != nil {
				return fmt.Errorf("opening repository: %w", err)
			}
			svc, err := newService(cmd, opts, githistory.New(repo))
			if err != nil {
				return err
			}

			if previousPath == "" {
				previousPath = path
			}
			c, err := svc.CompareRefs(cmd.Context(), domain.CompareRequest{
				Latest:   domain.SnapshotRef{Path: path, Ref: latestRef},
				Previous: domain.SnapshotRef{Path: previousPath, Ref: previousRef},
			})
			if err != nil {
				return err
			}

			comparisons := []domain.Comparison{c}
			if err := writeComparisons(cmd.OutOrStdout(), opts, comparisons); err != nil {
				return err
			}
			return finish(opts, comparisons)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&repoDir, "repo", ".", "Git checkout holding the diagram history")
	flags.StringVar(&path, "path", "", "Diagram path inside the repository")
	flags.StringVar(&previousPath, "previous-path", "", "Diagram path at the previous revision, if it was renamed")
	flags.StringVar(&latestRef, "latest", "HEAD", "Latest revision")
	flags.StringVar(&previousRef, "previous", "", "Previous revision")
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("previous")
	return cmd
}
