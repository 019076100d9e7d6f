package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	batchmanifest "github.com/nathantilsley/diagram-diff/internal/diff/adapters/batch_manifest"
	githistory "github.com/nathantilsley/diagram-diff/internal/diff/adapters/git_history"
	localfiles "github.com/nathantilsley/diagram-diff/internal/diff/adapters/local_files"
	"github.com/nathantilsley/diagram-diff/internal/diff/ports"
	"github.com/nathantilsley/diagram-diff/internal/platform/gitrepo"
)

func newBatchCmd(opts *globalOptions) *cobra.Command {
	var root, repoDir string

	cmd := &cobra.Command{
		Use:   "batch MANIFEST",
		Short: "Compare every diagram listed in a YAML manifest",
		Long: `Compare every diagram listed in a YAML manifest. Snapshots are read from
a directory tree laid out as ROOT/REF/PATH (--root) or from a git checkout
(--repo).

Manifest:
  latest: v2
  previous: v1
  diagrams:
    - path: models/shop.uml
    - path: models/user.uml
      previousPath: models/customer.uml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (root == "") == (repoDir == "") {
				return errors.New("exactly one of --root or --repo is required")
			}

			reqs, err := batchmanifest.Load(args[0])
			if err != nil {
				return err
			}

			var source ports.SnapshotSourcePort
			if root != "" {
				source = localfiles.New(root)
			} else {
				repo, err := gitrepo.Open(repoDir, newLogger(cmd, opts))
				if err != nil {
					return fmt.Errorf("opening repository: %w", err)
				}
				source = githistory.New(repo)
			}

			svc, err := newService(cmd, opts, source)
			if err != nil {
				return err
			}
			comparisons := svc.CompareBatch(cmd.Context(), reqs)

			if err := writeComparisons(cmd.OutOrStdout(), opts, comparisons); err != nil {
				return err
			}
			return finish(opts, comparisons)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Snapshot directory laid out as ROOT/REF/PATH")
	cmd.Flags().StringVar(&repoDir, "repo", "", "Git checkout to read snapshots from")
	return cmd
}
