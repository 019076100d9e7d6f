package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
)

func newCompareCmd(opts *globalOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "compare LATEST_FILE PREVIOUS_FILE",
		Short: "Compare two snapshot files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			latest, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading latest snapshot: %w", err)
			}
			previous, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading previous snapshot: %w", err)
			}
			if name == "" {
				name = filepath.Base(args[0])
			}

			svc, err := newService(cmd, opts, nil)
			if err != nil {
				return err
			}
			c := svc.CompareText(cmd.Context(), name, string(latest), string(previous))

			comparisons := []domain.Comparison{c}
			if err := writeComparisons(cmd.OutOrStdout(), opts, comparisons); err != nil {
				return err
			}
			return finish(opts, comparisons)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Diagram name used in labels (default: latest file name)")
	return cmd
}
