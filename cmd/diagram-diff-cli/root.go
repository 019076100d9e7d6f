package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	inlinediff "github.com/nathantilsley/diagram-diff/internal/diff/adapters/inline_diff"
	linediff "github.com/nathantilsley/diagram-diff/internal/diff/adapters/line_diff"
	"github.com/nathantilsley/diagram-diff/internal/diff/app"
	"github.com/nathantilsley/diagram-diff/internal/diff/ports"
	"github.com/nathantilsley/diagram-diff/internal/platform/logger"
	"github.com/nathantilsley/diagram-diff/internal/platform/telemetry"
)

// errChangesDetected is returned with --exit-code when a comparison found
// changes. main exits 1 without printing it.
var errChangesDetected = errors.New("changes detected")

type globalOptions struct {
	format       string
	width        int
	contextLines int
	concurrency  int
	logLevel     string
	exitCode     bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "diagram-diff-cli",
		Short: "Compare two snapshots of a UML class diagram line by line",
		Long: `diagram-diff-cli aligns two diagram snapshots with a longest common
subsequence and reports every line as added, removed, modified or unchanged.

Examples:
  diagram-diff-cli compare shop-v2.uml shop-v1.uml
  diagram-diff-cli compare shop-v2.uml shop-v1.uml --format markdown
  diagram-diff-cli batch diagrams.yaml --root ./snapshots
  diagram-diff-cli history --repo . --path models/shop.uml --latest HEAD --previous v1.0
  diagram-diff-cli pr --owner acme --repo diagrams --number 42 --post`,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := parseFormat(opts.format); err != nil {
				return err
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.format, "format", "f", string(formatSideBySide), "Output format: side-by-side, markdown, unified or json")
	flags.IntVarP(&opts.width, "width", "w", 0, "Terminal width for side-by-side output (default 120)")
	flags.IntVar(&opts.contextLines, "context", 3, "Context lines in unified output")
	flags.IntVar(&opts.concurrency, "concurrency", 5, "Diagrams compared in parallel by batch")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	flags.BoolVar(&opts.exitCode, "exit-code", false, "Exit with status 1 when changes are found")

	cmd.AddCommand(
		newCompareCmd(opts),
		newBatchCmd(opts),
		newHistoryCmd(opts),
		newPRCmd(opts),
	)
	return cmd
}

// newLogger logs to the command's stderr so stdout carries only the diff.
func newLogger(cmd *cobra.Command, opts *globalOptions) *slog.Logger {
	return logger.NewWithWriter(opts.logLevel, cmd.ErrOrStderr())
}

func newService(cmd *cobra.Command, opts *globalOptions, source ports.SnapshotSourcePort) (*app.CompareService, error) {
	tel := telemetry.Noop()

	svc, err := app.NewCompareService(
		source,
		linediff.New(opts.contextLines),
		inlinediff.New(),
		opts.concurrency,
		tel.Meter,
		tel.Tracer,
		newLogger(cmd, opts),
	)
	if err != nil {
		return nil, fmt.Errorf("creating compare service: %w", err)
	}
	return svc, nil
}
