package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nathantilsley/diagram-diff/api"
	httpin "github.com/nathantilsley/diagram-diff/internal/diff/adapters/http_in"
	markdownout "github.com/nathantilsley/diagram-diff/internal/diff/adapters/markdown_out"
	terminalout "github.com/nathantilsley/diagram-diff/internal/diff/adapters/terminal_out"
	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
	"github.com/nathantilsley/diagram-diff/internal/platform/telemetry"
)

type outputFormat string

const (
	formatSideBySide outputFormat = "side-by-side"
	formatMarkdown   outputFormat = "markdown"
	formatUnified    outputFormat = "unified"
	formatJSON       outputFormat = "json"
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(s); f {
	case formatSideBySide, formatMarkdown, formatUnified, formatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q: want side-by-side, markdown, unified or json", s)
	}
}

// writeComparisons renders comparisons in the selected format. A single
// comparison is written as a JSON object, several as an array.
func writeComparisons(w io.Writer, opts *globalOptions, comparisons []domain.Comparison) error {
	format, err := parseFormat(opts.format)
	if err != nil {
		return err
	}

	switch format {
	case formatMarkdown:
		_, err := io.WriteString(w, markdownout.New(telemetry.ServiceName, 0).FormatReport(comparisons))
		return err

	case formatUnified:
		for _, c := range comparisons {
			if c.Status == domain.StatusError {
				if _, err := fmt.Fprintln(w, c.Summary); err != nil {
					return err
				}
				continue
			}
			if c.UnifiedDiff == "" {
				continue
			}
			if _, err := fmt.Fprintln(w, c.UnifiedDiff); err != nil {
				return err
			}
		}
		return nil

	case formatJSON:
		out := make([]api.Comparison, len(comparisons))
		for i, c := range comparisons {
			out[i] = httpin.ToAPIComparison(c)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(out) == 1 {
			return enc.Encode(out[0])
		}
		return enc.Encode(out)

	default:
		return terminalout.New(w, opts.width).WriteAll(comparisons)
	}
}

// finish applies --exit-code and reports failed comparisons.
func finish(opts *globalOptions, comparisons []domain.Comparison) error {
	_, changes, failed := domain.CountByStatus(comparisons)
	if failed > 0 {
		return fmt.Errorf("%d of %d comparison(s) failed", failed, len(comparisons))
	}
	if opts.exitCode && changes > 0 {
		return errChangesDetected
	}
	return nil
}
