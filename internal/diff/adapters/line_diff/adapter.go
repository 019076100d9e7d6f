// Package linediff renders unified patches between diagram snapshots.
package linediff

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const defaultContextLines = 3

// Adapter implements ports.DiffPort using go-difflib unified diffs.
type Adapter struct {
	contextLines int
}

// New creates a unified diff adapter showing contextLines lines around each
// change. A negative value selects the default of 3.
func New(contextLines int) *Adapter {
	if contextLines < 0 {
		contextLines = defaultContextLines
	}
	return &Adapter{contextLines: contextLines}
}

// ComputeDiff returns a unified patch turning previous into latest, or ""
// when the snapshots are identical.
func (a *Adapter) ComputeDiff(previousName, latestName, previous, latest string) string {
	if previous == latest {
		return ""
	}

	ud := difflib.UnifiedDiff{
		A:        splitKeepEnds(previous),
		B:        splitKeepEnds(latest),
		FromFile: previousName,
		ToFile:   latestName,
		Context:  a.contextLines,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return fmt.Sprintf("error computing diff: %s", err)
	}
	return strings.TrimRight(text, "\n")
}

// splitKeepEnds splits on "\n" the same way the engine does, keeping the
// terminator on each line so difflib prints them verbatim. A missing final
// newline is added so the last line does not run into the next hunk line.
func splitKeepEnds(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	last := len(lines) - 1
	if !strings.HasSuffix(lines[last], "\n") {
		lines[last] += "\n"
	}
	return lines
}
