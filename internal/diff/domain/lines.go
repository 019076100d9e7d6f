// Package domain holds the diagram diff engine: line alignment, bucket
// classification and side-by-side row projection, plus the comparison
// types reported by the surrounding service.
package domain

import "strings"

// lineBreak separates lines in a snapshot. A preceding "\r" stays part of
// the line and takes part in comparison like any other byte.
const lineBreak = "\n"

// SplitLines splits a snapshot into its lines. The empty text yields a
// single empty line, so two empty snapshots compare as one unchanged line.
func SplitLines(text string) []string {
	return strings.Split(text, lineBreak)
}
