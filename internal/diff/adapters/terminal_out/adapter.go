// Package terminalout renders comparisons as a coloured side-by-side view
// for terminals.
package terminalout

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
)

const (
	DefaultWidth = 120
	minColumn    = 8
	gutter       = 5 // marker, space and separator
	separator    = " │ "
	ellipsis     = "…"
	tabWidth     = 4
)

type styles struct {
	header    lipgloss.Style
	rule      lipgloss.Style
	unchanged lipgloss.Style
	added     lipgloss.Style
	removed   lipgloss.Style
	modified  lipgloss.Style
	summary   lipgloss.Style
	failed    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		header:    r.NewStyle().Bold(true),
		rule:      r.NewStyle().Foreground(lipgloss.Color("8")),
		unchanged: r.NewStyle(),
		added:     r.NewStyle().Foreground(lipgloss.Color("2")),
		removed:   r.NewStyle().Foreground(lipgloss.Color("1")),
		modified:  r.NewStyle().Foreground(lipgloss.Color("3")),
		summary:   r.NewStyle().Italic(true),
		failed:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	}
}

// Writer prints side-by-side comparisons. Colour is decided by lipgloss
// from the output: plain text when out is not a terminal.
type Writer struct {
	out    io.Writer
	column int
	cond   *runewidth.Condition
	styles styles
}

// New creates a Writer that fits rows into width terminal cells.
// width <= 0 means DefaultWidth.
func New(out io.Writer, width int) *Writer {
	if width <= 0 {
		width = DefaultWidth
	}
	column := max((width-gutter)/2, minColumn)

	cond := runewidth.NewCondition()
	cond.EastAsianWidth = false

	return &Writer{
		out:    out,
		column: column,
		cond:   cond,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// Write prints one comparison: a header with both labels, one line per row
// (latest on the left) and the summary.
func (w *Writer) Write(c domain.Comparison) error {
	var sb strings.Builder

	if c.Status == domain.StatusError {
		sb.WriteString(w.styles.failed.Render(c.Summary))
		sb.WriteString("\n")
		_, err := io.WriteString(w.out, sb.String())
		return err
	}

	header := "  " + w.cell(c.LatestLabel, true) + separator + w.cell(c.PreviousLabel, false)
	sb.WriteString(w.styles.header.Render(header))
	sb.WriteString("\n")
	rule := strings.Repeat("─", w.column+2) + "─┼─" + strings.Repeat("─", w.column)
	sb.WriteString(w.styles.rule.Render(rule))
	sb.WriteString("\n")

	for _, row := range c.Rows {
		sb.WriteString(w.renderRow(row))
		sb.WriteString("\n")
	}

	sb.WriteString(w.styles.summary.Render(c.Summary))
	sb.WriteString("\n")

	_, err := io.WriteString(w.out, sb.String())
	return err
}

// WriteAll prints every comparison separated by a blank line.
func (w *Writer) WriteAll(comparisons []domain.Comparison) error {
	for i, c := range comparisons {
		if i > 0 {
			if _, err := io.WriteString(w.out, "\n"); err != nil {
				return err
			}
		}
		if err := w.Write(c); err != nil {
			return fmt.Errorf("writing %s: %w", c.Name, err)
		}
	}
	return nil
}

func (w *Writer) renderRow(row domain.Row) string {
	left := w.cell(row.Left, true)
	right := w.cell(row.Right, false)

	switch row.Kind {
	case domain.RowAdded:
		return w.styles.added.Render("+ "+left) + separator
	case domain.RowRemoved:
		return "  " + left + separator + w.styles.removed.Render(right)
	case domain.RowModified:
		return w.styles.modified.Render("~ "+left) + separator + w.styles.modified.Render(right)
	default:
		return w.styles.unchanged.Render("  "+left) + separator + w.styles.unchanged.Render(right)
	}
}

// cell fits text into one column. The left column is padded so the
// separator lines up.
func (w *Writer) cell(text string, pad bool) string {
	text = strings.ReplaceAll(text, "\t", strings.Repeat(" ", tabWidth))
	text = strings.TrimSuffix(text, "\r")
	text = w.cond.Truncate(text, w.column, ellipsis)
	if pad {
		text = w.cond.FillRight(text, w.column)
	}
	return text
}
