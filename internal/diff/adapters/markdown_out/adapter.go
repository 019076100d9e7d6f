// Package markdownout renders comparisons as markdown reports suitable for
// PR comments and check run output.
package markdownout

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
)

// MaxReportLen matches GitHub's limit on check run text and comment bodies.
const MaxReportLen = 65535

const truncMsg = "\n\n... (output truncated)"

// Formatter builds markdown reports.
type Formatter struct {
	appName string
	maxLen  int
}

// New creates a Formatter. appName is used in the report header and the
// footer; maxLen <= 0 means MaxReportLen.
func New(appName string, maxLen int) *Formatter {
	if maxLen <= 0 {
		maxLen = MaxReportLen
	}
	return &Formatter{appName: appName, maxLen: maxLen}
}

// FormatReport renders a report over every comparison: a summary line,
// one collapsible section per changed or failed diagram, and a list of
// unchanged diagrams.
func (f *Formatter) FormatReport(comparisons []domain.Comparison) string {
	if len(comparisons) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## 📊 %s report\n\n", f.appName)
	sb.WriteString(buildSummary(comparisons))
	sb.WriteString("\n\n")

	var unchanged []string
	for _, c := range comparisons {
		if c.Status == domain.StatusSuccess {
			unchanged = append(unchanged, c.Name)
			continue
		}
		formatComparison(&sb, c)
	}
	formatUnchanged(&sb, unchanged)

	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "_Generated by %s_\n", f.appName)

	return f.truncateIfNeeded(sb.String())
}

// FormatComparison renders a single comparison, expanded.
func (f *Formatter) FormatComparison(c domain.Comparison) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s — %s\n\n", c.Name, statusLabel(c.Status))

	switch c.Status {
	case domain.StatusError:
		fmt.Fprintf(&sb, "%s\n", c.Summary)
	case domain.StatusSuccess:
		sb.WriteString("No changes detected.\n")
	default:
		fmt.Fprintf(&sb, "%s\n\n", c.Summary)
		writeTable(&sb, c)
		writeUnified(&sb, c)
	}
	return f.truncateIfNeeded(sb.String())
}

func buildSummary(comparisons []domain.Comparison) string {
	success, changes, errorCount := domain.CountByStatus(comparisons)
	status := "✅"
	if errorCount > 0 {
		status = "❌"
	}
	return fmt.Sprintf("%s **Compared %d diagram(s):** %d with changes, %d unchanged, %d failed",
		status, len(comparisons), changes, success, errorCount)
}

func formatComparison(sb *strings.Builder, c domain.Comparison) {
	fmt.Fprintf(sb, "<details>\n<summary><b>%s</b> — %s</summary>\n\n", c.Name, statusLabel(c.Status))

	if c.Status == domain.StatusError {
		fmt.Fprintf(sb, "%s\n", c.Summary)
	} else {
		fmt.Fprintf(sb, "%s\n\n", c.Summary)
		writeTable(sb, c)
		writeUnified(sb, c)
	}

	sb.WriteString("\n</details>\n\n")
}

func statusLabel(status domain.Status) string {
	switch status {
	case domain.StatusError:
		return "❌ Error"
	case domain.StatusChanges:
		return "📝 Changed"
	case domain.StatusSuccess:
		return "✅ No changes"
	default:
		return "Unknown"
	}
}

var rowMarkers = map[domain.RowKind]string{
	domain.RowUnchanged: " ",
	domain.RowAdded:     "+",
	domain.RowRemoved:   "-",
	domain.RowModified:  "~",
}

func writeTable(sb *strings.Builder, c domain.Comparison) {
	fmt.Fprintf(sb, "| | %s | %s |\n", escapeCell(c.LatestLabel), escapeCell(c.PreviousLabel))
	sb.WriteString("|---|---|---|\n")
	for _, row := range c.Rows {
		fmt.Fprintf(sb, "| %s | %s | %s |\n", rowMarkers[row.Kind], escapeCell(row.Left), escapeCell(row.Right))
	}
	sb.WriteString("\n")
}

func writeUnified(sb *strings.Builder, c domain.Comparison) {
	if c.UnifiedDiff == "" {
		return
	}
	sb.WriteString("<details>\n<summary>Unified diff</summary>\n\n")
	fmt.Fprintf(sb, "```diff\n%s\n```\n\n", c.UnifiedDiff)
	sb.WriteString("</details>\n")
}

func formatUnchanged(sb *strings.Builder, unchanged []string) {
	if len(unchanged) == 0 {
		return
	}

	sb.WriteString("### Unchanged diagrams\n\n")
	for _, name := range unchanged {
		fmt.Fprintf(sb, "- `%s`\n", name)
	}
	sb.WriteString("\n")
}

var cellEscaper = strings.NewReplacer(
	"&", "&amp;",
	"`", "&#96;",
	`\`, `\\`,
	"|", `\|`,
	"<", "&lt;",
	">", "&gt;",
	"\r", "",
)

// escapeCell makes a line safe inside a table cell. Empty cells get a
// non-breaking space so the row keeps its height.
func escapeCell(s string) string {
	if s == "" {
		return "&nbsp;"
	}
	return cellEscaper.Replace(s)
}

// truncateIfNeeded cuts text to at most maxLen bytes, never inside a rune.
func (f *Formatter) truncateIfNeeded(text string) string {
	if len(text) <= f.maxLen {
		return text
	}
	cut := max(f.maxLen-len(truncMsg), 0)
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + truncMsg
}
