package markdownout

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
)

func changedComparison() domain.Comparison {
	return domain.Comparison{
		Name:          "shop.uml",
		LatestLabel:   "shop.uml (feature)",
		PreviousLabel: "shop.uml (main)",
		Status:        domain.StatusChanges,
		Rows: []domain.Row{
			{Left: "class Order", Right: "class Order", Kind: domain.RowUnchanged},
			{Left: "+total: float", Right: "+total: int", Kind: domain.RowModified},
			{Left: "a | b", Right: "", Kind: domain.RowAdded},
		},
		UnifiedDiff: "--- shop.uml (main)\n+++ shop.uml (feature)",
		Summary:     "Changes detected in shop.uml: 1 added, 0 removed, 1 modified, 1 unchanged.",
	}
}

func TestFormatReport(t *testing.T) {
	f := New("diagram-diff", 0)

	report := f.FormatReport([]domain.Comparison{
		changedComparison(),
		{Name: "user.uml", Status: domain.StatusSuccess, Summary: "No changes detected."},
		{Name: "gone.uml", Status: domain.StatusError, Summary: "❌ Error comparing gone.uml: boom"},
	})

	assert.Contains(t, report, "## 📊 diagram-diff report")
	assert.Contains(t, report, "❌ **Compared 3 diagram(s):** 1 with changes, 1 unchanged, 1 failed")
	assert.Contains(t, report, "<summary><b>shop.uml</b> — 📝 Changed</summary>")
	assert.Contains(t, report, "<summary><b>gone.uml</b> — ❌ Error</summary>")
	assert.Contains(t, report, "❌ Error comparing gone.uml: boom")
	assert.Contains(t, report, "### Unchanged diagrams\n\n- `user.uml`\n")
	assert.NotContains(t, report, "<b>user.uml</b>", "unchanged diagrams are only listed")
	assert.True(t, strings.HasSuffix(report, "_Generated by diagram-diff_\n"))
}

func TestFormatReport_AllUnchanged(t *testing.T) {
	f := New("diagram-diff", 0)

	report := f.FormatReport([]domain.Comparison{
		{Name: "a.uml", Status: domain.StatusSuccess},
	})

	assert.Contains(t, report, "✅ **Compared 1 diagram(s):** 0 with changes, 1 unchanged, 0 failed")
	assert.NotContains(t, report, "<details>")
}

func TestFormatReport_Empty(t *testing.T) {
	assert.Empty(t, New("diagram-diff", 0).FormatReport(nil))
}

func TestFormatComparison_Table(t *testing.T) {
	f := New("diagram-diff", 0)

	out := f.FormatComparison(changedComparison())

	wantTable := "| | shop.uml (feature) | shop.uml (main) |\n" +
		"|---|---|---|\n" +
		"|   | class Order | class Order |\n" +
		"| ~ | +total: float | +total: int |\n" +
		"| + | a \\| b | &nbsp; |\n"
	assert.Contains(t, out, wantTable)
	assert.Contains(t, out, "```diff\n--- shop.uml (main)\n+++ shop.uml (feature)\n```")
	assert.True(t, strings.HasPrefix(out, "### shop.uml — 📝 Changed\n"))
}

func TestFormatComparison_NoChanges(t *testing.T) {
	out := New("diagram-diff", 0).FormatComparison(domain.Comparison{Name: "a.uml", Status: domain.StatusSuccess})

	assert.Equal(t, "### a.uml — ✅ No changes\n\nNo changes detected.\n", out)
}

func TestEscapeCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "&nbsp;"},
		{"plain", "plain"},
		{"a|b", `a\|b`},
		{"List<Item>", "List&lt;Item&gt;"},
		{`C:\path`, `C:\\path`},
		{"line\r", "line"},
		{"note: &lt;b&gt;", "note: &amp;lt;b&amp;gt;"},
		{"A & B", "A &amp; B"},
		{"`code`", "&#96;code&#96;"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeCell(tt.in), "escapeCell(%q)", tt.in)
	}
}

func TestTruncation(t *testing.T) {
	f := New("diagram-diff", 200)

	c := changedComparison()
	for range 50 {
		c.Rows = append(c.Rows, domain.Row{Left: "line", Right: "line", Kind: domain.RowUnchanged})
	}
	out := f.FormatComparison(c)

	assert.LessOrEqual(t, len(out), 200)
	assert.True(t, strings.HasSuffix(out, truncMsg))
	assert.True(t, utf8.ValidString(out))
}

func TestTruncation_KeepsRunesWhole(t *testing.T) {
	f := New("diagram-diff", 40)
	text := strings.Repeat("📝", 20) // 80 bytes, 4 per rune

	for _, maxLen := range []int{40, 41, 42, 43} {
		f.maxLen = maxLen
		out := f.truncateIfNeeded(text)

		assert.LessOrEqual(t, len(out), maxLen)
		assert.True(t, utf8.ValidString(out), "maxLen %d cut inside a rune: %q", maxLen, out)
		assert.True(t, strings.HasSuffix(out, truncMsg))
	}
}
