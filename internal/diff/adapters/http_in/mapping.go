package httpin

import (
	"github.com/nathantilsley/diagram-diff/api"
	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
)

// ToAPIComparison converts a comparison into its wire form. Inline spans
// are attached to the rows they belong to.
func ToAPIComparison(c domain.Comparison) api.Comparison {
	stats := c.Stats()
	return api.Comparison{
		Name:     c.Name,
		Latest:   c.LatestLabel,
		Previous: c.PreviousLabel,
		Status:   c.Status.String(),
		Summary:  c.Summary,
		Stats: api.Stats{
			Added:     stats.Added,
			Removed:   stats.Removed,
			Modified:  stats.Modified,
			Unchanged: stats.Unchanged,
		},
		Result:      toAPIResult(c.Result),
		Rows:        ToAPIRows(c.Rows, c.Inline),
		UnifiedDiff: c.UnifiedDiff,
	}
}

// ToAPIRows converts rows into their wire form. The result is never nil.
func ToAPIRows(rows []domain.Row, inline []domain.InlineChange) []api.Row {
	spans := make(map[int][]domain.Span, len(inline))
	for _, ic := range inline {
		spans[ic.Row] = ic.Spans
	}

	out := make([]api.Row, 0, len(rows))
	for i, r := range rows {
		out = append(out, api.Row{
			Left:  r.Left,
			Right: r.Right,
			Kind:  r.Kind.String(),
			Spans: toAPISpans(spans[i]),
		})
	}
	return out
}

func toAPIResult(r domain.DiffResult) api.DiffResult {
	modified := make([]api.Change, 0, len(r.Modified))
	for _, m := range r.Modified {
		modified = append(modified, api.Change{From: m.From, To: m.To})
	}
	return api.DiffResult{
		Added:     nonNil(r.Added),
		Removed:   nonNil(r.Removed),
		Modified:  modified,
		Unchanged: nonNil(r.Unchanged),
	}
}

func toAPISpans(spans []domain.Span) []api.Span {
	if len(spans) == 0 {
		return nil
	}
	out := make([]api.Span, len(spans))
	for i, s := range spans {
		out[i] = api.Span{Op: s.Op.String(), Text: s.Text}
	}
	return out
}

// nonNil keeps error comparisons, which carry a zero DiffResult, encoding
// their buckets as [] rather than null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
