// Package inlinediff highlights the changed characters of a modified line.
package inlinediff

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
)

// Adapter implements ports.InlineDiffPort with diff-match-patch.
type Adapter struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// New creates an inline diff adapter.
func New() *Adapter {
	return &Adapter{dmp: diffmatchpatch.New()}
}

// Spans returns the fragments turning previous into latest. Fragments are
// cleaned up semantically so that a renamed identifier shows as one
// delete and one insert rather than scattered characters.
func (a *Adapter) Spans(latest, previous string) []domain.Span {
	diffs := a.dmp.DiffMain(previous, latest, false)
	diffs = a.dmp.DiffCleanupSemantic(diffs)

	spans := make([]domain.Span, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		spans = append(spans, domain.Span{Op: spanOp(d.Type), Text: d.Text})
	}
	return spans
}

func spanOp(op diffmatchpatch.Operation) domain.SpanOp {
	switch op {
	case diffmatchpatch.DiffInsert:
		return domain.SpanInsert
	case diffmatchpatch.DiffDelete:
		return domain.SpanDelete
	default:
		return domain.SpanEqual
	}
}
