package ports

import (
	"context"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
)

// CompareUseCase is the driving port for comparing diagram snapshots.
type CompareUseCase interface {
	// CompareText diffs two snapshots supplied by the caller. It never fails.
	CompareText(ctx context.Context, name, latest, previous string) domain.Comparison
	// CompareRefs fetches both snapshots from the configured source first.
	CompareRefs(ctx context.Context, req domain.CompareRequest) (domain.Comparison, error)
	// CompareBatch runs CompareRefs for each request, in request order.
	// Failed requests are reported as StatusError comparisons.
	CompareBatch(ctx context.Context, reqs []domain.CompareRequest) []domain.Comparison
}

// PRReviewUseCase is the driving port for reviewing the diagrams changed by
// a pull request.
type PRReviewUseCase interface {
	Review(ctx context.Context, pr domain.PRContext) error
}
