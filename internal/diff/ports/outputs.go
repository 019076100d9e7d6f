package ports

import (
	"context"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
)

// SnapshotSourcePort abstracts fetching a diagram snapshot at a given ref.
// Implementations return a domain.NotFoundError when the path does not
// exist at that ref.
type SnapshotSourcePort interface {
	FetchSnapshot(ctx context.Context, snap domain.SnapshotRef) (string, error)
}

// DiffPort renders a textual patch between two snapshots, empty when they
// are identical.
type DiffPort interface {
	ComputeDiff(previousName, latestName, previous, latest string) string
}

// InlineDiffPort computes intra-line spans for a modified line.
type InlineDiffPort interface {
	Spans(latest, previous string) []domain.Span
}

// ChangedDiagramsPort lists the diagram files a pull request touches.
type ChangedDiagramsPort interface {
	ChangedDiagrams(ctx context.Context, pr domain.PRContext) ([]domain.ChangedDiagram, error)
}

// ReportingPort publishes review results on a pull request.
type ReportingPort interface {
	PostReport(ctx context.Context, pr domain.PRContext, comparisons []domain.Comparison) error
}
