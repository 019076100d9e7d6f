package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
	"github.com/nathantilsley/diagram-diff/internal/platform/logger"
)

type mockChanged struct {
	diagrams []domain.ChangedDiagram
	err      error
}

func (m *mockChanged) ChangedDiagrams(context.Context, domain.PRContext) ([]domain.ChangedDiagram, error) {
	return m.diagrams, m.err
}

type mockReporter struct {
	calls       int
	comparisons []domain.Comparison
	err         error
}

func (m *mockReporter) PostReport(_ context.Context, _ domain.PRContext, comparisons []domain.Comparison) error {
	m.calls++
	m.comparisons = comparisons
	return m.err
}

var reviewPR = domain.PRContext{Owner: "acme", Repo: "diagrams", PRNumber: 7, BaseSHA: "base", HeadSHA: "head"}

func newReviewService(t *testing.T, changed *mockChanged, source *mockSource, reporter *mockReporter) *ReviewService {
	t.Helper()
	return NewReviewService(
		changed,
		newTestService(t, source, 2),
		reporter,
		nooptrace.NewTracerProvider().Tracer("test"),
		logger.Discard(),
	)
}

func TestReview(t *testing.T) {
	source := &mockSource{snapshots: map[string]string{
		"base:shop.uml":     "class Order",
		"head:shop.uml":     "class Order\n+id: int",
		"base:client.uml":   "class Client",
		"head:customer.uml": "class Customer",
		"head:user.uml":     "class User",
	}}
	changed := &mockChanged{diagrams: []domain.ChangedDiagram{
		{Path: "shop.uml", Status: domain.FileModified},
		{Path: "legacy.uml", Status: domain.FileRemoved},
		{Path: "customer.uml", PreviousPath: "client.uml", Status: domain.FileRenamed},
		{Path: "user.uml", Status: domain.FileAdded},
	}}
	reporter := &mockReporter{}
	svc := newReviewService(t, changed, source, reporter)

	if err := svc.Review(context.Background(), reviewPR); err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	if reporter.calls != 1 {
		t.Fatalf("PostReport calls = %d, want 1", reporter.calls)
	}
	got := reporter.comparisons
	if len(got) != 3 {
		t.Fatalf("len(comparisons) = %d, want 3 (removed diagram skipped)", len(got))
	}
	wantNames := []string{"shop.uml", "customer.uml", "user.uml"}
	for i, want := range wantNames {
		if got[i].Name != want {
			t.Errorf("comparison %d name = %q, want %q", i, got[i].Name, want)
		}
		if got[i].Status != domain.StatusChanges {
			t.Errorf("comparison %d status = %v, want %v", i, got[i].Status, domain.StatusChanges)
		}
	}
	if got[1].PreviousLabel != "client.uml (base)" {
		t.Errorf("renamed diagram previous label = %q, want %q", got[1].PreviousLabel, "client.uml (base)")
	}
}

func TestReview_ReadsSnapshotsFromPullRequestRepository(t *testing.T) {
	pr := domain.PRContext{Owner: "other-org", Repo: "billing", PRNumber: 3, BaseSHA: "base", HeadSHA: "head"}
	source := &mockSource{snapshots: map[string]string{
		"base:invoice.uml": "class Invoice",
		"head:invoice.uml": "class Invoice\n+total: int",
	}}
	reporter := &mockReporter{}
	svc := newReviewService(t,
		&mockChanged{diagrams: []domain.ChangedDiagram{{Path: "invoice.uml", Status: domain.FileModified}}},
		source,
		reporter,
	)

	if err := svc.Review(context.Background(), pr); err != nil {
		t.Fatalf("Review() error = %v", err)
	}

	if len(source.seen) != 2 {
		t.Fatalf("fetched %d snapshots, want 2", len(source.seen))
	}
	for _, snap := range source.seen {
		if snap.Owner != "other-org" || snap.Repo != "billing" {
			t.Errorf("snapshot %s@%s read from %s/%s, want other-org/billing", snap.Path, snap.Ref, snap.Owner, snap.Repo)
		}
	}
	if got := reporter.comparisons[0].Status; got != domain.StatusChanges {
		t.Errorf("status = %v, want %v", got, domain.StatusChanges)
	}
}

func TestReview_NoDiagramChanges(t *testing.T) {
	reporter := &mockReporter{}
	svc := newReviewService(t,
		&mockChanged{diagrams: []domain.ChangedDiagram{{Path: "old.uml", Status: domain.FileRemoved}}},
		&mockSource{},
		reporter,
	)

	if err := svc.Review(context.Background(), reviewPR); err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if reporter.calls != 0 {
		t.Errorf("PostReport calls = %d, want 0", reporter.calls)
	}
}

func TestReview_Errors(t *testing.T) {
	tests := []struct {
		name     string
		changed  *mockChanged
		reporter *mockReporter
		wantErr  string
	}{
		{
			name:     "listing fails",
			changed:  &mockChanged{err: errors.New("rate limited")},
			reporter: &mockReporter{},
			wantErr:  "listing changed diagrams: rate limited",
		},
		{
			name:     "posting fails",
			changed:  &mockChanged{diagrams: []domain.ChangedDiagram{{Path: "shop.uml"}}},
			reporter: &mockReporter{err: errors.New("forbidden")},
			wantErr:  "posting report: forbidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &mockSource{snapshots: map[string]string{"head:shop.uml": "a", "base:shop.uml": "a"}}
			svc := newReviewService(t, tt.changed, source, tt.reporter)

			err := svc.Review(context.Background(), reviewPR)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Review() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestChangedDiagram_CompareRequest(t *testing.T) {
	got := domain.ChangedDiagram{Path: "new.uml", PreviousPath: "old.uml", Status: domain.FileRenamed}.CompareRequest(reviewPR)

	want := domain.CompareRequest{
		Latest:   domain.SnapshotRef{Owner: "acme", Repo: "diagrams", Path: "new.uml", Ref: "head"},
		Previous: domain.SnapshotRef{Owner: "acme", Repo: "diagrams", Path: "old.uml", Ref: "base"},
	}
	if got != want {
		t.Errorf("CompareRequest() = %+v, want %+v", got, want)
	}
}
