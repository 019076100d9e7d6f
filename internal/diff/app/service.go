package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
	"github.com/nathantilsley/diagram-diff/internal/diff/ports"
)

const noChangesMessage = "No changes detected."

// ErrNoSnapshotSource is returned by CompareRefs when no snapshot source is
// configured.
var ErrNoSnapshotSource = errors.New("no snapshot source configured")

// CompareService implements ports.CompareUseCase: fetch snapshots, align
// them once, then project buckets, rows, inline spans and a unified patch.
type CompareService struct {
	source  ports.SnapshotSourcePort // Optional: needed for ref-based comparisons
	unified ports.DiffPort
	inline  ports.InlineDiffPort // Optional: intra-line spans for modified rows
	workers chan struct{}
	tracer  trace.Tracer
	metrics serviceMetrics
	logger  *slog.Logger
}

type serviceMetrics struct {
	comparisons metric.Int64Counter
	lines       metric.Int64Histogram
	duration    metric.Float64Histogram
}

// NewCompareService creates a CompareService wired with its driven ports.
// source and inline may be nil. maxConcurrent bounds CompareBatch workers.
func NewCompareService(
	source ports.SnapshotSourcePort,
	unified ports.DiffPort,
	inline ports.InlineDiffPort,
	maxConcurrent int,
	meter metric.Meter,
	tracer trace.Tracer,
	logger *slog.Logger,
) (*CompareService, error) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	m, err := newServiceMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &CompareService{
		source:  source,
		unified: unified,
		inline:  inline,
		workers: make(chan struct{}, maxConcurrent),
		tracer:  tracer,
		metrics: m,
		logger:  logger,
	}, nil
}

func newServiceMetrics(meter metric.Meter) (serviceMetrics, error) {
	comparisons, err := meter.Int64Counter("diagram_diff.comparisons",
		metric.WithDescription("Comparisons performed, by status"))
	if err != nil {
		return serviceMetrics{}, err
	}
	lines, err := meter.Int64Histogram("diagram_diff.lines",
		metric.WithDescription("Lines compared per comparison (both snapshots)"))
	if err != nil {
		return serviceMetrics{}, err
	}
	duration, err := meter.Float64Histogram("diagram_diff.duration",
		metric.WithDescription("Time spent comparing two snapshots"),
		metric.WithUnit("ms"))
	if err != nil {
		return serviceMetrics{}, err
	}
	return serviceMetrics{comparisons: comparisons, lines: lines, duration: duration}, nil
}

// CompareText diffs two snapshots supplied by the caller.
func (s *CompareService) CompareText(ctx context.Context, name, latest, previous string) domain.Comparison {
	return s.compare(ctx, name,
		domain.DiffLabel(name, "latest"),
		domain.DiffLabel(name, "previous"),
		latest, previous)
}

// CompareRefs fetches both snapshots from the source and diffs them. A
// snapshot missing at the previous ref is compared as an empty diagram.
func (s *CompareService) CompareRefs(ctx context.Context, req domain.CompareRequest) (domain.Comparison, error) {
	if s.source == nil {
		return domain.Comparison{}, ErrNoSnapshotSource
	}
	if err := req.Validate(); err != nil {
		return domain.Comparison{}, err
	}

	name := req.DisplayName()
	fetchCtx, span := s.tracer.Start(ctx, "fetch_snapshots", trace.WithAttributes(
		attribute.String("diagram.name", name),
		attribute.String("diagram.latest_ref", req.Latest.Ref),
		attribute.String("diagram.previous_ref", req.Previous.Ref),
	))

	latest, err := s.source.FetchSnapshot(fetchCtx, req.Latest)
	if err != nil {
		s.fail(ctx, span, err)
		return domain.Comparison{}, fmt.Errorf("fetching latest snapshot: %w", err)
	}

	previous, err := s.source.FetchSnapshot(fetchCtx, req.Previous)
	switch {
	case domain.IsNotFound(err):
		s.logger.Info("diagram not found at previous ref, treating as new diagram",
			"diagram", name,
			"previousRef", req.Previous.Ref,
		)
		previous = ""
	case err != nil:
		s.fail(ctx, span, err)
		return domain.Comparison{}, fmt.Errorf("fetching previous snapshot: %w", err)
	}
	span.End()

	return s.compare(ctx, name, req.Latest.Label(), req.Previous.Label(), latest, previous), nil
}

// CompareBatch compares every request on the worker pool and returns the
// comparisons in request order.
func (s *CompareService) CompareBatch(ctx context.Context, reqs []domain.CompareRequest) []domain.Comparison {
	results := make([]domain.Comparison, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case s.workers <- struct{}{}: // acquire worker slot
			case <-ctx.Done():
				results[i] = errorComparison(req, ctx.Err())
				return
			}
			defer func() { <-s.workers }() // release worker slot

			c, err := s.CompareRefs(ctx, req)
			if err != nil {
				s.logger.Error("comparison failed", "diagram", req.DisplayName(), "error", err)
				c = errorComparison(req, err)
			}
			results[i] = c
		}()
	}
	wg.Wait()

	_, changes, failed := domain.CountByStatus(results)
	s.logger.Info("batch compared", "count", len(results), "changes", changes, "errors", failed)
	return results
}

func (s *CompareService) compare(ctx context.Context, name, latestLabel, previousLabel, latest, previous string) domain.Comparison {
	ctx, span := s.tracer.Start(ctx, "compare", trace.WithAttributes(attribute.String("diagram.name", name)))
	defer span.End()
	start := time.Now()

	ops := domain.Align(latest, previous)
	result := domain.Classify(ops)
	rows := domain.ToRows(ops)
	inline := s.inlineChanges(rows)
	unified := s.unified.ComputeDiff(previousLabel, latestLabel, previous, latest)

	stats := result.Counts()
	status := domain.StatusSuccess
	summary := noChangesMessage
	if result.HasChanges() {
		status = domain.StatusChanges
		summary = fmt.Sprintf("Changes detected in %s: %d added, %d removed, %d modified, %d unchanged.",
			name, stats.Added, stats.Removed, stats.Modified, stats.Unchanged)
	}

	lineCount := int64(len(ops) + stats.Unchanged)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	s.metrics.comparisons.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status.String())))
	s.metrics.lines.Record(ctx, lineCount)
	s.metrics.duration.Record(ctx, elapsed)
	span.SetAttributes(
		attribute.Int64("diagram.lines", lineCount),
		attribute.Int("diagram.added", stats.Added),
		attribute.Int("diagram.removed", stats.Removed),
		attribute.Int("diagram.modified", stats.Modified),
	)

	s.logger.Debug("diagram compared",
		"diagram", name,
		"status", status,
		"rows", len(rows),
		"durationMs", elapsed,
	)

	return domain.Comparison{
		Name:          name,
		LatestLabel:   latestLabel,
		PreviousLabel: previousLabel,
		Status:        status,
		Result:        result,
		Rows:          rows,
		Inline:        inline,
		UnifiedDiff:   unified,
		Summary:       summary,
	}
}

func (s *CompareService) inlineChanges(rows []domain.Row) []domain.InlineChange {
	if s.inline == nil {
		return nil
	}
	var changes []domain.InlineChange
	for i, row := range rows {
		if row.Kind != domain.RowModified {
			continue
		}
		changes = append(changes, domain.InlineChange{Row: i, Spans: s.inline.Spans(row.Left, row.Right)})
	}
	return changes
}

func (s *CompareService) fail(ctx context.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
	s.metrics.comparisons.Add(ctx, 1, metric.WithAttributes(attribute.String("status", domain.StatusError.String())))
}

func errorComparison(req domain.CompareRequest, err error) domain.Comparison {
	return domain.Comparison{
		Name:          req.DisplayName(),
		LatestLabel:   req.Latest.Label(),
		PreviousLabel: req.Previous.Label(),
		Status:        domain.StatusError,
		Summary:       fmt.Sprintf("❌ Error comparing %s: %s", req.DisplayName(), err),
	}
}
