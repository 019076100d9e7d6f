package app

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
	"github.com/nathantilsley/diagram-diff/internal/diff/ports"
)

// ReviewService implements ports.PRReviewUseCase: compare every diagram a
// pull request changes and post one report.
type ReviewService struct {
	changed  ports.ChangedDiagramsPort
	compare  ports.CompareUseCase
	reporter ports.ReportingPort
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewReviewService creates a ReviewService. compare must be backed by a
// snapshot source that can read both commits of the pull request.
func NewReviewService(
	changed ports.ChangedDiagramsPort,
	compare ports.CompareUseCase,
	reporter ports.ReportingPort,
	tracer trace.Tracer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		changed:  changed,
		compare:  compare,
		reporter: reporter,
		tracer:   tracer,
		logger:   logger,
	}
}

// Review compares the changed diagrams of pr and posts the report. Removed
// diagrams are skipped; a pull request without diagram changes gets no
// report.
func (s *ReviewService) Review(ctx context.Context, pr domain.PRContext) error {
	ctx, span := s.tracer.Start(ctx, "review_pull_request", trace.WithAttributes(
		attribute.String("pr.owner", pr.Owner),
		attribute.String("pr.repo", pr.Repo),
		attribute.Int("pr.number", pr.PRNumber),
	))
	defer span.End()

	log := s.logger.With("owner", pr.Owner, "repo", pr.Repo, "pr", pr.PRNumber)

	diagrams, err := s.changed.ChangedDiagrams(ctx, pr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("listing changed diagrams: %w", err)
	}

	reqs := make([]domain.CompareRequest, 0, len(diagrams))
	for _, d := range diagrams {
		if d.Status == domain.FileRemoved {
			log.Info("skipping removed diagram", "path", d.Path)
			continue
		}
		reqs = append(reqs, d.CompareRequest(pr))
	}
	span.SetAttributes(attribute.Int("pr.diagrams", len(reqs)))

	if len(reqs) == 0 {
		log.Info("no diagram changes in pull request")
		return nil
	}

	comparisons := s.compare.CompareBatch(ctx, reqs)

	if err := s.reporter.PostReport(ctx, pr, comparisons); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("posting report: %w", err)
	}

	_, changes, failed := domain.CountByStatus(comparisons)
	log.Info("pull request reviewed", "diagrams", len(comparisons), "changes", changes, "errors", failed)
	return nil
}
