// Package githubout publishes comparison reports as pull request comments.
package githubout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gogithub "github.com/google/go-github/v68/github"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
)

// ReportFormatter renders comparisons as markdown.
type ReportFormatter interface {
	FormatReport(comparisons []domain.Comparison) string
}

// Adapter implements ports.ReportingPort by posting one comment per pull
// request, replacing the comment from the previous run.
type Adapter struct {
	client    *gogithub.Client
	formatter ReportFormatter
	appName   string
	logger    *slog.Logger
}

// New creates a new GitHub reporting adapter.
func New(client *gogithub.Client, formatter ReportFormatter, appName string, logger *slog.Logger) *Adapter {
	return &Adapter{client: client, formatter: formatter, appName: appName, logger: logger}
}

// PostReport posts the report for comparisons as a PR comment.
func (a *Adapter) PostReport(ctx context.Context, pr domain.PRContext, comparisons []domain.Comparison) error {
	if len(comparisons) == 0 {
		return errors.New("no comparisons to report")
	}

	a.logger.Info("posting PR comment", "owner", pr.Owner, "repo", pr.Repo, "pr", pr.PRNumber)

	// Delete old comments to avoid bloat
	marker := a.marker()
	a.deleteMatchingComments(ctx, pr, marker)

	body := a.FormatComment(comparisons)
	_, _, err := a.client.Issues.CreateComment(ctx, pr.Owner, pr.Repo, pr.PRNumber, &gogithub.IssueComment{
		Body: gogithub.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("creating PR comment: %w", err)
	}

	a.logger.Info("PR comment posted successfully", "pr", pr.PRNumber)
	return nil
}

// FormatComment returns the comment body: a hidden marker identifying
// comments from this app followed by the report.
func (a *Adapter) FormatComment(comparisons []domain.Comparison) string {
	return a.marker() + "\n" + a.formatter.FormatReport(comparisons)
}

func (a *Adapter) marker() string {
	return fmt.Sprintf("<!-- %s report -->", a.appName)
}

// deleteMatchingComments deletes comments containing the given marker.
func (a *Adapter) deleteMatchingComments(ctx context.Context, pr domain.PRContext, marker string) {
	opts := &gogithub.IssueListCommentsOptions{ListOptions: gogithub.ListOptions{PerPage: 100}}
	for {
		comments, resp, err := a.client.Issues.ListComments(ctx, pr.Owner, pr.Repo, pr.PRNumber, opts)
		if err != nil {
			a.logger.Warn("failed to list comments, continuing anyway", "error", err)
			return
		}
		for _, comment := range comments {
			if !strings.Contains(comment.GetBody(), marker) {
				continue
			}
			a.logger.Info("deleting old comment", "commentID", comment.GetID())
			if _, err := a.client.Issues.DeleteComment(ctx, pr.Owner, pr.Repo, comment.GetID()); err != nil {
				a.logger.Warn("failed to delete old comment", "commentID", comment.GetID(), "error", err)
			}
		}
		if resp.NextPage == 0 {
			return
		}
		opts.Page = resp.NextPage
	}
}
