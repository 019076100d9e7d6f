// Package prfiles finds the diagram files changed by a pull request.
package prfiles

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/google/go-github/v68/github"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
)

// DefaultExtensions are the file extensions treated as diagrams.
var DefaultExtensions = []string{".uml", ".puml", ".plantuml", ".iuml"}

// Adapter implements ports.ChangedDiagramsPort by querying the GitHub API
// for files changed in a pull request and keeping those with a diagram
// extension.
type Adapter struct {
	client     *github.Client
	extensions []string
	logger     *slog.Logger
}

// New creates a new PR files adapter. Empty extensions means
// DefaultExtensions.
func New(client *github.Client, extensions []string, logger *slog.Logger) *Adapter {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	normalized := make([]string, len(extensions))
	for i, ext := range extensions {
		normalized[i] = strings.ToLower(ext)
	}
	return &Adapter{
		client:     client,
		extensions: normalized,
		logger:     logger,
	}
}

// Lookup resolves the base and head commits of a pull request.
func (a *Adapter) Lookup(ctx context.Context, owner, repo string, number int) (domain.PRContext, error) {
	pr, _, err := a.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return domain.PRContext{}, fmt.Errorf("getting pull request %s/%s#%d: %w", owner, repo, number, err)
	}
	return domain.PRContext{
		Owner:    owner,
		Repo:     repo,
		PRNumber: number,
		BaseSHA:  pr.GetBase().GetSHA(),
		HeadSHA:  pr.GetHead().GetSHA(),
	}, nil
}

// ChangedDiagrams returns the diagram files modified in the PR, in the
// order GitHub lists them. A rename counts when either name is a diagram.
func (a *Adapter) ChangedDiagrams(ctx context.Context, pr domain.PRContext) ([]domain.ChangedDiagram, error) {
	var diagrams []domain.ChangedDiagram
	opts := &github.ListOptions{PerPage: 100}

	for {
		files, resp, err := a.client.PullRequests.ListFiles(ctx, pr.Owner, pr.Repo, pr.PRNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("listing PR files: %w", err)
		}

		for _, file := range files {
			d := domain.ChangedDiagram{
				Path:         file.GetFilename(),
				PreviousPath: file.GetPreviousFilename(),
				Status:       fileStatus(file.GetStatus()),
			}
			if !a.isDiagram(d.Path) && !a.isDiagram(d.PreviousPath) {
				continue
			}
			a.logger.Debug("detected changed diagram", "path", d.Path, "status", file.GetStatus())
			diagrams = append(diagrams, d)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	a.logger.Debug("found changed diagrams in PR", "count", len(diagrams))
	return diagrams, nil
}

func (a *Adapter) isDiagram(filePath string) bool {
	if filePath == "" {
		return false
	}
	return slices.Contains(a.extensions, strings.ToLower(path.Ext(filePath)))
}

// fileStatus maps the GitHub file status. "copied" and "changed" count as
// modifications.
func fileStatus(status string) domain.FileStatus {
	switch status {
	case "added":
		return domain.FileAdded
	case "removed":
		return domain.FileRemoved
	case "renamed":
		return domain.FileRenamed
	default:
		return domain.FileModified
	}
}
