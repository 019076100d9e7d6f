// Package githistory reads diagram snapshots from a local git clone.
package githistory

import (
	"context"
	"errors"
	"fmt"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
	"github.com/nathantilsley/diagram-diff/internal/platform/gitrepo"
)

// Repository is the subset of gitrepo.GitRepo the adapter needs.
type Repository interface {
	Show(ctx context.Context, rev, path string) ([]byte, error)
}

// Adapter implements ports.SnapshotSourcePort over git revisions.
type Adapter struct {
	repo Repository
}

// New creates a git history adapter.
func New(repo Repository) *Adapter {
	return &Adapter{repo: repo}
}

// FetchSnapshot returns the content of path at ref from the single
// repository the clone holds.
func (a *Adapter) FetchSnapshot(ctx context.Context, snap domain.SnapshotRef) (string, error) {
	path, ref := snap.Path, snap.Ref
	content, err := a.repo.Show(ctx, ref, path)
	if err != nil {
		if errors.Is(err, gitrepo.ErrPathNotFound) {
			return "", domain.NewNotFoundError(path, ref)
		}
		return "", fmt.Errorf("reading %s at %s: %w", path, ref, err)
	}
	return string(content), nil
}
