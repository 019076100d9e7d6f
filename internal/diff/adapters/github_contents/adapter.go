// Package githubcontents reads diagram snapshots through the GitHub contents API.
package githubcontents

import (
	"context"
	"fmt"
	"net/http"

	gogithub "github.com/google/go-github/v68/github"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
)

// Adapter implements ports.SnapshotSourcePort. Snapshots naming a
// repository are read from it; the rest come from the default one.
type Adapter struct {
	client *gogithub.Client
	owner  string
	repo   string
}

// New creates a GitHub contents adapter defaulting to owner/repo.
func New(client *gogithub.Client, owner, repo string) *Adapter {
	return &Adapter{client: client, owner: owner, repo: repo}
}

// FetchSnapshot downloads snap.Path at snap.Ref (branch, tag or sha; empty
// means the default branch).
func (a *Adapter) FetchSnapshot(ctx context.Context, snap domain.SnapshotRef) (string, error) {
	owner, repo := a.owner, a.repo
	if snap.Owner != "" || snap.Repo != "" {
		owner, repo = snap.Owner, snap.Repo
	}
	if owner == "" || repo == "" {
		return "", fmt.Errorf("no repository for snapshot %s", snap.Path)
	}
	path, ref := snap.Path, snap.Ref

	fileContent, _, resp, err := a.client.Repositories.GetContents(ctx, owner, repo, path, &gogithub.RepositoryContentGetOptions{
		Ref: ref,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", domain.NewNotFoundError(path, ref)
		}
		return "", fmt.Errorf("fetching %s from %s/%s: %w", path, owner, repo, err)
	}
	if fileContent == nil {
		return "", fmt.Errorf("%s in %s/%s is a directory, not a diagram snapshot", path, owner, repo)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding %s content: %w", path, err)
	}
	return content, nil
}
