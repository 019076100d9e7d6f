// Package localfiles reads diagram snapshots from a directory tree.
package localfiles

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
)

// Adapter implements ports.SnapshotSourcePort over a directory laid out as
// {root}/{ref}/{path}. An empty ref reads {root}/{path}.
type Adapter struct {
	root string
}

// New creates a local files adapter rooted at root.
func New(root string) *Adapter {
	return &Adapter{root: root}
}

// FetchSnapshot reads the snapshot for path at ref. The tree holds a
// single repository, so Owner and Repo are ignored.
func (a *Adapter) FetchSnapshot(_ context.Context, snap domain.SnapshotRef) (string, error) {
	path, ref := snap.Path, snap.Ref
	full, err := a.resolve(path, ref)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.NewNotFoundError(path, ref)
		}
		return "", fmt.Errorf("reading snapshot: %w", err)
	}
	return string(content), nil
}

// resolve joins root, ref and path, rejecting anything that escapes root.
func (a *Adapter) resolve(path, ref string) (string, error) {
	root := filepath.Clean(a.root)
	full := filepath.Join(root, ref, path)
	if full != root && !strings.HasPrefix(full, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal snapshot path %q at ref %q", path, ref)
	}
	return full, nil
}
