// Package gitrepo manages a local git clone of a diagram history repository:
// clone, pull, periodic background sync and reading files at any revision.
package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrPathNotFound is returned by Show when the path or the revision does
// not exist in the repository.
var ErrPathNotFound = errors.New("path not found at revision")

// ErrInvalidRevision is returned by Show for revisions git would parse as
// an option.
var ErrInvalidRevision = errors.New("revision must not start with '-'")

// GitRepo owns the clone/pull/sync lifecycle for a single git repository.
type GitRepo struct {
	repoURL      string
	localPath    string
	syncInterval time.Duration
	logger       *slog.Logger

	ready    atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	onSync   []func()     // callbacks after each successful sync
	mu       sync.RWMutex // pull + callbacks hold the write lock, Show the read lock
}

// New creates a GitRepo. No I/O is performed; call Start to clone/pull.
func New(repoURL, localPath string, syncInterval time.Duration, logger *slog.Logger) *GitRepo {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &GitRepo{
		repoURL:      repoURL,
		localPath:    localPath,
		syncInterval: syncInterval,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}
}

// Open wraps an existing checkout without a remote. The repository is ready
// immediately and is never synced.
func Open(localPath string, logger *slog.Logger) (*GitRepo, error) {
	if _, err := os.Stat(filepath.Join(localPath, ".git")); err != nil {
		return nil, fmt.Errorf("%s is not a git checkout: %w", localPath, err)
	}
	r := New("", localPath, 0, logger)
	r.ready.Store(true)
	return r, nil
}

// OnSync registers a callback invoked (under mu) after each successful git pull.
func (r *GitRepo) OnSync(fn func()) {
	r.onSync = append(r.onSync, fn)
}

// Start performs the initial clone (or pull if already cloned), invokes OnSync
// callbacks, marks the repo as ready, and starts the background sync goroutine.
func (r *GitRepo) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.initRepo(ctx); err != nil {
		return fmt.Errorf("initializing repo: %w", err)
	}

	r.runCallbacks()
	r.ready.Store(true)

	if r.syncInterval > 0 {
		go r.syncLoop(ctx)
	}
	r.logger.Info("gitrepo started", "repoURL", r.repoURL, "syncInterval", r.syncInterval)
	return nil
}

// Ready returns true after Start completes the initial clone and first callback cycle.
func (r *GitRepo) Ready() bool {
	return r.ready.Load()
}

// Path returns the local filesystem path of the cloned repository.
func (r *GitRepo) Path() string {
	return r.localPath
}

// Stop signals the background sync goroutine to exit. Safe to call twice.
func (r *GitRepo) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Show returns the contents of path at rev (any revision git understands:
// branch, tag, sha, HEAD~2, ...).
func (r *GitRepo) Show(ctx context.Context, rev, path string) ([]byte, error) {
	if !r.Ready() {
		return nil, errors.New("repository not ready")
	}
	if rev == "" {
		rev = "HEAD"
	}
	if strings.HasPrefix(rev, "-") {
		return nil, fmt.Errorf("%q: %w", rev, ErrInvalidRevision)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var stdout, stderr bytes.Buffer
	//nolint:gosec // G204: arguments are passed to git directly, not through a shell
	cmd := exec.CommandContext(ctx, "git", "-C", r.localPath, "show", "--end-of-options", rev+":"+filepath.ToSlash(path))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if isMissingObject(msg) {
			return nil, fmt.Errorf("%s at %s: %w", path, rev, ErrPathNotFound)
		}
		return nil, fmt.Errorf("git show failed: %w\noutput: %s", err, msg)
	}
	return stdout.Bytes(), nil
}

func isMissingObject(stderr string) bool {
	return strings.Contains(stderr, "does not exist in") ||
		strings.Contains(stderr, "exists on disk, but not in") ||
		strings.Contains(stderr, "invalid object name") ||
		strings.Contains(stderr, "unknown revision")
}

// initRepo clones the repository if it doesn't exist, or pulls latest if it does.
// The clone keeps full history so older revisions can be shown.
func (r *GitRepo) initRepo(ctx context.Context) error {
	gitDir := filepath.Join(r.localPath, ".git")

	if _, err := os.Stat(gitDir); err == nil {
		r.logger.Info("repository already exists, pulling latest")
		return r.pullRepo(ctx)
	}

	r.logger.Info("cloning repository", "repoURL", r.repoURL)
	//nolint:gosec // G204: repoURL is from trusted config, not user input
	cmd := exec.CommandContext(ctx, "git", "clone", r.repoURL, r.localPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git clone failed: %w\noutput: %s", err, output)
	}
	return nil
}

// pullRepo fetches all remote refs and fast-forwards the checked out branch.
func (r *GitRepo) pullRepo(ctx context.Context) error {
	//nolint:gosec // G204: localPath is from trusted config, not user input
	fetch := exec.CommandContext(ctx, "git", "-C", r.localPath, "fetch", "--prune", "--tags", "origin")
	if output, err := fetch.CombinedOutput(); err != nil {
		return fmt.Errorf("git fetch failed: %w\noutput: %s", err, output)
	}

	//nolint:gosec // G204: localPath is from trusted config, not user input
	cmd := exec.CommandContext(ctx, "git", "-C", r.localPath, "pull", "--ff-only")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git pull failed: %w\noutput: %s", err, output)
	}
	return nil
}

// syncLoop periodically pulls and invokes callbacks.
func (r *GitRepo) syncLoop(ctx context.Context) {
	ticker := time.NewTicker(r.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sync(ctx)
		case <-r.stopCh:
			r.logger.Info("stopping gitrepo sync loop")
			return
		case <-ctx.Done():
			return
		}
	}
}

// sync performs a single pull + callback cycle under mu.
func (r *GitRepo) sync(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug("syncing history repository")
	if err := r.pullRepo(ctx); err != nil {
		r.logger.Error("failed to pull repository", "error", err)
		return
	}

	r.runCallbacks()
	r.logger.Debug("history repository synced")
}

// runCallbacks invokes all OnSync callbacks sequentially. Must be called under mu.
func (r *GitRepo) runCallbacks() {
	for _, fn := range r.onSync {
		fn()
	}
}
