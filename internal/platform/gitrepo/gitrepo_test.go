package gitrepo

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	t.Parallel()

	repo := New("https://example.com/diagrams.git", "/tmp/test", 5*time.Minute, nil)

	if repo.repoURL != "https://example.com/diagrams.git" {
		t.Errorf("repoURL = %q, want %q", repo.repoURL, "https://example.com/diagrams.git")
	}
	if repo.syncInterval != 5*time.Minute {
		t.Errorf("syncInterval = %v, want %v", repo.syncInterval, 5*time.Minute)
	}
	if repo.Ready() {
		t.Error("Ready() should be false before Start")
	}
	if repo.Path() != "/tmp/test" {
		t.Errorf("Path() = %q, want %q", repo.Path(), "/tmp/test")
	}
}

func TestStart_CloneAndReady(t *testing.T) {
	t.Parallel()
	requireGit(t)

	srcDir := t.TempDir()
	cloneDir := filepath.Join(t.TempDir(), "clone")
	initHistoryRepo(t, srcDir)

	repo := New(srcDir, cloneDir, time.Hour, testLogger())
	if err := repo.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer repo.Stop()

	if !repo.Ready() {
		t.Error("Ready() should be true after Start")
	}
	if _, err := os.Stat(filepath.Join(cloneDir, ".git")); err != nil {
		t.Errorf("expected .git directory in clone: %v", err)
	}
}

func TestStart_PullWhenAlreadyCloned(t *testing.T) {
	t.Parallel()
	requireGit(t)

	srcDir := t.TempDir()
	cloneDir := filepath.Join(t.TempDir(), "clone")
	initHistoryRepo(t, srcDir)

	// Pre-clone so Start does a pull instead
	runGit(t, "", "clone", srcDir, cloneDir)

	repo := New(srcDir, cloneDir, time.Hour, testLogger())
	if err := repo.Start(context.Background()); err != nil {
		t.Fatalf("Start (pull path) failed: %v", err)
	}
	defer repo.Stop()

	if !repo.Ready() {
		t.Error("Ready() should be true after Start")
	}
}

func TestOnSync_CalledAfterStart(t *testing.T) {
	t.Parallel()
	requireGit(t)

	srcDir := t.TempDir()
	cloneDir := filepath.Join(t.TempDir(), "clone")
	initHistoryRepo(t, srcDir)

	repo := New(srcDir, cloneDir, time.Hour, testLogger())

	var first, second atomic.Int32
	repo.OnSync(func() { first.Add(1) })
	repo.OnSync(func() { second.Add(1) })

	if err := repo.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer repo.Stop()

	if first.Load() != 1 || second.Load() != 1 {
		t.Errorf("callbacks called %d and %d times, want 1 each", first.Load(), second.Load())
	}
}

func TestShow(t *testing.T) {
	t.Parallel()
	requireGit(t)

	srcDir := t.TempDir()
	initHistoryRepo(t, srcDir)

	repo, err := Open(srcDir, testLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	outputFile := filepath.Join(t.TempDir(), "written")

	tests := []struct {
		name    string
		rev     string
		path    string
		want    string
		wantErr error
	}{
		{name: "latest revision", rev: "HEAD", path: "shop.uml", want: "class Order\n+id: int\n+total: float\n"},
		{name: "empty rev means HEAD", rev: "", path: "shop.uml", want: "class Order\n+id: int\n+total: float\n"},
		{name: "previous revision", rev: "HEAD~1", path: "shop.uml", want: "class Order\n+id: int\n"},
		{name: "missing path", rev: "HEAD", path: "missing.uml", wantErr: ErrPathNotFound},
		{name: "missing revision", rev: "no-such-branch", path: "shop.uml", wantErr: ErrPathNotFound},
		{name: "output option", rev: "--output=" + outputFile, path: "shop.uml", wantErr: ErrInvalidRevision},
		{name: "short option", rev: "-p", path: "shop.uml", wantErr: ErrInvalidRevision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Show(context.Background(), tt.rev, tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Show() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Show() unexpected error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Show() = %q, want %q", got, tt.want)
			}
		})
	}

	if matches, _ := filepath.Glob(outputFile + "*"); len(matches) > 0 {
		t.Errorf("Show() let git write %v", matches)
	}
}

func TestShow_NotReady(t *testing.T) {
	t.Parallel()

	repo := New("https://example.com/diagrams.git", t.TempDir(), time.Hour, testLogger())
	if _, err := repo.Show(context.Background(), "HEAD", "shop.uml"); err == nil {
		t.Error("Show() before Start should fail")
	}
}

func TestOpen_NotACheckout(t *testing.T) {
	t.Parallel()

	if _, err := Open(t.TempDir(), testLogger()); err == nil {
		t.Error("Open() on a plain directory should fail")
	}
}

func TestStop(t *testing.T) {
	t.Parallel()
	requireGit(t)

	srcDir := t.TempDir()
	cloneDir := filepath.Join(t.TempDir(), "clone")
	initHistoryRepo(t, srcDir)

	// Use short sync interval so goroutine would tick if not stopped
	repo := New(srcDir, cloneDir, 10*time.Millisecond, testLogger())
	if err := repo.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Stop should not panic or block, even twice
	repo.Stop()
	repo.Stop()

	time.Sleep(50 * time.Millisecond)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not on PATH")
	}
}

// initHistoryRepo creates a repo with two revisions of shop.uml.
func initHistoryRepo(t *testing.T, dir string) {
	t.Helper()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test")

	commitFile(t, dir, "shop.uml", "class Order\n+id: int\n", "add order")
	commitFile(t, dir, "shop.uml", "class Order\n+id: int\n+total: float\n", "add total")
}

func commitFile(t *testing.T, dir, name, content, msg string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", msg)
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.CommandContext(context.Background(), "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\noutput: %s", args, err, output)
	}
}
