package gitinfo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/codecity/pkg/errors"
	"github.com/matzehuels/codecity/pkg/metrics"
)

// initRepo creates a throwaway git repository with two commits.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	run("init", "-q", "-b", "main")
	if err := os.WriteFile(filepath.Join(dir, "first.py"), []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", "first.py")
	run("commit", "-q", "-m", "first")

	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "second.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", "src/second.py")
	run("commit", "-q", "-m", "second")

	return dir
}

func TestOpenMissingRepo(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, errors.ErrCodeRepoNotFound) {
		t.Errorf("error = %v, want REPO_NOT_FOUND", err)
	}
}

func TestFiles(t *testing.T) {
	repo, err := Open(initRepo(t))
	if err != nil {
		t.Fatal(err)
	}

	files, err := repo.Files(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want 2 entries", files)
	}
	want := map[string]bool{"first.py": true, "src/second.py": true}
	for _, f := range files {
		if !want[f] {
			t.Errorf("unexpected file %q", f)
		}
	}
}

func TestHeadCommitAndBranch(t *testing.T) {
	repo, err := Open(initRepo(t))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	head, err := repo.HeadCommit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(head) != 40 {
		t.Errorf("head = %q, want full 40-char hash", head)
	}

	branch, err := repo.CurrentBranch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if branch != "main" {
		t.Errorf("branch = %q, want main", branch)
	}
}

func TestRemoteURLWithoutRemote(t *testing.T) {
	repo, err := Open(initRepo(t))
	if err != nil {
		t.Fatal(err)
	}

	url, err := repo.RemoteURL(context.Background())
	if err != nil {
		t.Fatalf("missing remote should not error: %v", err)
	}
	if url != "" {
		t.Errorf("url = %q, want empty", url)
	}
}

func TestTimestamps(t *testing.T) {
	repo, err := Open(initRepo(t))
	if err != nil {
		t.Fatal(err)
	}

	times, err := repo.Timestamps(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(times) != 2 {
		t.Fatalf("timestamps = %v, want 2 entries", times)
	}

	for path, ft := range times {
		if ft.CreatedAt.IsZero() || ft.LastModified.IsZero() {
			t.Errorf("%s: zero timestamps %+v", path, ft)
		}
		if ft.LastModified.Before(ft.CreatedAt) {
			t.Errorf("%s: modified %v before created %v", path, ft.LastModified, ft.CreatedAt)
		}
		if time.Since(ft.LastModified) > time.Hour {
			t.Errorf("%s: implausible timestamp %v", path, ft.LastModified)
		}
	}
}

func TestApplyTimestamps(t *testing.T) {
	files := []metrics.FileMetrics{
		{Path: "a.py"},
		{Path: "untracked.py"},
	}
	stamp := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ApplyTimestamps(files, map[string]FileTimes{
		"a.py": {CreatedAt: stamp, LastModified: stamp.Add(time.Hour)},
	})

	if !files[0].CreatedAt.Equal(stamp) || !files[0].LastModified.Equal(stamp.Add(time.Hour)) {
		t.Errorf("tracked file = %+v", files[0])
	}
	if !files[1].CreatedAt.IsZero() || !files[1].LastModified.IsZero() {
		t.Errorf("untracked file gained timestamps: %+v", files[1])
	}
}

func TestCancelledContext(t *testing.T) {
	repo, err := Open(initRepo(t))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.Files(ctx); err == nil {
		t.Error("cancelled context did not error")
	}
}
