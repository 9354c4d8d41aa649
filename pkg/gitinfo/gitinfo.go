// Package gitinfo reads repository metadata by shelling out to git.
//
// The package deliberately uses the git CLI rather than reimplementing
// repository access: the binary is assumed present wherever
// repositories are analyzed, and the CLI's output formats are stable.
// All operations accept a context and terminate the child process when
// it is cancelled.
package gitinfo

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/codecity/pkg/errors"
	"github.com/matzehuels/codecity/pkg/metrics"
)

// Repo is a handle to a local git repository.
type Repo struct {
	path string
}

// Open validates that path is an existing directory and returns a
// repository handle. No git command runs until a method is called.
func Open(path string) (*Repo, error) {
	if err := errors.ValidateRepoPath(path); err != nil {
		return nil, err
	}
	return &Repo{path: path}, nil
}

// Path returns the repository's root path.
func (r *Repo) Path() string { return r.path }

// Files lists all tracked files, relative to the repository root.
// Paths that would not survive as metrics keys are dropped.
func (r *Repo) Files(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, "ls-files")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line == "" || !metrics.ValidPath(line) {
			continue
		}
		files = append(files, line)
	}
	return files, nil
}

// HeadCommit returns the full hash of HEAD.
func (r *Repo) HeadCommit(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CurrentBranch returns the short name of the checked-out branch, or
// "HEAD" in detached state.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RemoteURL returns the URL of the origin remote, or an empty string
// when no remote is configured.
func (r *Repo) RemoteURL(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "remote", "get-url", "origin")
	if err != nil {
		// A repository without remotes is common and not an error.
		if errors.Is(err, errors.ErrCodeGit) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// FileTimes holds the commit timestamps of one file.
type FileTimes struct {
	CreatedAt    time.Time
	LastModified time.Time
}

// Timestamps walks the full commit history once and returns, for each
// tracked path, the time of its first and most recent commit. A single
// history walk is dramatically cheaper than one git log per file on
// large repositories.
func (r *Repo) Timestamps(ctx context.Context) (map[string]FileTimes, error) {
	// %x00 expands to a NUL byte in git's output, marking commit
	// timestamp lines unambiguously against arbitrary file names.
	out, err := r.run(ctx, "log", "--pretty=format:%x00%ct", "--name-only")
	if err != nil {
		return nil, err
	}

	// Output is newest-first: the first commit mentioning a path sets
	// LastModified, every later mention pushes CreatedAt back.
	times := make(map[string]FileTimes)
	var current time.Time
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "\x00") {
			secs, err := strconv.ParseInt(line[1:], 10, 64)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeGit, err, "unparsable commit timestamp %q", line[1:])
			}
			current = time.Unix(secs, 0).UTC()
			continue
		}
		if current.IsZero() || !metrics.ValidPath(line) {
			continue
		}
		ft, seen := times[line]
		if !seen {
			ft.LastModified = current
		}
		ft.CreatedAt = current
		times[line] = ft
	}
	return times, nil
}

// ApplyTimestamps fills CreatedAt and LastModified on collected
// metrics in place. Files absent from the map (untracked or never
// committed) keep zero timestamps.
func ApplyTimestamps(files []metrics.FileMetrics, times map[string]FileTimes) {
	for i := range files {
		if ft, ok := times[files[i].Path]; ok {
			files[i].CreatedAt = ft.CreatedAt
			files[i].LastModified = ft.LastModified
		}
	}
}

// run executes one git subcommand against the repository and returns
// its stdout.
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", r.path}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "git %s interrupted", args[0])
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", errors.Wrap(errors.ErrCodeGit, err, "git %s failed: %s", args[0], msg)
	}
	return stdout.String(), nil
}
