package gitops

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Workflow pushes rendered pipeline configuration to the config repository
// through the git CLI.
type Workflow struct {
	RepoPath string
	Remote   string
	Branch   string
	Timeout  time.Duration

	logger zerolog.Logger
}

// NewWorkflow creates a git workflow rooted at repoPath.
func NewWorkflow(repoPath, remote, branch string, logger zerolog.Logger) *Workflow {
	if remote == "" {
		remote = "origin"
	}
	if branch == "" {
		branch = "main"
	}
	return &Workflow{
		RepoPath: repoPath,
		Remote:   remote,
		Branch:   branch,
		Timeout:  30 * time.Second,
		logger:   logger,
	}
}

func (w *Workflow) git(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", w.RepoPath}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("git %s: %w: %s",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Commit stages paths and commits them. A clean tree is a no-op, not an
// error.
func (w *Workflow) Commit(ctx context.Context, paths []string, message string) error {
	args := append([]string{"add", "--"}, paths...)
	if _, err := w.git(ctx, args...); err != nil {
		return err
	}

	// Exit status 1 from diff --cached --quiet means there is something to
	// commit.
	if _, err := w.git(ctx, "diff", "--cached", "--quiet"); err == nil {
		w.logger.Info().Msg("nothing to commit, tree is clean")
		return nil
	}

	if _, err := w.git(ctx, "commit", "-m", message); err != nil {
		return err
	}
	w.logger.Info().Str("message", message).Msg("committed configuration changes")
	return nil
}

// Push pushes the branch to the remote.
func (w *Workflow) Push(ctx context.Context) error {
	if _, err := w.git(ctx, "push", w.Remote, w.Branch); err != nil {
		return err
	}
	w.logger.Info().Str("remote", w.Remote).Str("branch", w.Branch).Msg("pushed configuration changes")
	return nil
}
