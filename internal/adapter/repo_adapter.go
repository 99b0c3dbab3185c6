package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RepoAdapter records experiment changes in the experiment's git repository.
type RepoAdapter interface {
	// Commit stages every change in dir and commits it with message.
	// It reports whether a commit was made.
	Commit(ctx context.Context, dir, message string) (bool, error)
}

// LocalGitAdapter shells out to git.
type LocalGitAdapter struct {
	bin string
}

// NewLocalGitAdapter creates a LocalGitAdapter running bin.
func NewLocalGitAdapter(bin string) *LocalGitAdapter {
	if bin == "" {
		bin = "git"
	}

	return &LocalGitAdapter{bin: bin}
}

// Commit stages all changes except editor swap files and commits them.
// A stale index.lock left behind by an interrupted git process is removed first.
func (a *LocalGitAdapter) Commit(ctx context.Context, dir, message string) (bool, error) {
	status, err := runCommand(ctx, dir, a.bin, "status", "--porcelain")
	if err != nil {
		return false, err
	}

	if strings.TrimSpace(string(status)) == "" {
		return false, nil
	}

	lock := filepath.Join(dir, ".git", "index.lock")
	if err := os.Remove(lock); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to remove %s: %w", lock, err)
	}

	if _, err := runCommand(ctx, dir, a.bin, "add", "-A", "--", ".", ":(exclude)*.swp"); err != nil {
		return false, err
	}

	staged, err := runCommand(ctx, dir, a.bin, "diff", "--cached", "--name-only")
	if err != nil {
		return false, err
	}

	if strings.TrimSpace(string(staged)) == "" {
		return false, nil
	}

	if _, err := runCommand(ctx, dir, a.bin, "commit", "-m", message); err != nil {
		return false, err
	}

	return true, nil
}
