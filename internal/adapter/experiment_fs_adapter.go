// Package adapter contains the infrastructure adapters used by the perturb CLI.
package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ExperimentFSAdapter abstracts the filesystem operations the domain layer
// performs on experiment directories. It hides direct `os` access so the
// workflow logic can be exercised against a fake tree.
//
//nolint:interfacebloat // A richer interface keeps workflow logic decoupled from os/fs.
type ExperimentFSAdapter interface {
	// FileInfo describes path, following symlinks.
	FileInfo(path string) (os.FileInfo, error)

	// LinkInfo describes path itself, without following a final symlink.
	LinkInfo(path string) (os.FileInfo, error)

	// RealPath returns the absolute path with every symlink resolved. Paths
	// that do not exist yet are returned in absolute form.
	RealPath(path string) (string, error)

	// Symlink creates link pointing at target.
	Symlink(target, link string) error

	// Remove deletes a file or symlink.
	Remove(path string) error

	// MkdirAll creates a directory and its parents.
	MkdirAll(path string, perm os.FileMode) error

	// Glob returns the paths matching pattern.
	Glob(pattern string) ([]string, error)
}

// LocalExperimentFSAdapter implements ExperimentFSAdapter on the local disk.
type LocalExperimentFSAdapter struct{}

// NewLocalExperimentFSAdapter constructs a LocalExperimentFSAdapter.
func NewLocalExperimentFSAdapter() *LocalExperimentFSAdapter {
	return &LocalExperimentFSAdapter{}
}

// FileInfo returns os.Stat for path.
func (a *LocalExperimentFSAdapter) FileInfo(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// LinkInfo returns os.Lstat for path.
func (a *LocalExperimentFSAdapter) LinkInfo(path string) (os.FileInfo, error) {
	return os.Lstat(path)
}

// RealPath resolves symlinks in path.
func (a *LocalExperimentFSAdapter) RealPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if errors.Is(err, os.ErrNotExist) {
		return abs, nil
	}

	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	return resolved, nil
}

// Symlink creates a symbolic link.
func (a *LocalExperimentFSAdapter) Symlink(target, link string) error {
	return os.Symlink(target, link)
}

// Remove deletes path.
func (a *LocalExperimentFSAdapter) Remove(path string) error {
	return os.Remove(path)
}

// MkdirAll creates path and any missing parents.
func (a *LocalExperimentFSAdapter) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Glob expands pattern.
func (a *LocalExperimentFSAdapter) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}
