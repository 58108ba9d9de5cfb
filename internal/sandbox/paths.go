// Package sandbox confines generated output to the project root and
// evaluates file conditions in a bounded expression VM.
package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// EscapeError reports a path that resolves outside the project root.
type EscapeError struct {
	Path     string
	Resolved string
	Root     string
}

func (e *EscapeError) Error() string {
	return fmt.Sprintf("path '%s' resolves to '%s' which is outside the project root '%s'", e.Path, e.Resolved, e.Root)
}

// ValidatePath resolves relPath against projectRoot, following symlinks of
// the existing prefix, and returns the absolute path if it stays inside the
// root.
func ValidatePath(projectRoot, relPath string) (string, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", fmt.Errorf("resolving project root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving project root symlinks: %w", err)
	}

	candidate := relPath
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(realRoot, relPath)
	}
	resolved, err := resolveExistingPath(filepath.Clean(candidate))
	if err != nil {
		return "", fmt.Errorf("resolving target path: %w", err)
	}

	// The separator suffix keeps "root2" from matching "root".
	if resolved != realRoot && !strings.HasPrefix(resolved, realRoot+string(filepath.Separator)) {
		return "", &EscapeError{Path: relPath, Resolved: resolved, Root: realRoot}
	}
	return resolved, nil
}

// resolveExistingPath resolves symlinks for the longest existing prefix of
// path and appends the rest unchanged.
func resolveExistingPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir, base := filepath.Dir(path), filepath.Base(path)
	if dir == path {
		return path, nil
	}
	resolvedDir, err := resolveExistingPath(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, base), nil
}

// SafeWrite atomically writes content to relPath inside projectRoot,
// creating parent directories.
func SafeWrite(projectRoot, relPath string, content []byte, perm os.FileMode) error {
	resolved, err := ValidatePath(projectRoot, relPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Same directory keeps the rename on one filesystem.
	tmp, err := os.CreateTemp(dir, ".feasible-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpPath, resolved); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", resolved, err)
	}

	success = true
	return nil
}

// SafeRemove removes relPath inside projectRoot. A missing file is not an
// error.
func SafeRemove(projectRoot, relPath string) error {
	resolved, err := ValidatePath(projectRoot, relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(resolved); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Snapshot is the state of one file before it was overwritten.
type Snapshot struct {
	Root    string
	Path    string
	Existed bool
	Content []byte
	Mode    os.FileMode
}

// TakeSnapshot records relPath so it can be put back with Restore.
func TakeSnapshot(projectRoot, relPath string) (*Snapshot, error) {
	resolved, err := ValidatePath(projectRoot, relPath)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Root: projectRoot, Path: relPath}
	info, err := os.Stat(resolved)
	if errors.Is(err, fs.ErrNotExist) {
		return snap, nil
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", relPath)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, err
	}
	snap.Existed = true
	snap.Content = data
	snap.Mode = info.Mode().Perm()
	return snap, nil
}

// Restore puts the file back as it was, removing it if it did not exist.
func (s *Snapshot) Restore() error {
	if !s.Existed {
		return SafeRemove(s.Root, s.Path)
	}
	return SafeWrite(s.Root, s.Path, s.Content, s.Mode)
}
