// Package hub implements the core fixture-tree primitives of the mock
// hub: repository root layout, traversal-safe path resolution, Range
// header evaluation and path-info collection.
package hub

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// RepoKind selects the on-disk layout for a repository.
type RepoKind string

const (
	KindModel   RepoKind = "model"
	KindDataset RepoKind = "dataset"
)

var (
	// ErrNotFound signals a missing repository, file or directory.
	ErrNotFound = errors.New("not found")
	// ErrOutOfBounds signals a path escaping its repository root.
	// Callers treat it like ErrNotFound so internal layout never leaks.
	ErrOutOfBounds = errors.New("path escapes repository root")
)

// RepoRoot returns the directory holding a repository's files. Models
// live at <hubRoot>/<repoID>, datasets at <hubRoot>/datasets/<repoID>.
func RepoRoot(hubRoot string, kind RepoKind, repoID string) (string, error) {
	base := hubRoot
	if kind == KindDataset {
		base = filepath.Join(hubRoot, "datasets")
	}
	return SafeJoin(base, repoID)
}

// SafeJoin joins rel beneath root and verifies the cleaned result stays
// inside root. Leading slashes and surrounding whitespace on rel are
// stripped, matching how hub clients send repo-relative names.
func SafeJoin(root, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	rel = strings.TrimLeft(strings.TrimSpace(rel), "/")
	joined := filepath.Join(absRoot, filepath.FromSlash(rel))

	if joined != absRoot && !strings.HasPrefix(joined, absRoot+string(os.PathSeparator)) {
		return "", ErrOutOfBounds
	}
	return joined, nil
}

// Resolve validates rel beneath root and stats the target. Existence is
// checked freshly on every call: fixtures may appear between requests.
func Resolve(root, rel string) (string, fs.FileInfo, error) {
	target, err := SafeJoin(root, rel)
	if err != nil {
		return "", nil, err
	}

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, ErrNotFound
		}
		return "", nil, err
	}
	return target, info, nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
