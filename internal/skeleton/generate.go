package skeleton

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fakehub/fakehub/internal/hub"
)

// fillChunkSize bounds the write buffer when filling placeholder
// files, so generating multi-gigabyte fixtures stays cheap on memory.
const fillChunkSize = 1024 * 1024

// Options control how placeholder files are generated.
type Options struct {
	// Force overwrites files that already exist.
	Force bool
	// DryRun reports intended paths without touching the filesystem.
	DryRun bool
	// FillSize, when non-negative, fills each file to this many bytes.
	// Negative means create empty files.
	FillSize int64
	// FillPattern is the byte sequence repeated when filling. Empty
	// means zero bytes.
	FillPattern []byte
}

// Generate creates placeholder files under root for each tree item and
// returns the absolute paths it touched (or would touch, on dry run).
// Item paths escaping root abort the run.
func Generate(root string, files []TreeItem, opts Options) ([]string, error) {
	if !opts.DryRun {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, err
		}
	}

	created := make([]string, 0, len(files))
	for _, it := range files {
		absPath, err := hub.SafeJoin(root, it.Path)
		if err != nil {
			return nil, fmt.Errorf("suspicious path %q: %w", it.Path, err)
		}
		if opts.DryRun {
			created = append(created, absPath)
			continue
		}
		if opts.FillSize >= 0 {
			err = writeFilled(absPath, opts.FillSize, opts.FillPattern, opts.Force)
		} else {
			err = touchEmpty(absPath, opts.Force)
		}
		if err != nil {
			return nil, err
		}
		created = append(created, absPath)
	}
	return created, nil
}

// touchEmpty creates a zero-byte file, leaving existing files alone
// unless force is set.
func touchEmpty(p string, force bool) error {
	if _, err := os.Stat(p); err == nil && !force {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, nil, 0o644)
}

// writeFilled creates a file of exactly size bytes built from the
// repeated pattern, writing in chunks. Existing files are left alone
// unless force is set.
func writeFilled(p string, size int64, pattern []byte, force bool) error {
	if size < 0 {
		return fmt.Errorf("negative fill size %d", size)
	}
	if _, err := os.Stat(p); err == nil && !force {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}

	f, err := os.Create(p)
	if err != nil {
		return err
	}

	if size == 0 {
		return f.Close()
	}

	if len(pattern) == 0 {
		pattern = []byte{0}
	}
	reps := fillChunkSize / len(pattern)
	if reps < 1 {
		reps = 1
	}
	chunk := bytes.Repeat(pattern, reps)
	if int64(len(chunk)) > size {
		chunk = chunk[:size]
	}

	var written int64
	for written+int64(len(chunk)) <= size {
		if _, err := f.Write(chunk); err != nil {
			f.Close()
			return err
		}
		written += int64(len(chunk))
	}
	if remaining := size - written; remaining > 0 {
		if _, err := f.Write(chunk[:remaining]); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}
