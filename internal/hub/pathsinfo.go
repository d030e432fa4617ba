package hub

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fakehub/fakehub/internal/hashcache"
	"github.com/fakehub/fakehub/internal/logging"
	"github.com/fakehub/fakehub/internal/metrics"
)

// SidecarName is the per-repository index of precomputed file metadata,
// written by the skeleton generator and consumed here to avoid
// rehashing large fixtures.
const SidecarName = ".paths-info.json"

// SidecarLFS mirrors the lfs block of a sidecar entry.
type SidecarLFS struct {
	OID  string `json:"oid,omitempty"`
	Size int64  `json:"size"`
}

// SidecarEntry is one precomputed file record in the sidecar index.
type SidecarEntry struct {
	Path string      `json:"path"`
	Type string      `json:"type"`
	Size int64       `json:"size"`
	OID  string      `json:"oid,omitempty"`
	ETag string      `json:"etag,omitempty"`
	LFS  *SidecarLFS `json:"lfs,omitempty"`
}

// Sidecar is the on-disk shape of the index file.
type Sidecar struct {
	Version int            `json:"version"`
	Entries []SidecarEntry `json:"entries"`
}

// LFSInfo reports the LFS-style digest of a served file.
type LFSInfo struct {
	OID  string `json:"oid,omitempty"`
	Size int64  `json:"size"`
}

// PathInfo is one record of a paths-info response. Directory records
// carry only path and type.
type PathInfo struct {
	Path string   `json:"path"`
	Type string   `json:"type"`
	Size *int64   `json:"size,omitempty"`
	OID  string   `json:"oid,omitempty"`
	LFS  *LFSInfo `json:"lfs,omitempty"`
}

// DirectoryInfo returns a bare directory record.
func DirectoryInfo(relPath string) PathInfo {
	return PathInfo{Path: filepath.ToSlash(relPath), Type: "directory"}
}

// Collector enumerates files beneath a repository root, attaching
// digests from the sidecar index when trustworthy and computing them
// through the hash cache otherwise.
type Collector struct {
	hasher *hashcache.Hasher
}

// NewCollector creates a Collector backed by the given hasher.
func NewCollector(h *hashcache.Hasher) *Collector {
	return &Collector{hasher: h}
}

// Collect returns file records beneath baseDir. With an empty relPrefix
// the whole tree is walked; a directory prefix walks that subtree and
// includes a record for the directory itself; a file prefix yields a
// single record. Nonexistent or escaping prefixes yield no records.
func (c *Collector) Collect(ctx context.Context, baseDir, relPrefix string) ([]PathInfo, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}

	sidecar := loadSidecar(absBase)

	if norm := strings.TrimLeft(strings.TrimSpace(relPrefix), "/"); norm != "" && norm != "." {
		target, err := SafeJoin(absBase, norm)
		if err != nil {
			// Outside the repository: nothing here.
			return nil, nil
		}
		info, err := os.Stat(target)
		if err != nil {
			return nil, nil
		}
		if info.IsDir() {
			return c.walk(ctx, absBase, target, filepath.ToSlash(norm), sidecar)
		}
		rec, err := c.fileRecord(ctx, target, filepath.ToSlash(norm), sidecar)
		if err != nil {
			return nil, err
		}
		return []PathInfo{rec}, nil
	}

	return c.walk(ctx, absBase, absBase, "", sidecar)
}

func (c *Collector) walk(ctx context.Context, baseDir, rootAbs, rootRel string, sidecar map[string]SidecarEntry) ([]PathInfo, error) {
	var out []PathInfo
	if rootRel != "" {
		out = append(out, DirectoryInfo(rootRel))
	}

	err := filepath.WalkDir(rootAbs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(baseDir, p)
		if err != nil {
			return err
		}
		rec, err := c.fileRecord(ctx, p, filepath.ToSlash(rel), sidecar)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// fileRecord builds the record for one file. A sidecar digest is only
// trusted when its recorded size matches the on-disk size; anything
// else falls back to computing through the hash cache. The reported
// sizes are always the actual on-disk ones.
func (c *Collector) fileRecord(ctx context.Context, absPath, relPath string, sidecar map[string]SidecarEntry) (PathInfo, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return PathInfo{}, err
	}
	size := info.Size()
	rec := PathInfo{Path: relPath, Type: "file", Size: &size}

	if sc, ok := sidecar[relPath]; ok && sc.Size == size {
		metrics.RecordSidecarDigest(true)
		rec.OID = sc.OID
		if sc.LFS != nil && sc.LFS.OID != "" {
			rec.LFS = &LFSInfo{OID: sc.LFS.OID, Size: size}
		}
		return rec, nil
	}

	metrics.RecordSidecarDigest(false)
	d, err := c.hasher.Sum(ctx, absPath)
	if err != nil {
		return PathInfo{}, err
	}
	rec.OID = d.SHA1
	rec.LFS = &LFSInfo{OID: "sha256:" + d.SHA256, Size: size}
	return rec, nil
}

// loadSidecar reads the optional index file at the repository root.
// The sidecar is best-effort: any read or parse failure means no
// precomputed digests, never an error.
func loadSidecar(baseDir string) map[string]SidecarEntry {
	raw, err := os.ReadFile(filepath.Join(baseDir, SidecarName))
	if err != nil {
		return nil
	}

	var sc Sidecar
	if err := json.Unmarshal(raw, &sc); err != nil {
		logging.Debug("ignoring unparseable sidecar", zap.String("dir", baseDir), zap.Error(err))
		return nil
	}

	m := make(map[string]SidecarEntry, len(sc.Entries))
	for _, e := range sc.Entries {
		if e.Type == "file" && e.Path != "" {
			m[e.Path] = e
		}
	}
	return m
}
