package skeleton

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fakehub/fakehub/internal/hashcache"
	"github.com/fakehub/fakehub/internal/hub"
)

// WriteSidecar records the generated files in a sidecar index at the
// skeleton root, with sizes and digests computed from what is actually
// on disk. It returns the sidecar path, or "" when there was nothing
// to record. On dry run the path is returned without writing.
func WriteSidecar(ctx context.Context, root string, created []string, dryRun bool) (string, error) {
	hasher := hashcache.New(hashcache.NewMemoryStore())

	var entries []hub.SidecarEntry
	for _, absPath := range created {
		info, err := os.Stat(absPath)
		if err != nil || info.IsDir() {
			continue
		}
		rel, err := filepath.Rel(root, absPath)
		if err != nil {
			continue
		}
		d, err := hasher.Sum(ctx, absPath)
		if err != nil {
			return "", err
		}
		entries = append(entries, hub.SidecarEntry{
			Path: filepath.ToSlash(rel),
			Type: "file",
			Size: info.Size(),
			OID:  d.SHA1,
			ETag: d.SHA1,
			LFS:  &hub.SidecarLFS{OID: "sha256:" + d.SHA256, Size: info.Size()},
		})
	}
	if len(entries) == 0 {
		return "", nil
	}

	sidecarPath := filepath.Join(root, hub.SidecarName)
	if dryRun {
		return sidecarPath, nil
	}

	raw, err := json.MarshalIndent(hub.Sidecar{Version: 1, Entries: entries}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", err
	}
	return sidecarPath, os.WriteFile(sidecarPath, raw, 0o644)
}
