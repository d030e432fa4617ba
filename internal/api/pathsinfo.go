package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fakehub/fakehub/internal/hub"
	"github.com/fakehub/fakehub/internal/logging"
)

// pathsInfoRequest is the optional request body of a paths-info call.
// Unknown fields and malformed bodies are tolerated.
type pathsInfoRequest struct {
	Paths  []string `json:"paths"`
	Expand *bool    `json:"expand"`
}

func (s *Server) handleModelPathsInfo(w http.ResponseWriter, r *http.Request) {
	s.handlePathsInfo(w, r, hub.KindModel, "Repository not found")
}

func (s *Server) handleDatasetPathsInfo(w http.ResponseWriter, r *http.Request) {
	s.handlePathsInfo(w, r, hub.KindDataset, "Dataset not found")
}

func (s *Server) handlePathsInfo(w http.ResponseWriter, r *http.Request, kind hub.RepoKind, notFound string) {
	id := repoID(r)

	root, err := hub.RepoRoot(s.hubRoot, kind, id)
	if err != nil || !hub.IsDir(root) {
		s.sendError(w, http.StatusNotFound, notFound)
		return
	}

	var req pathsInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = pathsInfoRequest{}
	}
	expand := true
	if req.Expand != nil {
		expand = *req.Expand
	}

	ctx := r.Context()
	var results []hub.PathInfo

	collect := func(prefix string) bool {
		infos, err := s.collector.Collect(ctx, root, prefix)
		if err != nil {
			logging.Error("collect paths info", zap.String("repo", id), zap.Error(err))
			s.sendError(w, http.StatusInternalServerError, "failed to collect paths info")
			return false
		}
		results = append(results, infos...)
		return true
	}

	if len(req.Paths) == 0 {
		if !collect("") {
			return
		}
	} else {
		for _, p := range req.Paths {
			if isRootPath(p) {
				if expand {
					if !collect("") {
						return
					}
				} else {
					results = append(results, hub.PathInfo{Path: "", Type: "directory"})
				}
				continue
			}
			if expand {
				if !collect(p) {
					return
				}
				continue
			}
			// Without expansion a directory yields its own bare record
			// with no subtree walk; only a file target needs digests.
			_, info, err := hub.Resolve(root, p)
			if err != nil {
				continue
			}
			if info.IsDir() {
				results = append(results, hub.DirectoryInfo(strings.TrimLeft(strings.TrimSpace(p), "/")))
				continue
			}
			if !collect(p) {
				return
			}
		}
	}

	results = dedupePathInfo(results)
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Path != results[j].Path {
			return results[i].Path < results[j].Path
		}
		return results[i].Type < results[j].Type
	})

	s.sendJSON(w, http.StatusOK, results)
}

func isRootPath(p string) bool {
	switch strings.TrimSpace(p) {
	case "", "/", ".":
		return true
	}
	return false
}

func dedupePathInfo(in []hub.PathInfo) []hub.PathInfo {
	type key struct{ path, typ string }
	seen := make(map[key]struct{}, len(in))
	out := in[:0]
	for _, it := range in {
		k := key{it.Path, it.Type}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	if out == nil {
		out = []hub.PathInfo{}
	}
	return out
}
