// Package api provides the HTTP server and handlers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fakehub/fakehub/internal/config"
	"github.com/fakehub/fakehub/internal/hashcache"
	"github.com/fakehub/fakehub/internal/hub"
	"github.com/fakehub/fakehub/internal/logging"
	"github.com/fakehub/fakehub/internal/metrics"
)

// Server is the HTTP server.
type Server struct {
	config    *config.Config
	hubRoot   string
	hasher    *hashcache.Hasher
	collector *hub.Collector
}

// NewServer creates a new server rooted at cfg's hub directory.
func NewServer(cfg *config.Config, hasher *hashcache.Hasher) *Server {
	return &Server{
		config:    cfg,
		hubRoot:   cfg.AbsHubRoot(),
		hasher:    hasher,
		collector: hub.NewCollector(hasher),
	}
}

// Handler returns the HTTP handler with logging and metrics middleware.
//
// Repository IDs under /api span one or two path segments
// (namespace/name), so those routes are registered once per segment
// count. Wildcard segments cannot be nested ambiguously, which rules
// out a generic /{repoID}/resolve pattern; downloads go through a
// root catch-all instead.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Model metadata
	mux.HandleFunc("GET /api/models/{name}/revision/{revision}", s.handleModelInfo)
	mux.HandleFunc("GET /api/models/{org}/{name}/revision/{revision}", s.handleModelInfo)
	mux.HandleFunc("GET /api/models/{name}", s.handleModelInfo)
	mux.HandleFunc("GET /api/models/{org}/{name}", s.handleModelInfo)

	// Dataset metadata
	mux.HandleFunc("GET /api/datasets/{name}/revision/{revision}", s.handleDatasetInfo)
	mux.HandleFunc("GET /api/datasets/{org}/{name}/revision/{revision}", s.handleDatasetInfo)
	mux.HandleFunc("GET /api/datasets/{name}", s.handleDatasetInfo)
	mux.HandleFunc("GET /api/datasets/{org}/{name}", s.handleDatasetInfo)

	// Paths-info listings
	mux.HandleFunc("POST /api/models/{name}/paths-info/{revision}", s.handleModelPathsInfo)
	mux.HandleFunc("POST /api/models/{org}/{name}/paths-info/{revision}", s.handleModelPathsInfo)
	mux.HandleFunc("POST /api/datasets/{name}/paths-info/{revision}", s.handleDatasetPathsInfo)
	mux.HandleFunc("POST /api/datasets/{org}/{name}/paths-info/{revision}", s.handleDatasetPathsInfo)

	// File downloads: /{repoID}/resolve/{revision}/{filename} with a
	// repo ID of any segment depth (datasets carry a "datasets/"
	// prefix), so the route is a root catch-all parsed by the handler.
	// The literal /api and /health patterns take precedence, and GET
	// patterns also match HEAD.
	mux.HandleFunc("GET /", s.handleResolve)

	var handler http.Handler = mux
	handler = metrics.Middleware(handler)
	return logging.Middleware(handler)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// repoID joins the path segments naming the repository, in route order.
func repoID(r *http.Request) string {
	parts := make([]string, 0, 3)
	for _, key := range []string{"prefix", "org", "name"} {
		if v := r.PathValue(key); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "/")
}

func (s *Server) sendJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("encode response: " + err.Error())
	}
}

// sendError writes the error body shape hub clients expect.
func (s *Server) sendError(w http.ResponseWriter, code int, detail string) {
	s.sendJSON(w, code, map[string]string{"detail": detail})
}
