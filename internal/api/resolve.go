package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fakehub/fakehub/internal/hub"
	"github.com/fakehub/fakehub/internal/logging"
	"github.com/fakehub/fakehub/internal/metrics"
)

// streamChunkSize bounds per-request buffer usage when serving file
// content, independent of file or range size.
const streamChunkSize = 8 * 1024

// splitResolvePath breaks "/{repoID}/resolve/{revision}/{filename}"
// into its parts. The repo ID may span any number of segments and
// binds greedily, so the last "/resolve/" occurrence is the separator.
func splitResolvePath(p string) (repoID, revision, filename string, ok bool) {
	idx := strings.LastIndex(p, "/resolve/")
	if idx <= 1 {
		return "", "", "", false
	}
	repoID = p[1:idx]
	rest := p[idx+len("/resolve/"):]
	revision, filename, found := strings.Cut(rest, "/")
	if !found || revision == "" || filename == "" {
		return "", "", "", false
	}
	return repoID, revision, filename, true
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	id, revision, filename, ok := splitResolvePath(r.URL.Path)
	if !ok {
		s.sendError(w, http.StatusNotFound, "Not Found")
		return
	}

	absPath, info, err := hub.Resolve(s.hubRoot, path.Join(id, filename))
	if err != nil || info.IsDir() {
		s.sendError(w, http.StatusNotFound, "File not found")
		return
	}
	size := info.Size()

	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Accept-Ranges", "bytes")
	h.Set("x-repo-commit", revision)
	h.Set("x-revision", revision)
	if strings.HasSuffix(filename, ".bin") {
		h.Set("x-lfs-size", strconv.FormatInt(size, 10))
	}

	if r.Method == http.MethodHead {
		if s.config.ProbeDigests {
			d, err := s.hasher.Sum(r.Context(), absPath)
			if err != nil {
				logging.Error("compute digest", zap.String("path", absPath), zap.Error(err))
				s.sendError(w, http.StatusInternalServerError, "failed to compute digest")
				return
			}
			h.Set("ETag", `"`+d.SHA1+`"`)
		}
		h.Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		return
	}

	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
		br, result := hub.ParseRange(rangeHeader, size)
		switch result {
		case hub.RangeUnsatisfiable:
			metrics.RecordRangeRequest("unsatisfiable")
			h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		case hub.RangeValid:
			metrics.RecordRangeRequest("valid")
			h.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", br.Start, br.End, size))
			h.Set("Content-Length", strconv.FormatInt(br.Length(), 10))
			w.WriteHeader(http.StatusPartialContent)
			s.streamWindow(w, absPath, br.Start, br.Length())
			return
		default:
			// Malformed ranges are ignored and the full file served.
			metrics.RecordRangeRequest("malformed")
		}
	}

	h.Set("Content-Length", strconv.FormatInt(size, 10))
	h.Set("Content-Disposition", `attachment; filename="`+path.Base(filename)+`"`)
	w.WriteHeader(http.StatusOK)
	s.streamWindow(w, absPath, 0, size)
}

// streamWindow copies count bytes starting at offset to the client in
// fixed-size chunks. Headers are already written by the time this
// runs, so an I/O failure can only abort the connection.
func (s *Server) streamWindow(w http.ResponseWriter, absPath string, offset, count int64) {
	f, err := os.Open(absPath)
	if err != nil {
		logging.Error("open content", zap.String("path", absPath), zap.Error(err))
		metrics.RecordContentDownload(0, false)
		panic(http.ErrAbortHandler)
	}
	defer f.Close()

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			logging.Error("seek content", zap.String("path", absPath), zap.Error(err))
			metrics.RecordContentDownload(0, false)
			panic(http.ErrAbortHandler)
		}
	}

	buf := make([]byte, streamChunkSize)
	written, err := io.CopyBuffer(w, io.LimitReader(f, count), buf)
	if err != nil {
		logging.Debug("content stream interrupted",
			zap.String("path", absPath),
			zap.Int64("written", written),
			zap.Error(err))
		metrics.RecordContentDownload(written, false)
		panic(http.ErrAbortHandler)
	}
	metrics.RecordContentDownload(written, true)
}
