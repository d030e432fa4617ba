package api

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakehub/fakehub/internal/config"
	"github.com/fakehub/fakehub/internal/hashcache"
)

// rangedContent is a 100-byte file whose byte at offset i is i, so
// range responses can be checked byte for byte.
func rangedContent() []byte {
	b := make([]byte, 100)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func newTestHandler(t *testing.T, probeDigests bool) (http.Handler, string) {
	t.Helper()
	root := t.TempDir()

	write := func(rel string, content []byte) {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, content, 0o644))
	}
	write("gpt2/config.json", rangedContent())
	write("gpt2/model.bin", []byte("weights"))
	write("org/model/tokenizer.json", []byte("{}"))
	write("datasets/org/ds/data/train.csv", []byte("a,b\n1,2\n"))

	cfg := &config.Config{
		HubRoot:      root,
		ProbeDigests: probeDigests,
		LogRequests:  false,
	}
	srv := NewServer(cfg, hashcache.New(hashcache.NewMemoryStore()))
	return srv.Handler(), root
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestModelInfo(t *testing.T) {
	h, _ := newTestHandler(t, false)

	w := do(t, h, http.MethodGet, "/api/models/gpt2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var info map[string]any
	decodeBody(t, w, &info)
	assert.Equal(t, "gpt2", info["id"])
	assert.Equal(t, "gpt2", info["modelId"])
	assert.Equal(t, "local/gpt2", info["_id"])
	assert.Equal(t, "fakesha1234567890", info["sha"])
	assert.Equal(t, float64(107), info["usedStorage"])

	siblings, ok := info["siblings"].([]any)
	require.True(t, ok)
	var names []string
	for _, s := range siblings {
		names = append(names, s.(map[string]any)["rfilename"].(string))
	}
	assert.Equal(t, []string{"config.json", "model.bin"}, names)
}

func TestModelInfoAtRevision(t *testing.T) {
	h, _ := newTestHandler(t, false)

	w := do(t, h, http.MethodGet, "/api/models/org/model/revision/v1.2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info map[string]any
	decodeBody(t, w, &info)
	assert.Equal(t, "org/model", info["id"])
	assert.Equal(t, "fakesha-v1.2", info["sha"])
}

func TestModelInfoNotFound(t *testing.T) {
	h, _ := newTestHandler(t, false)

	w := do(t, h, http.MethodGet, "/api/models/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "Repository not found", body["detail"])
}

func TestDatasetInfo(t *testing.T) {
	h, _ := newTestHandler(t, false)

	w := do(t, h, http.MethodGet, "/api/datasets/org/ds", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info map[string]any
	decodeBody(t, w, &info)
	assert.Equal(t, "org/ds", info["id"])
	assert.Equal(t, "local/datasets/org/ds", info["_id"])

	siblings := info["siblings"].([]any)
	require.Len(t, siblings, 1)
	assert.Equal(t, "data/train.csv", siblings[0].(map[string]any)["rfilename"])
}

func TestDatasetInfoNotFound(t *testing.T) {
	h, _ := newTestHandler(t, false)

	w := do(t, h, http.MethodGet, "/api/datasets/org/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "Dataset not found", body["detail"])
}

func TestResolveHead(t *testing.T) {
	h, _ := newTestHandler(t, false)

	w := do(t, h, http.MethodHead, "/gpt2/resolve/main/config.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", w.Header().Get("Content-Length"))
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
	assert.Equal(t, "main", w.Header().Get("x-repo-commit"))
	assert.Equal(t, "main", w.Header().Get("x-revision"))
	assert.Empty(t, w.Header().Get("x-lfs-size"))
	assert.Empty(t, w.Header().Get("ETag"))
	assert.Empty(t, w.Body.Bytes())
}

func TestResolveHeadLFSHint(t *testing.T) {
	h, _ := newTestHandler(t, false)

	w := do(t, h, http.MethodHead, "/gpt2/resolve/main/model.bin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", w.Header().Get("x-lfs-size"))
}

func TestResolveHeadProbeDigests(t *testing.T) {
	h, _ := newTestHandler(t, true)

	w := do(t, h, http.MethodHead, "/gpt2/resolve/main/model.bin", nil)
	require.Equal(t, http.StatusOK, w.Code)

	sum := sha1.Sum([]byte("weights"))
	assert.Equal(t, `"`+hex.EncodeToString(sum[:])+`"`, w.Header().Get("ETag"))
}

func TestResolveFullDownload(t *testing.T) {
	h, _ := newTestHandler(t, false)

	w := do(t, h, http.MethodGet, "/gpt2/resolve/main/config.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, rangedContent(), w.Body.Bytes())
	assert.Equal(t, "100", w.Header().Get("Content-Length"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="config.json"`)
	assert.Equal(t, "main", w.Header().Get("x-revision"))
}

func TestResolveRangeRequests(t *testing.T) {
	h, _ := newTestHandler(t, false)
	content := rangedContent()

	tests := []struct {
		name         string
		header       string
		wantStart    int
		wantEnd      int
		contentRange string
	}{
		{"explicit window", "bytes=10-19", 10, 19, "bytes 10-19/100"},
		{"open ended", "bytes=90-", 90, 99, "bytes 90-99/100"},
		{"suffix", "bytes=-5", 95, 99, "bytes 95-99/100"},
		{"clamped end", "bytes=50-500", 50, 99, "bytes 50-99/100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/gpt2/resolve/main/config.json", nil)
			r.Header.Set("Range", tt.header)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			require.Equal(t, http.StatusPartialContent, w.Code)
			assert.Equal(t, tt.contentRange, w.Header().Get("Content-Range"))
			assert.Equal(t, fmt.Sprint(tt.wantEnd-tt.wantStart+1), w.Header().Get("Content-Length"))
			assert.Equal(t, content[tt.wantStart:tt.wantEnd+1], w.Body.Bytes())
		})
	}
}

func TestResolveRangeUnsatisfiable(t *testing.T) {
	h, _ := newTestHandler(t, false)

	r := httptest.NewRequest(http.MethodGet, "/gpt2/resolve/main/config.json", nil)
	r.Header.Set("Range", "bytes=100-")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusRequestedRangeNotSatisfiable, w.Code)
	assert.Equal(t, "bytes */100", w.Header().Get("Content-Range"))
	assert.Empty(t, w.Body.Bytes())
}

func TestResolveMalformedRangeServesFullFile(t *testing.T) {
	h, _ := newTestHandler(t, false)

	for _, header := range []string{"bytes=-0", "items=0-10", "bytes=abc"} {
		t.Run(header, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/gpt2/resolve/main/config.json", nil)
			r.Header.Set("Range", header)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, rangedContent(), w.Body.Bytes())
		})
	}
}

func TestResolveDatasetFile(t *testing.T) {
	h, _ := newTestHandler(t, false)

	w := do(t, h, http.MethodGet, "/datasets/org/ds/resolve/main/data/train.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a,b\n1,2\n", w.Body.String())
}

func TestResolveRepoIDBindsGreedily(t *testing.T) {
	h, root := newTestHandler(t, false)

	write := func(rel string, content []byte) {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, content, 0o644))
	}
	write("ns/resolve/notes.txt", []byte("release notes"))
	write("gpt2/nested/resolve/file.txt", []byte("nested"))

	// A repo ID whose last segment is "resolve" still serves its files.
	w := do(t, h, http.MethodGet, "/ns/resolve/resolve/main/notes.txt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "release notes", w.Body.String())

	// The last "/resolve/" is the separator, so a "resolve" segment in
	// the filename binds into the repo ID instead of the filename.
	w = do(t, h, http.MethodGet, "/gpt2/resolve/main/nested/resolve/file.txt", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveTraversalRejected(t *testing.T) {
	h, _ := newTestHandler(t, false)

	w := do(t, h, http.MethodGet, "/gpt2/resolve/main/..%2f..%2forg%2fmodel%2ftokenizer.json", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "File not found", body["detail"])
}

func TestResolveFileNotFound(t *testing.T) {
	h, _ := newTestHandler(t, false)

	w := do(t, h, http.MethodGet, "/gpt2/resolve/main/missing.json", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "File not found", body["detail"])
}

func pathsInfoResponse(t *testing.T, h http.Handler, target string, body string) []map[string]any {
	t.Helper()
	var payload []byte
	if body != "" {
		payload = []byte(body)
	}
	w := do(t, h, http.MethodPost, target, payload)
	require.Equal(t, http.StatusOK, w.Code)

	var out []map[string]any
	decodeBody(t, w, &out)
	return out
}

func TestPathsInfoAllFiles(t *testing.T) {
	h, _ := newTestHandler(t, false)

	out := pathsInfoResponse(t, h, "/api/models/gpt2/paths-info/main", "")
	require.Len(t, out, 2)

	// Sorted by path.
	assert.Equal(t, "config.json", out[0]["path"])
	assert.Equal(t, "model.bin", out[1]["path"])
	for _, rec := range out {
		assert.Equal(t, "file", rec["type"])
		assert.NotEmpty(t, rec["oid"])
		lfs := rec["lfs"].(map[string]any)
		assert.True(t, strings.HasPrefix(lfs["oid"].(string), "sha256:"))
	}
}

func TestPathsInfoSelectedPaths(t *testing.T) {
	h, _ := newTestHandler(t, false)

	out := pathsInfoResponse(t, h, "/api/models/gpt2/paths-info/main",
		`{"paths": ["config.json", "config.json", "missing.txt"]}`)

	// Duplicates collapse, missing paths vanish.
	require.Len(t, out, 1)
	assert.Equal(t, "config.json", out[0]["path"])
	assert.Equal(t, float64(100), out[0]["size"])
}

func TestPathsInfoDirectoryNoExpand(t *testing.T) {
	h, _ := newTestHandler(t, false)

	out := pathsInfoResponse(t, h, "/api/datasets/org/ds/paths-info/main",
		`{"paths": ["data"], "expand": false}`)

	require.Len(t, out, 1)
	assert.Equal(t, "data", out[0]["path"])
	assert.Equal(t, "directory", out[0]["type"])
	_, hasSize := out[0]["size"]
	assert.False(t, hasSize)
}

func TestPathsInfoDirectoryNoExpandSkipsDigests(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "gpt2", "data")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.bin"), []byte("payload"), 0o644))

	store := hashcache.NewMemoryStore()
	srv := NewServer(&config.Config{HubRoot: root}, hashcache.New(store))

	out := pathsInfoResponse(t, srv.Handler(), "/api/models/gpt2/paths-info/main",
		`{"paths": ["data"], "expand": false}`)

	require.Len(t, out, 1)
	assert.Equal(t, "data", out[0]["path"])
	assert.Equal(t, "directory", out[0]["type"])
	// The bare directory record is produced from a stat alone.
	assert.Zero(t, store.Len())
}

func TestPathsInfoDirectoryExpand(t *testing.T) {
	h, _ := newTestHandler(t, false)

	out := pathsInfoResponse(t, h, "/api/datasets/org/ds/paths-info/main",
		`{"paths": ["data"]}`)

	require.Len(t, out, 2)
	assert.Equal(t, "data", out[0]["path"])
	assert.Equal(t, "directory", out[0]["type"])
	assert.Equal(t, "data/train.csv", out[1]["path"])
	assert.Equal(t, "file", out[1]["type"])
}

func TestPathsInfoRootAliases(t *testing.T) {
	h, _ := newTestHandler(t, false)

	for _, alias := range []string{"", "/", "."} {
		out := pathsInfoResponse(t, h, "/api/models/gpt2/paths-info/main",
			fmt.Sprintf(`{"paths": [%q]}`, alias))
		assert.Len(t, out, 2, "alias %q", alias)
	}
}

func TestPathsInfoEscapingPathIgnored(t *testing.T) {
	h, _ := newTestHandler(t, false)

	out := pathsInfoResponse(t, h, "/api/models/gpt2/paths-info/main",
		`{"paths": ["../org/model/tokenizer.json"]}`)
	assert.Empty(t, out)
}

func TestPathsInfoRepoNotFound(t *testing.T) {
	h, _ := newTestHandler(t, false)

	w := do(t, h, http.MethodPost, "/api/models/nope/paths-info/main", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "Repository not found", body["detail"])
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t, false)

	w := do(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	decodeBody(t, w, &body)
	assert.Equal(t, "ok", body["status"])
}
