// Package skeleton replicates a remote repository's file layout as
// local placeholder files, without downloading any content.
package skeleton

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fakehub/fakehub/internal/hub"
	"github.com/fakehub/fakehub/internal/logging"
)

// TreeItem is one file entry of a remote repository tree.
type TreeItem struct {
	Path    string
	Size    int64
	OID     string
	LFSOID  string
	LFSSize int64
}

// treeEntry tolerates the field spellings different hub versions use
// for tree listings.
type treeEntry struct {
	Path      string `json:"path"`
	Rfilename string `json:"rfilename"`
	Type      string `json:"type"`
	Kind      string `json:"kind"`
	Size      int64  `json:"size"`
	OID       string `json:"oid"`
	SHA       string `json:"sha"`
	LFS       *struct {
		OID  string `json:"oid"`
		Size int64  `json:"size"`
	} `json:"lfs"`
}

// Client fetches repository trees from a hub endpoint.
type Client struct {
	Endpoint string
	Token    string
	HTTP     *http.Client
}

// NewClient creates a tree client for the given endpoint. An empty
// token disables authentication.
func NewClient(endpoint, token string) *Client {
	return &Client{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Token:    token,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

// quoteRepoID escapes each segment of a repository ID while keeping
// the separators.
func quoteRepoID(repoID string) string {
	segs := strings.Split(repoID, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// FetchTree lists the files of a remote repository at a revision via
// the tree API. It returns an error when the tree is unavailable or
// empty, so callers never build a skeleton from nothing.
func (c *Client) FetchTree(ctx context.Context, kind hub.RepoKind, repoID, revision string) ([]TreeItem, error) {
	u := fmt.Sprintf("%s/api/%ss/%s/tree/%s?recursive=1&expand=1",
		c.Endpoint, kind, quoteRepoID(repoID), url.PathEscape(revision))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tree: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%s tree unavailable for %q at %s (%s): status %d",
			kind, repoID, revision, c.Endpoint, resp.StatusCode)
	}

	items, err := decodeTree(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s tree empty for %q at %s (%s)", kind, repoID, revision, c.Endpoint)
	}
	logging.Debug("fetched repository tree",
		zap.String("repo", repoID),
		zap.String("revision", revision),
		zap.Int("files", len(items)))
	return items, nil
}

// decodeTree accepts either a bare list of entries or an object
// wrapping one under "tree", "items" or "paths". Entries that are not
// files are skipped.
func decodeTree(r io.Reader) ([]TreeItem, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	var entries []treeEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, err
		}
		for _, key := range []string{"tree", "items", "paths"} {
			inner, ok := wrapper[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(inner, &entries); err == nil {
				break
			}
		}
	}

	var out []TreeItem
	for _, e := range entries {
		p := e.Path
		if p == "" {
			p = e.Rfilename
		}
		t := strings.ToLower(e.Type)
		if t == "" {
			t = strings.ToLower(e.Kind)
		}
		if p == "" || (t != "file" && t != "blob") {
			continue
		}
		it := TreeItem{Path: p, Size: e.Size}
		if e.OID != "" {
			it.OID = e.OID
		} else {
			it.OID = e.SHA
		}
		if e.LFS != nil {
			it.LFSOID = e.LFS.OID
			it.LFSSize = e.LFS.Size
		}
		out = append(out, it)
	}
	return out, nil
}
