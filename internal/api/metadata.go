package api

import (
	"io/fs"
	"net/http"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/fakehub/fakehub/internal/hub"
	"github.com/fakehub/fakehub/internal/logging"
)

// Sibling is one file reference in a repository listing.
type Sibling struct {
	Rfilename string `json:"rfilename"`
}

// ModelInfo mirrors the hub model info payload shape.
type ModelInfo struct {
	XID              string              `json:"_id"`
	ID               string              `json:"id"`
	Private          bool                `json:"private"`
	PipelineTag      string              `json:"pipeline_tag"`
	LibraryName      string              `json:"library_name"`
	Tags             []string            `json:"tags"`
	Downloads        int                 `json:"downloads"`
	Likes            int                 `json:"likes"`
	ModelID          string              `json:"modelId"`
	Author           string              `json:"author"`
	SHA              string              `json:"sha"`
	LastModified     string              `json:"lastModified"`
	CreatedAt        string              `json:"createdAt"`
	Gated            bool                `json:"gated"`
	Disabled         bool                `json:"disabled"`
	WidgetData       []map[string]string `json:"widgetData"`
	ModelIndex       any                 `json:"model-index"`
	Config           map[string]any      `json:"config"`
	CardData         map[string]any      `json:"cardData"`
	TransformersInfo map[string]any      `json:"transformersInfo"`
	Safetensors      map[string]any      `json:"safetensors"`
	Siblings         []Sibling           `json:"siblings"`
	Spaces           []string            `json:"spaces"`
	UsedStorage      int64               `json:"usedStorage"`
}

// DatasetInfo mirrors the hub dataset info payload shape.
type DatasetInfo struct {
	XID          string         `json:"_id"`
	ID           string         `json:"id"`
	Private      bool           `json:"private"`
	Tags         []string       `json:"tags"`
	Downloads    int            `json:"downloads"`
	Likes        int            `json:"likes"`
	Author       string         `json:"author"`
	SHA          string         `json:"sha"`
	LastModified string         `json:"lastModified"`
	CreatedAt    string         `json:"createdAt"`
	Gated        bool           `json:"gated"`
	Disabled     bool           `json:"disabled"`
	CardData     map[string]any `json:"cardData"`
	Siblings     []Sibling      `json:"siblings"`
	UsedStorage  int64          `json:"usedStorage"`
}

const epoch = "1970-01-01T00:00:00.000Z"

// fakeSHA returns the synthetic commit hash reported for a revision.
func fakeSHA(revision string) string {
	if revision != "" {
		return "fakesha-" + revision
	}
	return "fakesha1234567890"
}

// scanRepo walks a repository directory collecting its file listing
// and total on-disk size.
func scanRepo(root string) ([]Sibling, int64, error) {
	siblings := []Sibling{}
	var total int64
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		siblings = append(siblings, Sibling{Rfilename: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(siblings, func(i, j int) bool { return siblings[i].Rfilename < siblings[j].Rfilename })
	return siblings, total, nil
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	id := repoID(r)
	revision := r.PathValue("revision")

	root, err := hub.RepoRoot(s.hubRoot, hub.KindModel, id)
	if err != nil || !hub.IsDir(root) {
		s.sendError(w, http.StatusNotFound, "Repository not found")
		return
	}

	siblings, total, err := scanRepo(root)
	if err != nil {
		logging.Error("scan repository", zap.String("repo", id), zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "failed to list repository")
		return
	}

	s.sendJSON(w, http.StatusOK, ModelInfo{
		XID:          "local/" + id,
		ID:           id,
		PipelineTag:  "text-generation",
		LibraryName:  "transformers",
		Tags:         []string{"transformers", "gpt2", "text-generation"},
		ModelID:      id,
		Author:       "local-user",
		SHA:          fakeSHA(revision),
		LastModified: epoch,
		CreatedAt:    epoch,
		WidgetData:   []map[string]string{{"text": "Hello"}},
		Config: map[string]any{
			"architectures":    []string{"GPT2LMHeadModel"},
			"model_type":       "gpt2",
			"tokenizer_config": map[string]any{},
		},
		CardData: map[string]any{"language": "en", "tags": []string{"example"}, "license": "mit"},
		TransformersInfo: map[string]any{
			"auto_model":   "AutoModelForCausalLM",
			"pipeline_tag": "text-generation",
			"processor":    "AutoTokenizer",
		},
		Safetensors: map[string]any{"parameters": map[string]int{"F32": 0}, "total": 0},
		Siblings:    siblings,
		Spaces:      []string{},
		UsedStorage: total,
	})
}

func (s *Server) handleDatasetInfo(w http.ResponseWriter, r *http.Request) {
	id := repoID(r)
	revision := r.PathValue("revision")

	root, err := hub.RepoRoot(s.hubRoot, hub.KindDataset, id)
	if err != nil || !hub.IsDir(root) {
		s.sendError(w, http.StatusNotFound, "Dataset not found")
		return
	}

	siblings, total, err := scanRepo(root)
	if err != nil {
		logging.Error("scan dataset", zap.String("repo", id), zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "failed to list dataset")
		return
	}

	s.sendJSON(w, http.StatusOK, DatasetInfo{
		XID:          "local/datasets/" + id,
		ID:           id,
		Tags:         []string{"dataset"},
		Author:       "local-user",
		SHA:          fakeSHA(revision),
		LastModified: epoch,
		CreatedAt:    epoch,
		CardData:     map[string]any{"license": "mit", "language": []string{"en"}},
		Siblings:     siblings,
		UsedStorage:  total,
	})
}
