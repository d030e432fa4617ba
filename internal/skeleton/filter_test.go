package skeleton

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func items(paths ...string) []TreeItem {
	out := make([]TreeItem, len(paths))
	for i, p := range paths {
		out[i] = TreeItem{Path: p}
	}
	return out
}

func filteredPaths(in []TreeItem) []string {
	out := make([]string, len(in))
	for i, it := range in {
		out[i] = it.Path
	}
	return out
}

func TestApplyFiltersInclude(t *testing.T) {
	in := items("config.json", "model.bin", "weights/part-0.bin", "README.md")

	got := ApplyFilters(in, []string{"*.bin"}, nil, -1)
	assert.Equal(t, []string{"model.bin", "weights/part-0.bin"}, filteredPaths(got))
}

func TestApplyFiltersExclude(t *testing.T) {
	in := items("config.json", "model.bin", "weights/part-0.bin")

	got := ApplyFilters(in, nil, []string{"*.bin"}, -1)
	assert.Equal(t, []string{"config.json"}, filteredPaths(got))
}

func TestApplyFiltersIncludeAndExclude(t *testing.T) {
	in := items("data/train.csv", "data/test.csv", "data/extra.csv")

	got := ApplyFilters(in, []string{"data/*"}, []string{"*extra*"}, -1)
	assert.Equal(t, []string{"data/train.csv", "data/test.csv"}, filteredPaths(got))
}

func TestApplyFiltersPathScopedPattern(t *testing.T) {
	in := items("data/train.csv", "other/train.csv")

	got := ApplyFilters(in, []string{"data/*.csv"}, nil, -1)
	assert.Equal(t, []string{"data/train.csv"}, filteredPaths(got))
}

func TestApplyFiltersMaxFiles(t *testing.T) {
	in := items("a", "b", "c", "d")

	assert.Len(t, ApplyFilters(in, nil, nil, 2), 2)
	assert.Len(t, ApplyFilters(in, nil, nil, 0), 0)
	assert.Len(t, ApplyFilters(in, nil, nil, -1), 4)
	assert.Len(t, ApplyFilters(in, nil, nil, 100), 4)
}
