package hub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeJoin(t *testing.T) {
	root := t.TempDir()

	t.Run("plain relative path", func(t *testing.T) {
		p, err := SafeJoin(root, "config.json")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "config.json"), p)
	})

	t.Run("nested path", func(t *testing.T) {
		p, err := SafeJoin(root, "data/train/part-0.csv")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "data", "train", "part-0.csv"), p)
	})

	t.Run("leading slash and whitespace stripped", func(t *testing.T) {
		p, err := SafeJoin(root, "  /config.json")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "config.json"), p)
	})

	t.Run("root itself", func(t *testing.T) {
		p, err := SafeJoin(root, "")
		require.NoError(t, err)
		assert.Equal(t, root, p)
	})

	t.Run("traversal rejected", func(t *testing.T) {
		_, err := SafeJoin(root, "../outside.txt")
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("nested traversal rejected", func(t *testing.T) {
		_, err := SafeJoin(root, "a/../../../../etc/passwd")
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("internal dotdot that stays inside is fine", func(t *testing.T) {
		p, err := SafeJoin(root, "a/../b.txt")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "b.txt"), p)
	})
}

func TestRepoRoot(t *testing.T) {
	hubRoot := t.TempDir()

	modelRoot, err := RepoRoot(hubRoot, KindModel, "org/name")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(hubRoot, "org", "name"), modelRoot)

	dsRoot, err := RepoRoot(hubRoot, KindDataset, "org/name")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(hubRoot, "datasets", "org", "name"), dsRoot)

	_, err = RepoRoot(hubRoot, KindModel, "../escape")
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "weights.bin"), []byte("abc"), 0o644))

	t.Run("existing file", func(t *testing.T) {
		p, info, err := Resolve(root, "weights.bin")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "weights.bin"), p)
		assert.Equal(t, int64(3), info.Size())
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := Resolve(root, "nope.bin")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("escaping path", func(t *testing.T) {
		_, _, err := Resolve(root, "../weights.bin")
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})
}
