package cleaner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveToTrashRemovesFromOriginalPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trashed.tmp")
	require.NoError(t, os.WriteFile(path, []byte("bye"), 0o644))

	// Whether a trash facility exists or the permanent-delete fallback
	// runs, the file must be gone from its original location.
	require.NoError(t, moveToTrash(path))
	assert.NoFileExists(t, path)
}

func TestMoveToTrashMissingFile(t *testing.T) {
	err := moveToTrash(filepath.Join(t.TempDir(), "never-there"))
	assert.Error(t, err)
}

func TestRemovePermanently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.tmp")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, removePermanently(path))
	assert.NoFileExists(t, path)

	assert.Error(t, removePermanently(path))
}
