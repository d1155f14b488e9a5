package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "manifest"))
	require.NoError(t, err)
	return j
}

func TestOpenEmptyDirFails(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestLogScan(t *testing.T) {
	j := openTestJournal(t)

	result := &types.ScanResult{
		Root: "/home/user",
		Stats: types.Stats{
			TotalFiles: 10,
			TotalBytes: 1000,
		},
		Groups:   []types.DuplicateGroup{{Size: 100, Paths: []string{"a", "b"}}},
		Warnings: []types.ScanWarning{{Path: "/x", Stage: "stat", Message: "denied"}},
	}

	entry, err := j.LogScan(result)
	require.NoError(t, err)

	assert.Equal(t, KindScan, entry.Kind)
	assert.True(t, strings.HasPrefix(entry.ID, "scan-"))
	assert.Equal(t, "/home/user", entry.Root)
	assert.Equal(t, int64(10), entry.Stats.TotalFiles)
	assert.Equal(t, 1, entry.Groups)
	assert.Equal(t, 1, entry.Warnings)
	assert.False(t, entry.Cancelled)
}

func TestLogCleanSumsBytesFreed(t *testing.T) {
	j := openTestJournal(t)

	outcomes := []types.CleanupOutcome{
		{Path: "/a", Status: types.CleanDeleted, BytesFreed: 100},
		{Path: "/b", Status: types.CleanDeleted, BytesFreed: 250},
		{Path: "/c", Status: types.CleanSkipped, Reason: "already-gone"},
	}

	entry, err := j.LogClean(outcomes)
	require.NoError(t, err)

	assert.Equal(t, KindClean, entry.Kind)
	assert.True(t, strings.HasPrefix(entry.ID, "clean-"))
	assert.Equal(t, int64(350), entry.BytesFreed)
	assert.Len(t, entry.Outcomes, 3)
}

func TestListNewestFirst(t *testing.T) {
	j := openTestJournal(t)

	first, err := j.LogScan(&types.ScanResult{Root: "/first"})
	require.NoError(t, err)
	second, err := j.LogClean(nil)
	require.NoError(t, err)

	// Timestamps come from time.Now; force a visible ordering.
	requireDistinctTimestamps(t, j, first.ID, second.ID)

	entries, err := j.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)
}

// requireDistinctTimestamps rewrites the stored timestamps so ordering
// assertions do not depend on sub-second clock resolution.
func requireDistinctTimestamps(t *testing.T, j *Journal, olderID, newerID string) {
	t.Helper()
	base := time.Now().UTC()
	for id, ts := range map[string]time.Time{
		olderID: base.Add(-time.Hour),
		newerID: base,
	} {
		entry, err := j.Get(id)
		require.NoError(t, err)
		entry.Timestamp = ts
		require.NoError(t, j.write(entry))
	}
}

func TestListLimit(t *testing.T) {
	j := openTestJournal(t)

	for i := 0; i < 5; i++ {
		_, err := j.LogScan(&types.ScanResult{Root: "/r"})
		require.NoError(t, err)
	}

	entries, err := j.List(3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	all, err := j.List(0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestGet(t *testing.T) {
	j := openTestJournal(t)

	entry, err := j.LogScan(&types.ScanResult{Root: "/somewhere"})
	require.NoError(t, err)

	got, err := j.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, "/somewhere", got.Root)

	_, err = j.Get("no-such-entry")
	assert.Error(t, err)

	_, err = j.Get("")
	assert.Error(t, err)
}

func TestListIgnoresUnparseableFiles(t *testing.T) {
	j := openTestJournal(t)

	_, err := j.LogScan(&types.ScanResult{Root: "/ok"})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(j.dir, "garbage.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(j.dir, "notes.txt"), []byte("ignored"), 0o644))

	entries, err := j.List(0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPrune(t *testing.T) {
	j := openTestJournal(t)

	old, err := j.LogScan(&types.ScanResult{Root: "/old"})
	require.NoError(t, err)
	fresh, err := j.LogScan(&types.ScanResult{Root: "/fresh"})
	require.NoError(t, err)

	oldPath := filepath.Join(j.dir, old.ID+".json")
	stale := time.Now().AddDate(0, 0, -40)
	require.NoError(t, os.Chtimes(oldPath, stale, stale))

	require.NoError(t, j.Prune(30))

	entries, err := j.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fresh.ID, entries[0].ID)
}
