package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/declutter/pkg/declutter/config"
	"github.com/jamesainslie/declutter/pkg/declutter/scanner"
	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

// testConfig returns a config with the hash cache and manifest disabled
// so sessions stay fully contained in the test's temp directories.
func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Clean.SafeMode = true
	return cfg
}

func seedTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"a.txt":            "duplicated payload",
		"copy-of-a.txt":    "duplicated payload",
		"unique.txt":       "nothing like the others",
		"logs/app.log":     "log line one\n",
		"sub/nested/b.bin": "binary-ish",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func startAndWait(t *testing.T, root string, cfg *config.Config) *Session {
	t.Helper()
	sess, err := Start(context.Background(), Options{Root: root, Config: cfg})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, sess.Wait(ctx))
	return sess
}

func TestSessionEndToEnd(t *testing.T) {
	dir := seedTree(t)
	sess := startAndWait(t, dir, testConfig())

	result, err := sess.Results()
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.False(t, result.Cancelled)
	assert.Equal(t, int64(5), result.Stats.TotalFiles)

	require.Len(t, result.Groups, 1)
	group := result.Groups[0]
	assert.Len(t, group.Paths, 2)
	assert.Equal(t, int64(len("duplicated payload")), group.Size)

	// Duplicate stats derive from the groups.
	assert.Equal(t, int64(2), result.Stats.DuplicateFiles)
	assert.Equal(t, group.Size*2, result.Stats.DuplicateBytes)
	assert.Equal(t, group.Size, result.ReclaimableBytes())
}

func TestSessionResultsWhileRunning(t *testing.T) {
	dir := seedTree(t)
	sess, err := Start(context.Background(), Options{Root: dir, Config: testConfig()})
	require.NoError(t, err)
	defer func() { _ = sess.Close() }()

	// Either the pipeline already finished or Results must refuse.
	if _, err := sess.Results(); err != nil {
		assert.ErrorIs(t, err, ErrScanInProgress)
	}
}

func TestSessionPollReachesDone(t *testing.T) {
	dir := seedTree(t)
	sess := startAndWait(t, dir, testConfig())

	snap := sess.Poll()
	assert.Equal(t, types.PhaseDone, snap.Phase)
	assert.False(t, snap.Cancelled)
}

func TestSessionCancel(t *testing.T) {
	dir := seedTree(t)
	sess, err := Start(context.Background(), Options{Root: dir, Config: testConfig()})
	require.NoError(t, err)
	defer func() { _ = sess.Close() }()

	sess.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, sess.Wait(ctx))

	result, err := sess.Results()
	require.NoError(t, err)
	require.NotNil(t, result)
	// Cancellation may land before or after the walk finished; either
	// way the result is presentable and the flag is truthful.
	if result.Cancelled {
		assert.True(t, sess.Poll().Cancelled)
	}
}

func TestSessionInvalidRoot(t *testing.T) {
	sess, err := Start(context.Background(), Options{
		Root:   filepath.Join(t.TempDir(), "does-not-exist"),
		Config: testConfig(),
	})
	require.NoError(t, err)
	defer func() { _ = sess.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, sess.Wait(ctx))

	_, err = sess.Results()
	assert.ErrorIs(t, err, scanner.ErrRootNotFound)
}

func TestSessionInvalidMaxFileSize(t *testing.T) {
	cfg := testConfig()
	cfg.Scan.MaxFileSize = "not-a-size"

	_, err := Start(context.Background(), Options{Root: t.TempDir(), Config: cfg})
	assert.ErrorIs(t, err, types.ErrInvalidSize)
}

func TestSessionCleanDuplicates(t *testing.T) {
	dir := seedTree(t)
	sess := startAndWait(t, dir, testConfig())

	result, err := sess.Results()
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)

	// Keep the first group member, delete the rest.
	targets := result.Groups[0].Paths[1:]
	estimated := sess.EstimateBytes(targets)
	assert.Equal(t, result.Groups[0].WastedBytes(), estimated)

	outcomes, err := sess.Clean(context.Background(), targets)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, types.CleanDeleted, outcomes[0].Status)
	assert.Equal(t, estimated, outcomes[0].BytesFreed)

	assert.NoFileExists(t, targets[0])
	assert.FileExists(t, result.Groups[0].Paths[0])
}

func TestSessionCleanBeforeFinish(t *testing.T) {
	dir := seedTree(t)
	sess, err := Start(context.Background(), Options{Root: dir, Config: testConfig()})
	require.NoError(t, err)
	defer func() { _ = sess.Close() }()

	if _, err := sess.Clean(context.Background(), []string{filepath.Join(dir, "a.txt")}); err != nil {
		assert.ErrorIs(t, err, ErrScanInProgress)
	}
}

func TestSessionCleanRespectsSafeMode(t *testing.T) {
	dir := seedTree(t)
	sess := startAndWait(t, dir, testConfig())

	outside := filepath.Join(t.TempDir(), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("untouchable"), 0o644))

	outcomes, err := sess.Clean(context.Background(), []string{outside})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, types.CleanSkipped, outcomes[0].Status)
	assert.FileExists(t, outside)
}

func TestSessionIDUnique(t *testing.T) {
	dir := t.TempDir()
	a := startAndWait(t, dir, testConfig())
	b := startAndWait(t, dir, testConfig())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestSessionJournalsOperations(t *testing.T) {
	dir := seedTree(t)
	cfg := testConfig()
	cfg.Manifest.Enabled = true
	cfg.Manifest.Path = filepath.Join(t.TempDir(), "manifest")

	sess := startAndWait(t, dir, cfg)
	require.NotNil(t, sess.journal)

	entries, err := sess.journal.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, dir, entries[0].Root)

	result, err := sess.Results()
	require.NoError(t, err)
	_, err = sess.Clean(context.Background(), result.Groups[0].Paths[1:])
	require.NoError(t, err)

	entries, err = sess.journal.List(0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSessionCloseIsIdempotentWithWait(t *testing.T) {
	dir := seedTree(t)
	sess := startAndWait(t, dir, testConfig())

	require.NoError(t, sess.Close())

	// Results stay readable after close.
	result, err := sess.Results()
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestProtectedPrefixes(t *testing.T) {
	assert.Nil(t, protectedPrefixes(nil))
	assert.Nil(t, protectedPrefixes([]string{}))

	merged := protectedPrefixes([]string{"/custom", "  "})
	assert.Contains(t, merged, "/custom")
	assert.Contains(t, merged, "/etc")
	assert.NotContains(t, merged, "  ")
}

func TestSessionRunErrorSticks(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	sess, err := Start(context.Background(), Options{Root: file, Config: testConfig()})
	require.NoError(t, err)
	defer func() { _ = sess.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, sess.Wait(ctx))

	_, err = sess.Results()
	require.Error(t, err)
	assert.True(t, errors.Is(err, scanner.ErrNotDirectory))
}
