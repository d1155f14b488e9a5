package hashcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "hashes"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestStoreAndLookup(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Store("/data/a.bin", 1024, 111, 0xdeadbeef))

	hash, ok := cache.Lookup("/data/a.bin", 1024, 111)
	assert.True(t, ok)
	assert.Equal(t, uint64(0xdeadbeef), hash)
}

func TestLookupMissUnknownPath(t *testing.T) {
	cache := openTestCache(t)

	_, ok := cache.Lookup("/never/stored", 10, 20)
	assert.False(t, ok)
}

func TestLookupStaleOnSizeChange(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Store("/data/a.bin", 1024, 111, 42))

	_, ok := cache.Lookup("/data/a.bin", 2048, 111)
	assert.False(t, ok, "size change must invalidate the entry")
}

func TestLookupStaleOnMtimeChange(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Store("/data/a.bin", 1024, 111, 42))

	_, ok := cache.Lookup("/data/a.bin", 1024, 222)
	assert.False(t, ok, "mtime change must invalidate the entry")
}

func TestStoreOverwrites(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Store("/data/a.bin", 1024, 111, 1))
	require.NoError(t, cache.Store("/data/a.bin", 1024, 333, 2))

	_, ok := cache.Lookup("/data/a.bin", 1024, 111)
	assert.False(t, ok)

	hash, ok := cache.Lookup("/data/a.bin", 1024, 333)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), hash)
}

func TestInvalidate(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Store("/data/a.bin", 1024, 111, 42))
	require.NoError(t, cache.Invalidate("/data/a.bin"))

	_, ok := cache.Lookup("/data/a.bin", 1024, 111)
	assert.False(t, ok)

	// Invalidating an absent key is not an error.
	assert.NoError(t, cache.Invalidate("/data/never-there"))
}

func TestInvalidatePrefix(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Store("/proj/a.bin", 1, 1, 10))
	require.NoError(t, cache.Store("/proj/sub/b.bin", 2, 2, 20))
	require.NoError(t, cache.Store("/other/c.bin", 3, 3, 30))

	require.NoError(t, cache.InvalidatePrefix("/proj"))

	_, ok := cache.Lookup("/proj/a.bin", 1, 1)
	assert.False(t, ok)
	_, ok = cache.Lookup("/proj/sub/b.bin", 2, 2)
	assert.False(t, ok)

	hash, ok := cache.Lookup("/other/c.bin", 3, 3)
	assert.True(t, ok, "entries outside the prefix must survive")
	assert.Equal(t, uint64(30), hash)
}

func TestStatsCountHitsAndMisses(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.Store("/data/a.bin", 1024, 111, 42))

	cache.Lookup("/data/a.bin", 1024, 111) // hit
	cache.Lookup("/data/a.bin", 1024, 999) // stale, counts as miss
	cache.Lookup("/nope", 1, 1)            // miss

	hits, misses := cache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hashes")

	cache, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, cache.Store("/data/a.bin", 1024, 111, 42))
	require.NoError(t, cache.Close())

	cache, err = Open(dir)
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	hash, ok := cache.Lookup("/data/a.bin", 1024, 111)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), hash)
}
