// Package hashcache provides a Badger-backed persistent cache of file
// content hashes. Entries are keyed by path and validated against the
// file's current size and modification time, so an unchanged file is
// never re-read across scans while any change invalidates its entry.
package hashcache

import (
	"encoding/binary"
	"errors"
	"path/filepath"
	"sync/atomic"

	"github.com/adrg/xdg"
	"github.com/dgraph-io/badger/v4"
)

// keyPrefix namespaces hash entries within the database.
const keyPrefix = "h:"

// entrySize is the fixed encoded length: size, mtime, hash (8 bytes each).
const entrySize = 24

// Cache is the hash cache. Safe for concurrent use; Badger provides the
// transaction isolation.
type Cache struct {
	db *badger.DB

	hits   atomic.Int64
	misses atomic.Int64
}

// DefaultPath returns $XDG_CACHE_HOME/declutter/hashes.
func DefaultPath() string {
	return filepath.Join(xdg.CacheHome, "declutter", "hashes")
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Lookup returns the cached hash for path if the stored size and mtime
// still match the file's current metadata. ok is false on a miss or a
// stale entry.
func (c *Cache) Lookup(path string, size, mtimeNano int64) (hash uint64, ok bool) {
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != entrySize {
				return errors.New("malformed cache entry")
			}
			storedSize := int64(binary.BigEndian.Uint64(val[0:8]))
			storedMtime := int64(binary.BigEndian.Uint64(val[8:16]))
			if storedSize != size || storedMtime != mtimeNano {
				return badger.ErrKeyNotFound
			}
			hash = binary.BigEndian.Uint64(val[16:24])
			ok = true
			return nil
		})
	})
	if err != nil || !ok {
		c.misses.Add(1)
		return 0, false
	}
	c.hits.Add(1)
	return hash, true
}

// Store records the hash for path at the given size and mtime.
func (c *Cache) Store(path string, size, mtimeNano int64, hash uint64) error {
	val := make([]byte, entrySize)
	binary.BigEndian.PutUint64(val[0:8], uint64(size))
	binary.BigEndian.PutUint64(val[8:16], uint64(mtimeNano))
	binary.BigEndian.PutUint64(val[16:24], hash)

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(path), val)
	})
}

// Invalidate removes the entry for path, if any.
func (c *Cache) Invalidate(path string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(key(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// InvalidatePrefix removes every entry whose path starts with prefix.
// Used when a subtree is known to have changed wholesale.
func (c *Cache) InvalidatePrefix(prefix string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var keys [][]byte
		p := key(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Stats returns the hit and miss counts since the cache was opened.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func key(path string) []byte {
	return []byte(keyPrefix + path)
}
