// Package dupes locates duplicate content among scanned file records.
//
// Detection is two-phase to avoid hashing cost wherever possible: files
// are first bucketed by exact size and only buckets with two or more
// members are hashed, by a bounded worker pool streaming each file in
// fixed-size chunks. Within a bucket, files sharing a content hash form
// a duplicate group. Equal hash is treated as equal content only inside
// a same-size bucket; the group identity is always the (size, hash)
// pair.
package dupes

import (
	"context"
	"errors"
	"io"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/declutter/pkg/declutter/hashcache"
	"github.com/jamesainslie/declutter/pkg/declutter/logging"
	"github.com/jamesainslie/declutter/pkg/declutter/progress"
	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

// DefaultChunkSize is the read size for streaming hashes. It caps peak
// memory per worker regardless of file size.
const DefaultChunkSize = 512 * 1024

// Options configures a Finder.
type Options struct {
	// Workers bounds the hashing pool. Zero means GOMAXPROCS.
	Workers int

	// ChunkSize is the per-read buffer size. Zero means
	// DefaultChunkSize.
	ChunkSize int

	// Cache, when non-nil, memoizes hashes across scans keyed by
	// (path, size, mtime).
	Cache *hashcache.Cache

	// Tracker receives hashing progress. Required.
	Tracker *progress.Tracker
}

// Finder groups records into duplicate sets.
type Finder struct {
	opts Options
	log  *logging.Logger
}

// New creates a Finder, applying defaults for zero option values.
func New(opts Options) *Finder {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &Finder{opts: opts, log: logging.Get("dupes")}
}

// Find hashes size-colliding records and returns the duplicate groups
// plus any per-file hash failures as warnings.
//
// Records are addressed by index into the caller's slice: the hash slot
// of each candidate is written exactly once, by the single worker that
// hashed it, so no per-record locking is needed. Oversized and
// already-excluded records never enter a bucket. On cancellation the
// groups computed from completed hashes are returned.
func (f *Finder) Find(ctx context.Context, records []types.FileRecord) ([]types.DuplicateGroup, []types.ScanWarning) {
	start := time.Now()

	buckets := sizeBuckets(records)

	var candidates []int
	for _, idxs := range buckets {
		if len(idxs) < 2 {
			continue
		}
		candidates = append(candidates, idxs...)
	}
	// A stable hashing order keeps logs and progress reproducible; the
	// result does not depend on it.
	sort.Ints(candidates)

	f.opts.Tracker.SetPhase(types.PhaseHashing)
	f.opts.Tracker.SetTotal(types.PhaseHashing, int64(len(candidates)))

	f.log.Info("hashing candidates",
		"files", len(records),
		"size_collisions", len(candidates),
		"workers", f.opts.Workers)

	var mu sync.Mutex
	var warnings []types.ScanWarning

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Workers)

scheduling:
	for _, idx := range candidates {
		// Cancellation is checked between file-hash tasks; in-flight
		// hashes finish or abandon on their own chunk checks.
		select {
		case <-gctx.Done():
			break scheduling
		default:
		}
		if f.opts.Tracker.Cancelled() {
			break scheduling
		}

		idx := idx
		g.Go(func() error {
			rec := &records[idx]
			hash, err := f.hashFile(gctx, rec)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					f.log.Warn("hash failed", "path", rec.Path, "error", err)
					mu.Lock()
					warnings = append(warnings, types.ScanWarning{
						Path:    rec.Path,
						Stage:   "hash",
						Message: err.Error(),
					})
					mu.Unlock()
				}
				return nil
			}
			// Sole writer for this record's hash slot.
			rec.Hash = hash
			rec.Hashed = true
			f.opts.Tracker.Advance(types.PhaseHashing, 1, rec.Size)
			return nil
		})
	}
	_ = g.Wait()

	groups := collectGroups(records, buckets)

	f.log.Info("duplicate detection finished",
		"groups", len(groups),
		"elapsed", time.Since(start))

	return groups, warnings
}

// hashFile computes the content hash of one record, consulting the
// cache first. Reads are chunked with a cancellation check per chunk so
// abandonment latency is bounded by one read.
func (f *Finder) hashFile(ctx context.Context, rec *types.FileRecord) (uint64, error) {
	mtime := rec.ModTime.UnixNano()
	if f.opts.Cache != nil {
		if hash, ok := f.opts.Cache.Lookup(rec.Path, rec.Size, mtime); ok {
			// A file deleted since the scan must surface as a hash
			// failure, not ride into a group on its stale cache entry.
			if _, err := os.Lstat(rec.Path); err != nil {
				return 0, err
			}
			return hash, nil
		}
	}

	file, err := os.Open(rec.Path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = file.Close() }()

	digest := xxhash.New()
	buf := make([]byte, f.opts.ChunkSize)
	for {
		select {
		case <-ctx.Done():
			return 0, context.Canceled
		default:
		}
		if f.opts.Tracker.Cancelled() {
			return 0, context.Canceled
		}

		n, err := file.Read(buf)
		if n > 0 {
			_, _ = digest.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}

	hash := digest.Sum64()
	if f.opts.Cache != nil {
		if err := f.opts.Cache.Store(rec.Path, rec.Size, mtime, hash); err != nil {
			f.log.Debug("hash cache store failed", "path", rec.Path, "error", err)
		}
	}
	return hash, nil
}

// sizeBuckets maps each distinct size to the record indices carrying
// it, excluding oversized records.
func sizeBuckets(records []types.FileRecord) map[int64][]int {
	buckets := make(map[int64][]int)
	for i := range records {
		if records[i].Oversized {
			continue
		}
		buckets[records[i].Size] = append(buckets[records[i].Size], i)
	}
	return buckets
}

// collectGroups sub-groups each size bucket by hash and keeps the sets
// with two or more members. Membership depends only on the (size, hash)
// pairs, never on hashing completion order; output ordering is fixed
// for presentation (largest wasted bytes first).
func collectGroups(records []types.FileRecord, buckets map[int64][]int) []types.DuplicateGroup {
	var groups []types.DuplicateGroup
	for size, idxs := range buckets {
		if len(idxs) < 2 {
			continue
		}
		byHash := make(map[uint64][]string)
		for _, idx := range idxs {
			if !records[idx].Hashed {
				continue
			}
			byHash[records[idx].Hash] = append(byHash[records[idx].Hash], records[idx].Path)
		}
		for hash, paths := range byHash {
			if len(paths) < 2 {
				continue
			}
			sort.Strings(paths)
			groups = append(groups, types.DuplicateGroup{
				Size:  size,
				Hash:  hash,
				Paths: paths,
			})
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		wi, wj := groups[i].WastedBytes(), groups[j].WastedBytes()
		if wi != wj {
			return wi > wj
		}
		if groups[i].Size != groups[j].Size {
			return groups[i].Size > groups[j].Size
		}
		return groups[i].Hash < groups[j].Hash
	})
	return groups
}
