// Package session is the boundary the presentation layer talks to. A
// session owns one scan pipeline run: it starts the traversal and
// duplicate detection on a background goroutine, exposes progress
// snapshots and cancellation, hands out the finished result, and
// executes cleanup batches against it.
//
// Sessions are self-contained. Each one has its own tracker, hash
// cache handle, journal, and watcher, so concurrent sessions and tests
// never share state.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/jamesainslie/declutter/pkg/declutter/cleaner"
	"github.com/jamesainslie/declutter/pkg/declutter/config"
	"github.com/jamesainslie/declutter/pkg/declutter/dupes"
	"github.com/jamesainslie/declutter/pkg/declutter/hashcache"
	"github.com/jamesainslie/declutter/pkg/declutter/logging"
	"github.com/jamesainslie/declutter/pkg/declutter/manifest"
	"github.com/jamesainslie/declutter/pkg/declutter/progress"
	"github.com/jamesainslie/declutter/pkg/declutter/scanner"
	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

// ErrScanInProgress is returned by Results and Clean while the pipeline
// is still running.
var ErrScanInProgress = errors.New("scan in progress")

// ErrNoResult is returned by Clean when the pipeline finished without a
// usable result.
var ErrNoResult = errors.New("no scan result available")

// Options configures a session.
type Options struct {
	// Root is the directory to scan.
	Root string

	// Config supplies scan and cleanup settings. Nil means defaults.
	Config *config.Config
}

// Session is one scan-and-clean lifecycle.
type Session struct {
	id      string
	root    string
	cfg     *config.Config
	tracker *progress.Tracker
	cache   *hashcache.Cache
	journal *manifest.Journal
	log     *logging.Logger

	cancel  context.CancelFunc
	done    chan struct{}
	watcher *fsnotify.Watcher

	mu     sync.Mutex
	result *types.ScanResult
	runErr error

	staleOnce sync.Once
	staleMu   sync.Mutex
	staleFlag bool
}

// Start validates the options and launches the scan pipeline. It
// returns as soon as the pipeline is running; use Poll and Results to
// observe it.
func Start(ctx context.Context, opts Options) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	maxSize := int64(0)
	if cfg.Scan.MaxFileSize != "" {
		parsed, err := types.ParseSize(cfg.Scan.MaxFileSize)
		if err != nil {
			return nil, err
		}
		maxSize = parsed
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:      uuid.NewString(),
		root:    opts.Root,
		cfg:     cfg,
		tracker: progress.NewTracker(),
		cancel:  cancel,
		done:    make(chan struct{}),
		log:     logging.Get("session"),
	}

	if cfg.Scan.HashCache {
		cache, err := hashcache.Open(hashcache.DefaultPath())
		if err != nil {
			// The cache is an optimization; a session runs fine without.
			s.log.Warn("hash cache unavailable", "error", err)
		} else {
			s.cache = cache
		}
	}

	if cfg.Manifest.Enabled {
		dir := cfg.Manifest.Path
		if dir == "" {
			dir = manifest.DefaultDir()
		}
		journal, err := manifest.Open(dir)
		if err != nil {
			s.log.Warn("manifest unavailable", "error", err)
		} else {
			s.journal = journal
		}
	}

	s.log.Info("session started", "id", s.id, "root", opts.Root)
	go s.run(runCtx, maxSize)
	return s, nil
}

// run executes scan then duplicate detection, records the result, and
// arms the staleness watcher.
func (s *Session) run(ctx context.Context, maxSize int64) {
	defer close(s.done)

	scan := scanner.New(scanner.Options{
		Root:              s.root,
		Exclude:           s.cfg.Scan.Exclude,
		ExcludeExtensions: s.cfg.Scan.ExcludeExtensions,
		MaxFileSize:       maxSize,
		IncludeHidden:     s.cfg.Scan.IncludeHidden,
		Tracker:           s.tracker,
	})

	result, err := scan.Scan(ctx)
	if err != nil {
		s.log.Error("scan failed", "id", s.id, "error", err)
		s.mu.Lock()
		s.runErr = err
		s.mu.Unlock()
		s.tracker.SetPhase(types.PhaseDone)
		return
	}
	s.tracker.Done(types.PhaseScanning)

	if !result.Cancelled {
		finder := dupes.New(dupes.Options{
			Workers: s.cfg.Scan.HashWorkers,
			Cache:   s.cache,
			Tracker: s.tracker,
		})
		groups, warnings := finder.Find(ctx, result.Records)
		result.Groups = groups
		result.Warnings = append(result.Warnings, warnings...)
		result.Cancelled = result.Cancelled || s.tracker.Cancelled()
		fillDuplicateStats(result)
	}

	s.mu.Lock()
	s.result = result
	s.mu.Unlock()
	s.tracker.SetPhase(types.PhaseDone)

	if s.journal != nil {
		if _, err := s.journal.LogScan(result); err != nil {
			s.log.Warn("journaling scan failed", "error", err)
		}
	}

	s.watch(result.Root)
}

// fillDuplicateStats derives the duplicate counters from the groups.
func fillDuplicateStats(result *types.ScanResult) {
	var files, bytes int64
	for i := range result.Groups {
		g := &result.Groups[i]
		files += int64(len(g.Paths))
		bytes += g.Size * int64(len(g.Paths))
	}
	result.Stats.DuplicateFiles = files
	result.Stats.DuplicateBytes = bytes
}

// watch arms a best-effort filesystem watch on the scan root. Any event
// under it marks the result stale so the front end can suggest a
// re-scan. Watch failures are logged and ignored; staleness is advisory
// and never affects pipeline correctness.
func (s *Session) watch(root string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Debug("staleness watch unavailable", "error", err)
		return
	}
	if err := watcher.Add(root); err != nil {
		s.log.Debug("staleness watch failed", "root", root, "error", err)
		_ = watcher.Close()
		return
	}
	s.watcher = watcher

	go func() {
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				s.markStale()
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
}

func (s *Session) markStale() {
	s.staleOnce.Do(func() {
		s.log.Info("scan result is stale", "id", s.id, "root", s.root)
	})
	s.staleMu.Lock()
	s.staleFlag = true
	s.staleMu.Unlock()
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Poll returns the current progress snapshot. Safe to call from any
// goroutine at any rate.
func (s *Session) Poll() types.ProgressSnapshot {
	return s.tracker.Snapshot()
}

// Cancel requests cooperative cancellation of the running pipeline. A
// cancelled scan still yields a partial, presentable result.
func (s *Session) Cancel() {
	s.tracker.Cancel()
	s.cancel()
}

// Wait blocks until the pipeline finishes or ctx expires.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results returns the scan result, or ErrScanInProgress while the
// pipeline is still running. A cancelled scan returns its partial
// result with Cancelled set.
func (s *Session) Results() (*types.ScanResult, error) {
	select {
	case <-s.done:
	default:
		return nil, ErrScanInProgress
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runErr != nil {
		return nil, s.runErr
	}
	return s.result, nil
}

// Stale reports whether the filesystem under the scan root has changed
// since the scan finished.
func (s *Session) Stale() bool {
	s.staleMu.Lock()
	defer s.staleMu.Unlock()
	return s.staleFlag
}

// Clean deletes the given paths according to the session's cleanup
// configuration and journals the batch. It refuses to run before the
// scan pipeline has finished.
func (s *Session) Clean(ctx context.Context, paths []string) ([]types.CleanupOutcome, error) {
	result, err := s.Results()
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrNoResult
	}

	c := cleaner.New(cleaner.Options{
		SafeMode:           s.cfg.Clean.SafeMode,
		ScanRoot:           result.Root,
		Protected:          protectedPrefixes(s.cfg.Clean.Protected),
		BackupBeforeDelete: s.cfg.Clean.BackupBeforeDelete,
		BackupDir:          s.cfg.Clean.BackupDir,
		UseTrash:           s.cfg.Clean.UseTrash,
		Tracker:            s.tracker,
	})

	outcomes := c.Clean(ctx, paths)
	s.tracker.SetPhase(types.PhaseDone)

	// Deleted paths have stale cache entries; drop them.
	if s.cache != nil {
		for i := range outcomes {
			switch outcomes[i].Status {
			case types.CleanDeleted, types.CleanBackedUpAndDeleted:
				_ = s.cache.Invalidate(outcomes[i].Path)
			}
		}
	}

	if s.journal != nil {
		if _, err := s.journal.LogClean(outcomes); err != nil {
			s.log.Warn("journaling cleanup failed", "error", err)
		}
	}
	return outcomes, nil
}

// EstimateBytes returns the bytes a cleanup of the given paths would
// free, without deleting anything.
func (s *Session) EstimateBytes(paths []string) int64 {
	c := cleaner.New(cleaner.Options{Tracker: s.tracker})
	return c.EstimateBytes(paths)
}

// Close cancels any running pipeline and releases the session's
// resources.
func (s *Session) Close() error {
	s.Cancel()
	<-s.done

	var errs []error
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.log.Info("session closed", "id", s.id)
	return errors.Join(errs...)
}

// protectedPrefixes merges user-configured prefixes with the built-in
// system set. An empty user list keeps the defaults.
func protectedPrefixes(extra []string) []string {
	if len(extra) == 0 {
		return nil
	}
	merged := make([]string, 0, len(cleaner.DefaultProtected)+len(extra))
	merged = append(merged, cleaner.DefaultProtected...)
	for _, p := range extra {
		if strings.TrimSpace(p) == "" {
			continue
		}
		merged = append(merged, p)
	}
	return merged
}
