// Package scanner walks a directory tree and produces categorized file
// records. Traversal is single-threaded with a stable lexical walk
// order so exclusion matching is deterministic; per-entry failures
// become warnings, never fatal errors. Only an invalid root aborts a
// scan before any work begins.
package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/declutter/pkg/declutter/category"
	"github.com/jamesainslie/declutter/pkg/declutter/logging"
	"github.com/jamesainslie/declutter/pkg/declutter/progress"
	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

// ErrRootNotFound indicates the scan root does not exist.
var ErrRootNotFound = errors.New("scan root does not exist")

// ErrNotDirectory indicates the scan root is not a directory.
var ErrNotDirectory = errors.New("scan root is not a directory")

// errWalkCancelled aborts the walk on cooperative cancellation. It is
// translated into a partial, Cancelled-tagged result, not an error.
var errWalkCancelled = errors.New("walk cancelled")

// Options configures a scan.
type Options struct {
	// Root is the directory to scan. Resolved to an absolute path.
	Root string

	// Exclude contains path prefixes to skip. Any entry whose resolved
	// path starts with one of these prefixes is skipped, directories
	// together with their whole subtree.
	Exclude []string

	// ExcludeExtensions lists extensions (with or without dot) whose
	// files are skipped entirely.
	ExcludeExtensions []string

	// MaxFileSize, when positive, marks larger files Oversized. They
	// stay in the result with a category but are never hashed.
	MaxFileSize int64

	// IncludeHidden includes dotfiles. Hidden directories are always
	// traversed; this only controls files.
	IncludeHidden bool

	// Tracker receives per-file progress updates. Required.
	Tracker *progress.Tracker
}

// Scanner walks one tree. Create with New; a Scanner is good for a
// single Scan call.
type Scanner struct {
	opts    Options
	root    string
	exclude []string
	exts    map[string]struct{}

	records  []types.FileRecord
	warnings []types.ScanWarning

	// visited holds resolved real paths of recorded files so a symlink
	// to an already-seen target is not counted twice. Traversal is
	// single-threaded, so a plain map suffices.
	visited map[string]struct{}

	log *logging.Logger
}

// New creates a Scanner with the given options.
func New(opts Options) *Scanner {
	exts := make(map[string]struct{}, len(opts.ExcludeExtensions))
	for _, ext := range opts.ExcludeExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}

	return &Scanner{
		opts:    opts,
		exts:    exts,
		visited: make(map[string]struct{}),
		log:     logging.Get("scanner"),
	}
}

// Scan walks the tree and returns the result. On cancellation (via ctx
// or the tracker) it returns the partial result accumulated so far with
// Cancelled set, and a nil error.
func (s *Scanner) Scan(ctx context.Context) (*types.ScanResult, error) {
	start := time.Now()

	root, err := s.validateRoot()
	if err != nil {
		return nil, err
	}
	s.root = root
	s.exclude = normalizeExclusions(s.opts.Exclude)

	s.log.Info("scan started", "root", root, "exclusions", len(s.exclude))
	s.opts.Tracker.SetPhase(types.PhaseScanning)

	conf := fastwalk.Config{
		Follow: false,
		// A single worker with lexical ordering keeps the walk order
		// stable, which exclusion matching and tests rely on.
		NumWorkers: 1,
		Sort:       fastwalk.SortLexical,
	}

	cancelled := false
	walkErr := fastwalk.Walk(&conf, root, s.visit(ctx))
	if walkErr != nil {
		if errors.Is(walkErr, errWalkCancelled) || errors.Is(walkErr, context.Canceled) {
			cancelled = true
		} else {
			return nil, walkErr
		}
	}

	result := &types.ScanResult{
		Root:      root,
		Records:   s.records,
		Warnings:  s.warnings,
		Stats:     types.Summarize(s.records),
		Cancelled: cancelled,
		Elapsed:   time.Since(start),
	}

	s.log.Info("scan finished",
		"files", result.Stats.TotalFiles,
		"bytes", result.Stats.TotalBytes,
		"warnings", len(result.Warnings),
		"cancelled", cancelled,
		"elapsed", result.Elapsed)

	return result, nil
}

// validateRoot resolves the root to an absolute path and verifies it is
// an existing directory. This is the only fatal failure mode.
func (s *Scanner) validateRoot() (string, error) {
	root, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return "", err
	}

	// Canonicalize a root reached through a symlink. Regular files are
	// keyed by their walk path and file symlinks by their resolved
	// target; those only agree on the same physical file when the walk
	// starts from the real directory.
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrRootNotFound
		}
		return "", err
	}
	root = resolved

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrRootNotFound
		}
		return "", err
	}
	if !info.IsDir() {
		return "", ErrNotDirectory
	}

	return root, nil
}

// visit returns the walk callback. Cancellation is checked between
// directory-entry visits so latency is bounded by one entry.
func (s *Scanner) visit(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return errWalkCancelled
		default:
		}
		if s.opts.Tracker.Cancelled() {
			return errWalkCancelled
		}

		if err != nil {
			s.warn(path, "walk", err)
			return nil
		}

		if s.isExcluded(path) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		switch {
		case d.Type().IsRegular():
			s.addFile(path, path, d, "")
		case d.Type()&fs.ModeSymlink != 0:
			s.followFileSymlink(path)
		}
		return nil
	}
}

// addFile stats the entry and appends a categorized record. statPath is
// where metadata comes from (the resolved target for symlinks), recordPath
// is what the record is keyed by.
func (s *Scanner) addFile(recordPath, statPath string, d fs.DirEntry, target string) {
	var info fs.FileInfo
	var err error
	if d != nil {
		info, err = d.Info()
	} else {
		info, err = os.Stat(statPath)
	}
	if err != nil {
		s.warn(recordPath, "stat", err)
		return
	}

	name := filepath.Base(recordPath)
	if !s.opts.IncludeHidden && strings.HasPrefix(name, ".") {
		return
	}
	if _, skip := s.exts[strings.ToLower(filepath.Ext(name))]; skip {
		return
	}

	real := statPath
	if target != "" {
		real = target
	}
	if _, seen := s.visited[real]; seen {
		return
	}
	s.visited[real] = struct{}{}

	size := info.Size()

	// Counters move before categorization so progress reflects
	// traversal speed, not processing speed.
	s.opts.Tracker.Advance(types.PhaseScanning, 1, size)

	s.records = append(s.records, types.FileRecord{
		Path:          recordPath,
		Size:          size,
		ModTime:       info.ModTime(),
		Category:      category.Categorize(recordPath, size),
		Oversized:     s.opts.MaxFileSize > 0 && size > s.opts.MaxFileSize,
		SymlinkTarget: target,
	})
}

// followFileSymlink resolves a symlink entry and records its target if
// it is a regular file not seen before. Directory symlinks are never
// followed; broken links become warnings.
func (s *Scanner) followFileSymlink(path string) {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		s.warn(path, "stat", err)
		return
	}

	info, err := os.Stat(target)
	if err != nil {
		s.warn(path, "stat", err)
		return
	}
	if !info.Mode().IsRegular() {
		return
	}
	if s.isExcluded(target) {
		return
	}

	s.addFile(path, target, nil, target)
}

// isExcluded reports whether path falls under any exclusion prefix.
func (s *Scanner) isExcluded(path string) bool {
	for _, prefix := range s.exclude {
		if path == prefix || strings.HasPrefix(path, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// warn appends a scan warning. The scan continues.
func (s *Scanner) warn(path, stage string, err error) {
	s.log.Warn("scan warning", "path", path, "stage", stage, "error", err)
	s.warnings = append(s.warnings, types.ScanWarning{
		Path:    path,
		Stage:   stage,
		Message: err.Error(),
	})
}

// normalizeExclusions resolves exclusion prefixes to cleaned absolute
// paths, dropping empties.
func normalizeExclusions(exclude []string) []string {
	out := make([]string, 0, len(exclude))
	for _, e := range exclude {
		if strings.TrimSpace(e) == "" {
			continue
		}
		abs, err := filepath.Abs(e)
		if err != nil {
			continue
		}
		out = append(out, filepath.Clean(abs))
	}
	return out
}
