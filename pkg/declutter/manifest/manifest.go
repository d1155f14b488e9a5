// Package manifest journals scan and cleanup operations as JSON files
// on disk, one file per entry, so a user can audit what declutter did
// and when. The journal is append-only; entries are pruned only by
// retention cleanup.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/uuid"

	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

// Kind tags the operation an entry records.
type Kind string

const (
	// KindScan records a completed (or cancelled) scan.
	KindScan Kind = "scan"
	// KindClean records a cleanup batch.
	KindClean Kind = "clean"
)

// Entry is one journaled operation.
type Entry struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// Scan fields.
	Root      string      `json:"root,omitempty"`
	Stats     types.Stats `json:"stats,omitempty"`
	Groups    int         `json:"groups,omitempty"`
	Warnings  int         `json:"warnings,omitempty"`
	Cancelled bool        `json:"cancelled,omitempty"`

	// Clean fields.
	Outcomes   []types.CleanupOutcome `json:"outcomes,omitempty"`
	BytesFreed int64                  `json:"bytes_freed,omitempty"`
}

// Journal writes and reads manifest entries under one directory.
type Journal struct {
	dir string
	mu  sync.Mutex
}

// DefaultDir returns $XDG_DATA_HOME/declutter/manifest.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, "declutter", "manifest")
}

// Open creates a Journal rooted at dir, creating the directory if
// needed.
func Open(dir string) (*Journal, error) {
	if dir == "" {
		return nil, errors.New("manifest directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating manifest directory: %w", err)
	}
	return &Journal{dir: dir}, nil
}

// LogScan journals a scan result and returns the entry written.
func (j *Journal) LogScan(result *types.ScanResult) (*Entry, error) {
	entry := &Entry{
		ID:        newID(KindScan),
		Kind:      KindScan,
		Timestamp: time.Now().UTC(),
		Root:      result.Root,
		Stats:     result.Stats,
		Groups:    len(result.Groups),
		Warnings:  len(result.Warnings),
		Cancelled: result.Cancelled,
	}
	if err := j.write(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// LogClean journals a cleanup batch and returns the entry written.
func (j *Journal) LogClean(outcomes []types.CleanupOutcome) (*Entry, error) {
	var freed int64
	for i := range outcomes {
		freed += outcomes[i].BytesFreed
	}
	entry := &Entry{
		ID:         newID(KindClean),
		Kind:       KindClean,
		Timestamp:  time.Now().UTC(),
		Outcomes:   outcomes,
		BytesFreed: freed,
	}
	if err := j.write(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns entries newest first. A non-positive limit returns all.
func (j *Journal) List(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	files, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("reading manifest directory: %w", err)
	}

	entries := []Entry{}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		entry, err := j.read(f.Name())
		if err != nil {
			// Unparseable entries are ignored, not fatal.
			continue
		}
		entries = append(entries, *entry)
	}

	sort.Slice(entries, func(i, k int) bool {
		return entries[i].Timestamp.After(entries[k].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry with the given ID.
func (j *Journal) Get(id string) (*Entry, error) {
	if id == "" {
		return nil, errors.New("entry ID cannot be empty")
	}
	entries, err := j.List(0)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("entry not found: %s", id)
}

// Prune removes entries older than retentionDays.
func (j *Journal) Prune(retentionDays int) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	files, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading manifest directory: %w", err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(j.dir, f.Name()))
		}
	}
	return nil
}

// write persists an entry atomically via temp file and rename.
func (j *Journal) write(entry *Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling entry: %w", err)
	}

	path := filepath.Join(j.dir, entry.ID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming entry: %w", err)
	}
	return nil
}

func (j *Journal) read(filename string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(j.dir, filename))
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshaling entry: %w", err)
	}
	return &entry, nil
}

// newID builds IDs like "scan-2026-08-25T10-30-00-<uuid>"; the
// timestamp keeps directory listings chronological.
func newID(kind Kind) string {
	ts := time.Now().UTC().Format("2006-01-02T15-04-05")
	return fmt.Sprintf("%s-%s-%s", kind, ts, uuid.NewString())
}
