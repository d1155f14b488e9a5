// Package types provides the core data model for the declutter disk
// reclaimer: file records, categories, duplicate groups, scan results,
// cleanup outcomes, and progress snapshots, along with helpers for
// parsing and formatting byte sizes.
package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// Category classifies a scanned file. The set is closed: every record
// carries exactly one of these values.
type Category int

// Categories in rule-priority order. CategoryOther is the fallback for
// files no rule matches.
const (
	CategoryLog Category = iota
	CategoryTemporary
	CategoryCache
	CategoryDuplicateCandidate
	CategoryDocument
	CategoryMedia
	CategoryArchive
	CategoryExecutable
	CategoryOther
)

var categoryNames = map[Category]string{
	CategoryLog:                "log",
	CategoryTemporary:          "temporary",
	CategoryCache:              "cache",
	CategoryDuplicateCandidate: "duplicate-candidate",
	CategoryDocument:           "document",
	CategoryMedia:              "media",
	CategoryArchive:            "archive",
	CategoryExecutable:         "executable",
	CategoryOther:              "other",
}

// String returns the lowercase name of the category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "other"
}

// MarshalText implements encoding.TextMarshaler so categories serialize
// by name in JSON and YAML output.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ErrUnknownCategory indicates a category name outside the closed set.
var ErrUnknownCategory = errors.New("unknown category")

// ParseCategory parses a category name as produced by Category.String.
func ParseCategory(s string) (Category, error) {
	for c, name := range categoryNames {
		if name == strings.ToLower(strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return CategoryOther, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Categories returns all categories in rule-priority order.
func Categories() []Category {
	return []Category{
		CategoryLog,
		CategoryTemporary,
		CategoryCache,
		CategoryDuplicateCandidate,
		CategoryDocument,
		CategoryMedia,
		CategoryArchive,
		CategoryExecutable,
		CategoryOther,
	}
}

// FileRecord describes one file discovered by a scan.
//
// Records are created by the scanner with every field except Hash set,
// and are immutable thereafter with one exception: the duplicate finder
// fills Hash/Hashed exactly once per record, each record written by the
// single worker that hashed it. No other concurrent mutation occurs.
type FileRecord struct {
	// Path is the absolute path the file was reached by. Unique within
	// a scan.
	Path string `json:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// ModTime is the last modification time.
	ModTime time.Time `json:"mod_time"`

	// Category is the classification assigned at scan time.
	Category Category `json:"category"`

	// Hash is the 64-bit content hash, valid only when Hashed is true.
	Hash uint64 `json:"hash,omitempty"`

	// Hashed reports whether Hash has been computed.
	Hashed bool `json:"hashed,omitempty"`

	// Oversized marks files above the configured size cap. Oversized
	// records keep their category but are never hashed or grouped.
	Oversized bool `json:"oversized,omitempty"`

	// SymlinkTarget is the resolved target when Path is a symlink to a
	// regular file; empty otherwise.
	SymlinkTarget string `json:"symlink_target,omitempty"`
}

// HumanSize returns the record's size formatted with IEC units.
func (r *FileRecord) HumanSize() string {
	return FormatSize(r.Size)
}

// DuplicateGroup is a maximal set of same-size, same-hash files.
// Every group has at least two members and no two groups share a path.
type DuplicateGroup struct {
	// Size is the common byte size of all members.
	Size int64 `json:"size"`

	// Hash is the common content hash of all members.
	Hash uint64 `json:"hash"`

	// Paths are the member paths, sorted lexically.
	Paths []string `json:"paths"`
}

// WastedBytes returns the bytes reclaimable by keeping one copy.
func (g *DuplicateGroup) WastedBytes() int64 {
	if len(g.Paths) < 2 {
		return 0
	}
	return g.Size * int64(len(g.Paths)-1)
}

// ScanWarning records a non-fatal per-entry failure. Warnings accumulate
// alongside results; they never abort a scan.
type ScanWarning struct {
	// Path is the entry the failure occurred on.
	Path string `json:"path"`

	// Stage is where it happened: "walk", "stat", or "hash".
	Stage string `json:"stage"`

	// Message is the underlying error text.
	Message string `json:"message"`
}

// CategoryStats aggregates file count and bytes for one category.
type CategoryStats struct {
	Files int64 `json:"files"`
	Bytes int64 `json:"bytes"`
}

// Stats summarizes a completed scan.
type Stats struct {
	// TotalFiles is the number of file records produced.
	TotalFiles int64 `json:"total_files"`

	// TotalBytes is the sum of all record sizes.
	TotalBytes int64 `json:"total_bytes"`

	// ByCategory breaks the totals down per category.
	ByCategory map[Category]CategoryStats `json:"by_category"`

	// DuplicateFiles is the number of files that belong to a duplicate
	// group.
	DuplicateFiles int64 `json:"duplicate_files"`

	// DuplicateBytes is the total size of all duplicate group members.
	DuplicateBytes int64 `json:"duplicate_bytes"`
}

// ScanResult is the complete product of one scan session. A new scan
// supersedes the previous result wholesale; results are never patched.
type ScanResult struct {
	// Root is the absolute path the scan started from.
	Root string `json:"root"`

	// Records holds every file record produced, in walk order.
	Records []FileRecord `json:"records"`

	// Groups holds the duplicate groups found among the records.
	Groups []DuplicateGroup `json:"groups"`

	// Warnings holds per-entry failures encountered along the way.
	Warnings []ScanWarning `json:"warnings,omitempty"`

	// Stats summarizes the result.
	Stats Stats `json:"stats"`

	// Cancelled reports that the scan was cancelled and the result is
	// partial. Partial results are valid and presentable.
	Cancelled bool `json:"cancelled,omitempty"`

	// Elapsed is the wall time the scan took.
	Elapsed time.Duration `json:"elapsed"`
}

// ReclaimableBytes returns the bytes freed by deleting every duplicate
// beyond one kept copy per group.
func (r *ScanResult) ReclaimableBytes() int64 {
	var total int64
	for i := range r.Groups {
		total += r.Groups[i].WastedBytes()
	}
	return total
}

// CleanupStatus is the outcome tag for one requested deletion.
type CleanupStatus int

// Cleanup outcome tags.
const (
	// CleanDeleted means the file was removed (or trashed).
	CleanDeleted CleanupStatus = iota
	// CleanBackedUpAndDeleted means a verified backup copy was made
	// before removal.
	CleanBackedUpAndDeleted
	// CleanFailed means the operation failed; the reason says why.
	// Failures are terminal for the invocation, never retried.
	CleanFailed
	// CleanSkipped means the file was deliberately not touched; the
	// reason says why (protected, already-gone, cancelled, ...).
	CleanSkipped
)

// String returns the status name.
func (s CleanupStatus) String() string {
	switch s {
	case CleanDeleted:
		return "deleted"
	case CleanBackedUpAndDeleted:
		return "backed-up-and-deleted"
	case CleanFailed:
		return "failed"
	case CleanSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s CleanupStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CleanupOutcome is the per-path result of a cleanup batch. One outcome
// is produced for every requested path, in request order.
type CleanupOutcome struct {
	// Path is the requested path.
	Path string `json:"path"`

	// Status is the outcome tag.
	Status CleanupStatus `json:"status"`

	// Reason explains Failed and Skipped outcomes.
	Reason string `json:"reason,omitempty"`

	// BytesFreed is the size of the removed file, zero unless deleted.
	BytesFreed int64 `json:"bytes_freed,omitempty"`

	// BackupPath is where the backup copy landed, when one was made.
	BackupPath string `json:"backup_path,omitempty"`
}

// Phase identifies which pipeline stage a progress snapshot refers to.
type Phase int

// Pipeline phases.
const (
	PhaseIdle Phase = iota
	PhaseScanning
	PhaseHashing
	PhaseCleaning
	PhaseDone
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseScanning:
		return "scanning"
	case PhaseHashing:
		return "hashing"
	case PhaseCleaning:
		return "cleaning"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// ProgressSnapshot is an immutable point-in-time view of pipeline
// progress. Totals are -1 while unknown (traversal does not know the
// file count up front).
type ProgressSnapshot struct {
	// Phase is the stage the pipeline is currently in.
	Phase Phase `json:"phase"`

	// Items is the number of items processed in this phase.
	Items int64 `json:"items"`

	// Total is the number of items expected, or -1 if unknown.
	Total int64 `json:"total"`

	// Bytes is the number of bytes processed in this phase.
	Bytes int64 `json:"bytes"`

	// Cancelled reports that cancellation has been requested.
	Cancelled bool `json:"cancelled"`
}

// Summarize computes per-category and total statistics over a record
// set. Duplicate statistics are filled in separately once groups are
// known.
func Summarize(records []FileRecord) Stats {
	stats := Stats{ByCategory: make(map[Category]CategoryStats)}
	for i := range records {
		r := &records[i]
		stats.TotalFiles++
		stats.TotalBytes += r.Size
		cs := stats.ByCategory[r.Category]
		cs.Files++
		cs.Bytes += r.Size
		stats.ByCategory[r.Category] = cs
	}
	return stats
}

// ErrInvalidSize indicates that a size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates a negative size value.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size such as "512", "100K", "50MB",
// or "1.5GiB" into bytes. Suffixes are case-insensitive and use binary
// multipliers. Decimal values are truncated to the nearest byte.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	upper := strings.ToUpper(s)
	upper = strings.TrimSuffix(upper, "IB")
	upper = strings.TrimSuffix(upper, "B")

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(upper, "K"):
		multiplier = KiB
	case strings.HasSuffix(upper, "M"):
		multiplier = MiB
	case strings.HasSuffix(upper, "G"):
		multiplier = GiB
	case strings.HasSuffix(upper, "T"):
		multiplier = TiB
	}
	if multiplier > 1 {
		upper = upper[:len(upper)-1]
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(upper), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize formats bytes with binary (IEC) units, e.g. "1.5 MiB".
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}
