// Package cleaner deletes files selected from a scan and reports a
// per-path outcome for every requested path.
//
// Deletion is deliberately sequential and per-path independent: a
// failure on one path never aborts the batch, and running the same
// batch twice yields "skipped: already-gone" for everything removed the
// first time. Safe mode refuses to touch protected system prefixes and
// anything outside the scanned root.
package cleaner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jamesainslie/declutter/pkg/declutter/logging"
	"github.com/jamesainslie/declutter/pkg/declutter/progress"
	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

// Skip and failure reasons reported in CleanupOutcome.Reason.
const (
	ReasonProtected    = "protected"
	ReasonOutsideRoot  = "outside-scan-root"
	ReasonAlreadyGone  = "already-gone"
	ReasonBackupFailed = "backup-failed"
	ReasonCancelled    = "cancelled"
	ReasonNotRegular   = "not-a-regular-file"
)

// DefaultProtected lists path prefixes safe mode never deletes under,
// regardless of where the scan ran.
var DefaultProtected = []string{
	"/bin", "/sbin", "/usr/bin", "/usr/sbin", "/usr/lib",
	"/etc", "/boot", "/proc", "/sys", "/dev",
	"/System", "/Library", "/Applications",
	`C:\Windows`, `C:\Program Files`,
}

// Options configures a Cleaner.
type Options struct {
	// SafeMode refuses deletion under protected prefixes and outside
	// ScanRoot.
	SafeMode bool

	// ScanRoot is the root of the scan the paths came from. Only
	// consulted in safe mode.
	ScanRoot string

	// Protected overrides DefaultProtected when non-nil.
	Protected []string

	// BackupBeforeDelete copies each file into BackupDir and verifies
	// the copy before removing the original.
	BackupBeforeDelete bool

	// BackupDir receives backup copies. Required when
	// BackupBeforeDelete is set.
	BackupDir string

	// UseTrash moves files to the system trash instead of unlinking.
	// Ignored when BackupBeforeDelete is set.
	UseTrash bool

	// Tracker receives cleaning progress. Required.
	Tracker *progress.Tracker
}

// Cleaner executes deletion batches.
type Cleaner struct {
	opts      Options
	protected []string
	log       *logging.Logger
}

// New creates a Cleaner.
func New(opts Options) *Cleaner {
	protected := opts.Protected
	if protected == nil {
		protected = DefaultProtected
	}
	return &Cleaner{opts: opts, protected: protected, log: logging.Get("cleaner")}
}

// Clean processes every path in request order and returns one outcome
// per path. Cancellation between paths marks the remainder skipped;
// nothing is ever retried within a batch.
func (c *Cleaner) Clean(ctx context.Context, paths []string) []types.CleanupOutcome {
	c.opts.Tracker.SetPhase(types.PhaseCleaning)
	c.opts.Tracker.SetTotal(types.PhaseCleaning, int64(len(paths)))

	outcomes := make([]types.CleanupOutcome, 0, len(paths))
	cancelled := false

	for _, path := range paths {
		if !cancelled {
			select {
			case <-ctx.Done():
				cancelled = true
			default:
			}
			if c.opts.Tracker.Cancelled() {
				cancelled = true
			}
		}
		if cancelled {
			outcomes = append(outcomes, types.CleanupOutcome{
				Path:   path,
				Status: types.CleanSkipped,
				Reason: ReasonCancelled,
			})
			continue
		}

		outcome := c.cleanOne(path)
		c.opts.Tracker.Advance(types.PhaseCleaning, 1, outcome.BytesFreed)
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

// EstimateBytes returns the total size of the paths that currently
// exist, without touching any of them.
func (c *Cleaner) EstimateBytes(paths []string) int64 {
	var total int64
	for _, path := range paths {
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		total += info.Size()
	}
	return total
}

func (c *Cleaner) cleanOne(path string) types.CleanupOutcome {
	if c.opts.SafeMode {
		if reason := c.refuse(path); reason != "" {
			c.log.Warn("refusing path", "path", path, "reason", reason)
			return types.CleanupOutcome{Path: path, Status: types.CleanSkipped, Reason: reason}
		}
	}

	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.CleanupOutcome{Path: path, Status: types.CleanSkipped, Reason: ReasonAlreadyGone}
		}
		return types.CleanupOutcome{Path: path, Status: types.CleanFailed, Reason: err.Error()}
	}
	if info.IsDir() {
		return types.CleanupOutcome{Path: path, Status: types.CleanSkipped, Reason: ReasonNotRegular}
	}
	size := info.Size()

	if c.opts.BackupBeforeDelete {
		backupPath, err := c.backup(path, size)
		if err != nil {
			c.log.Error("backup failed", "path", path, "error", err)
			return types.CleanupOutcome{Path: path, Status: types.CleanFailed, Reason: ReasonBackupFailed}
		}
		if err := os.Remove(path); err != nil {
			return types.CleanupOutcome{Path: path, Status: types.CleanFailed, Reason: err.Error()}
		}
		c.log.Info("backed up and deleted", "path", path, "backup", backupPath, "size", size)
		return types.CleanupOutcome{
			Path:       path,
			Status:     types.CleanBackedUpAndDeleted,
			BytesFreed: size,
			BackupPath: backupPath,
		}
	}

	if c.opts.UseTrash {
		if err := moveToTrash(path); err != nil {
			return types.CleanupOutcome{Path: path, Status: types.CleanFailed, Reason: err.Error()}
		}
	} else if err := os.Remove(path); err != nil {
		return types.CleanupOutcome{Path: path, Status: types.CleanFailed, Reason: err.Error()}
	}

	c.log.Info("deleted", "path", path, "size", size, "trash", c.opts.UseTrash)
	return types.CleanupOutcome{Path: path, Status: types.CleanDeleted, BytesFreed: size}
}

// refuse returns a non-empty skip reason when safe mode forbids
// touching the path.
func (c *Cleaner) refuse(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, prefix := range c.protected {
		if underPrefix(abs, prefix) {
			return ReasonProtected
		}
	}
	if c.opts.ScanRoot != "" && !underPrefix(abs, c.opts.ScanRoot) {
		return ReasonOutsideRoot
	}
	return ""
}

// underPrefix reports whether path is prefix itself or inside it.
// Component-aware, so /binx is not under /bin.
func underPrefix(path, prefix string) bool {
	prefix = filepath.Clean(prefix)
	path = filepath.Clean(path)
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(filepath.Separator))
}

// backup copies path into BackupDir under a collision-free name and
// verifies the copy's size before reporting success. The original is
// never modified here.
func (c *Cleaner) backup(path string, size int64) (string, error) {
	if c.opts.BackupDir == "" {
		return "", fmt.Errorf("backup directory not configured")
	}
	if err := os.MkdirAll(c.opts.BackupDir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	name := fmt.Sprintf("%s.%s", filepath.Base(path), uuid.NewString())
	backupPath := filepath.Join(c.opts.BackupDir, name)

	if err := copyFile(path, backupPath); err != nil {
		_ = os.Remove(backupPath)
		return "", err
	}

	info, err := os.Stat(backupPath)
	if err != nil {
		_ = os.Remove(backupPath)
		return "", fmt.Errorf("verifying backup: %w", err)
	}
	if info.Size() != size {
		_ = os.Remove(backupPath)
		return "", fmt.Errorf("backup size mismatch: got %d, want %d", info.Size(), size)
	}

	return backupPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating backup file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying: %w", err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return fmt.Errorf("syncing backup: %w", err)
	}
	return out.Close()
}
