package cleaner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// trashTimeout is the maximum time to wait for system trash commands.
const trashTimeout = 30 * time.Second

// moveToTrash moves a file to the system trash, falling back to
// permanent deletion when no trash facility is available.
// On macOS Finder handles the move so "Put Back" works; on Linux it
// tries gio, then trash-cli.
func moveToTrash(path string) error {
	if _, err := os.Lstat(path); err != nil {
		return fmt.Errorf("cannot trash %q: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path for %q: %w", path, err)
	}

	switch runtime.GOOS {
	case "darwin":
		return trashMacOS(absPath)
	case "linux":
		return trashLinux(absPath)
	default:
		return removePermanently(absPath)
	}
}

func trashMacOS(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), trashTimeout)
	defer cancel()

	script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %q`, path)
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	if err := cmd.Run(); err != nil {
		return removePermanently(path)
	}
	return nil
}

func trashLinux(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), trashTimeout)
	defer cancel()

	if gioPath, err := exec.LookPath("gio"); err == nil {
		cmd := exec.CommandContext(ctx, gioPath, "trash", path)
		if err := cmd.Run(); err == nil {
			return nil
		}
	}

	if trashPath, err := exec.LookPath("trash-put"); err == nil {
		cmd := exec.CommandContext(ctx, trashPath, path)
		if err := cmd.Run(); err == nil {
			return nil
		}
	}

	return removePermanently(path)
}

func removePermanently(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting %q: %w", path, err)
	}
	return nil
}
