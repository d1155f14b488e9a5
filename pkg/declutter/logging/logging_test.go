package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{input: "debug", want: LevelDebug},
		{input: "info", want: LevelInfo},
		{input: "INFO", want: LevelInfo},
		{input: "warn", want: LevelWarn},
		{input: "warning", want: LevelWarn},
		{input: "error", want: LevelError},
		{input: "", want: LevelInfo},
		{input: "trace", wantErr: true},
		{input: "nonsense", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLevel) {
					t.Errorf("ParseLevel(%q) error = %v, want ErrInvalidLevel", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetBeforeInitDiscards(t *testing.T) {
	// Must not panic or write anywhere before Init.
	logger := Get("uninitialized-component")
	logger.Info("dropped on the floor")
	logger.With("key", "value").Debug("also dropped")
}

func TestInitAndLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	if err := Init(Config{Level: "debug", Path: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer func() { _ = Close() }()

	logger := Get("testcomp")
	logger.Info("hello from test", "answer", 42)

	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "hello from test") {
		t.Errorf("log file missing message: %q", out)
	}
	if !strings.Contains(out, "testcomp") {
		t.Errorf("log file missing component prefix: %q", out)
	}
}

func TestInitComponentOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	err := Init(Config{
		Level:      "error",
		Path:       path,
		Components: map[string]string{"chatty": "debug"},
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer func() { _ = Close() }()

	Get("chatty").Debug("verbose line")
	Get("quiet").Info("suppressed line")

	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "verbose line") {
		t.Errorf("debug override not applied: %q", out)
	}
	if strings.Contains(out, "suppressed line") {
		t.Errorf("info line written despite error level: %q", out)
	}
}

func TestInitRejectsBadLevel(t *testing.T) {
	err := Init(Config{Level: "loud", Path: filepath.Join(t.TempDir(), "x.log")})
	if !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("Init error = %v, want ErrInvalidLevel", err)
	}
}

func TestRotatingWriterRotatesBySize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 64})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer func() { _ = w.Close() }()

	line := []byte(strings.Repeat("x", 30) + "\n")
	for i := 0; i < 4; i++ {
		if _, err := w.Write(line); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) < 2 {
		t.Errorf("expected rotated files, found %d entries", len(entries))
	}

	// The active file never exceeds the cap.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() > 64 {
		t.Errorf("active log file size %d exceeds cap", info.Size())
	}
}

func TestRotatingWriterPrunesBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	// Pre-seed rotated files that look like prior rotations.
	for _, stamp := range []string{"2026-01-01-000000", "2026-01-02-000000", "2026-01-03-000000"} {
		name := filepath.Join(dir, "app."+stamp+".log")
		if err := os.WriteFile(name, []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 1024, MaxBackups: 1})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer func() { _ = w.Close() }()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	// One active file plus at most MaxBackups rotated files.
	if len(entries) > 2 {
		t.Errorf("prune kept %d entries, want at most 2", len(entries))
	}
}

func TestDefaultRotationConfig(t *testing.T) {
	cfg := DefaultRotationConfig()
	if cfg.MaxSize != 10*1024*1024 {
		t.Errorf("MaxSize = %d", cfg.MaxSize)
	}
	if cfg.MaxBackups != 5 || cfg.MaxAge != 30 || !cfg.Daily {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
