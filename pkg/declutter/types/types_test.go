package types

import (
	"errors"
	"testing"
	"time"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		// Basic byte values
		{name: "plain bytes", input: "1024", want: 1024},
		{name: "zero bytes", input: "0", want: 0},
		{name: "bytes with B suffix", input: "512B", want: 512},
		{name: "bytes with lowercase b", input: "512b", want: 512},

		// Kilobytes
		{name: "kilobytes uppercase", input: "100K", want: 100 * KiB},
		{name: "kilobytes lowercase", input: "100k", want: 100 * KiB},
		{name: "kilobytes with B", input: "100KB", want: 100 * KiB},
		{name: "kilobytes with iB", input: "100KiB", want: 100 * KiB},

		// Megabytes
		{name: "megabytes uppercase", input: "50M", want: 50 * MiB},
		{name: "megabytes with B", input: "50MB", want: 50 * MiB},
		{name: "megabytes with iB", input: "50MiB", want: 50 * MiB},

		// Gigabytes and terabytes
		{name: "gigabytes", input: "2G", want: 2 * GiB},
		{name: "gigabytes with iB", input: "2GiB", want: 2 * GiB},
		{name: "terabytes", input: "1T", want: TiB},
		{name: "terabytes with B", input: "1TB", want: TiB},

		// Whitespace handling
		{name: "leading whitespace", input: "  100M", want: 100 * MiB},
		{name: "trailing whitespace", input: "100M  ", want: 100 * MiB},

		// Decimal values truncate
		{name: "decimal gigabytes", input: "1.5G", want: 1610612736},

		// Error cases
		{name: "empty string", input: "", wantErr: true},
		{name: "only whitespace", input: "   ", wantErr: true},
		{name: "invalid suffix", input: "100X", wantErr: true},
		{name: "negative value", input: "-100M", wantErr: true},
		{name: "letters only", input: "abc", wantErr: true},
		{name: "suffix only", input: "M", wantErr: true},
		{name: "trailing garbage", input: "100M100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSize(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSize(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSizeNegativeError(t *testing.T) {
	_, err := ParseSize("-5")
	if !errors.Is(err, ErrNegativeSize) {
		t.Errorf("ParseSize(-5) error = %v, want ErrNegativeSize", err)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{KiB, "1.0 KiB"},
		{1536 * KiB, "1.5 MiB"},
		{GiB, "1.0 GiB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestCategoryRoundTrip(t *testing.T) {
	for _, cat := range Categories() {
		parsed, err := ParseCategory(cat.String())
		if err != nil {
			t.Fatalf("ParseCategory(%q) unexpected error: %v", cat.String(), err)
		}
		if parsed != cat {
			t.Errorf("ParseCategory(%q) = %v, want %v", cat.String(), parsed, cat)
		}
	}
}

func TestParseCategoryUnknown(t *testing.T) {
	_, err := ParseCategory("nonsense")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("ParseCategory(nonsense) error = %v, want ErrUnknownCategory", err)
	}
}

func TestDuplicateGroupWastedBytes(t *testing.T) {
	tests := []struct {
		name  string
		group DuplicateGroup
		want  int64
	}{
		{name: "two members", group: DuplicateGroup{Size: 100, Paths: []string{"a", "b"}}, want: 100},
		{name: "three members", group: DuplicateGroup{Size: 100, Paths: []string{"a", "b", "c"}}, want: 200},
		{name: "single member", group: DuplicateGroup{Size: 100, Paths: []string{"a"}}, want: 0},
		{name: "empty", group: DuplicateGroup{Size: 100}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.group.WastedBytes(); got != tt.want {
				t.Errorf("WastedBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	now := time.Now()
	records := []FileRecord{
		{Path: "/a.log", Size: 10, ModTime: now, Category: CategoryLog},
		{Path: "/b.log", Size: 20, ModTime: now, Category: CategoryLog},
		{Path: "/c.txt", Size: 5, ModTime: now, Category: CategoryDocument},
	}

	stats := Summarize(records)
	if stats.TotalFiles != 3 {
		t.Errorf("TotalFiles = %d, want 3", stats.TotalFiles)
	}
	if stats.TotalBytes != 35 {
		t.Errorf("TotalBytes = %d, want 35", stats.TotalBytes)
	}
	if got := stats.ByCategory[CategoryLog]; got.Files != 2 || got.Bytes != 30 {
		t.Errorf("log category = %+v, want 2 files, 30 bytes", got)
	}
	if got := stats.ByCategory[CategoryDocument]; got.Files != 1 || got.Bytes != 5 {
		t.Errorf("document category = %+v, want 1 file, 5 bytes", got)
	}
}

func TestScanResultReclaimableBytes(t *testing.T) {
	result := ScanResult{
		Groups: []DuplicateGroup{
			{Size: 100, Paths: []string{"a", "b"}},
			{Size: 50, Paths: []string{"c", "d", "e"}},
		},
	}
	if got := result.ReclaimableBytes(); got != 200 {
		t.Errorf("ReclaimableBytes() = %d, want 200", got)
	}
}

func TestCleanupStatusString(t *testing.T) {
	tests := []struct {
		status CleanupStatus
		want   string
	}{
		{CleanDeleted, "deleted"},
		{CleanBackedUpAndDeleted, "backed-up-and-deleted"},
		{CleanFailed, "failed"},
		{CleanSkipped, "skipped"},
		{CleanupStatus(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("CleanupStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseIdle, "idle"},
		{PhaseScanning, "scanning"},
		{PhaseHashing, "hashing"},
		{PhaseCleaning, "cleaning"},
		{PhaseDone, "done"},
		{Phase(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}
