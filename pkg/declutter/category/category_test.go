package category

import (
	"testing"

	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		path string
		want types.Category
	}{
		// Directory component rules
		{name: "cache directory", path: "/home/user/.cache/app/data.bin", want: types.CategoryCache},
		{name: "caches directory", path: "/Users/u/Library/Caches/app/x", want: types.CategoryCache},
		{name: "log directory", path: "/var/log/syslog.1", want: types.CategoryLog},
		{name: "logs directory", path: "/srv/app/logs/today.txt", want: types.CategoryLog},
		{name: "tmp directory", path: "/tmp/build/output.o", want: types.CategoryTemporary},
		{name: "trash directory", path: "/home/user/.Trash/old.pdf", want: types.CategoryTemporary},
		{name: "recycle bin", path: `C:\$Recycle.Bin\S-1-5\file.doc`, want: types.CategoryTemporary},

		// Directory rules outrank extension rules
		{name: "media file in cache dir", path: "/home/user/.cache/thumbs/img.png", want: types.CategoryCache},
		{name: "document in log dir", path: "/var/log/report.pdf", want: types.CategoryLog},

		// Base name is not a directory component
		{name: "file named cache", path: "/home/user/cache", want: types.CategoryOther},
		{name: "file named log with ext", path: "/home/user/log.txt", want: types.CategoryDocument},

		// Filename rules
		{name: "editor backup", path: "/home/user/~notes.txt", want: types.CategoryTemporary},
		{name: "lock file", path: "/home/user/.#draft.org", want: types.CategoryTemporary},
		{name: "thumbs db", path: "/mnt/photos/Thumbs.db", want: types.CategoryTemporary},
		{name: "ds store", path: "/Users/u/Documents/.DS_Store", want: types.CategoryTemporary},
		{name: "core dump", path: "/home/user/core.12345", want: types.CategoryTemporary},
		{name: "copy suffix", path: "/home/user/report copy.pdf", want: types.CategoryDuplicateCandidate},
		{name: "numbered copy suffix", path: "/home/user/report copy 2.pdf", want: types.CategoryDuplicateCandidate},
		{name: "parenthesized copy", path: "/home/user/photo (1).jpg", want: types.CategoryDuplicateCandidate},
		{name: "parentheses without digits", path: "/home/user/notes (draft).txt", want: types.CategoryDocument},

		// Extension rules
		{name: "log extension", path: "/home/user/app.log", want: types.CategoryLog},
		{name: "tmp extension", path: "/home/user/upload.tmp", want: types.CategoryTemporary},
		{name: "bak extension", path: "/home/user/db.bak", want: types.CategoryTemporary},
		{name: "pdf document", path: "/home/user/cv.pdf", want: types.CategoryDocument},
		{name: "spreadsheet", path: "/home/user/budget.xlsx", want: types.CategoryDocument},
		{name: "jpeg media", path: "/home/user/photo.JPG", want: types.CategoryMedia},
		{name: "video media", path: "/home/user/clip.mkv", want: types.CategoryMedia},
		{name: "zip archive", path: "/home/user/bundle.zip", want: types.CategoryArchive},
		{name: "tarball", path: "/home/user/src.tar", want: types.CategoryArchive},
		{name: "iso archive", path: "/home/user/distro.iso", want: types.CategoryArchive},
		{name: "shared object", path: "/opt/app/libfoo.so", want: types.CategoryExecutable},
		{name: "windows exe", path: `C:\Users\u\setup.EXE`, want: types.CategoryExecutable},

		// Fallback
		{name: "no rule matches", path: "/home/user/data.xyz", want: types.CategoryOther},
		{name: "no extension", path: "/home/user/README", want: types.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.path, 0); got != tt.want {
				t.Errorf("Categorize(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestCategorizeDeterministic(t *testing.T) {
	paths := []string{
		"/var/log/syslog",
		"/home/user/photo (3).png",
		"/tmp/x.bin",
		"/home/user/whatever",
	}
	for _, path := range paths {
		first := Categorize(path, 0)
		for i := 0; i < 10; i++ {
			if got := Categorize(path, int64(i)); got != first {
				t.Fatalf("Categorize(%q) not stable: %v then %v", path, first, got)
			}
		}
	}
}

func TestIsCopyName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"report copy.pdf", true},
		{"report copy 2.pdf", true},
		{"photo (1).jpg", true},
		{"photo (12).jpg", true},
		{"photo (a).jpg", false},
		{"photo ().jpg", false},
		{"copy.pdf", false},
		{"copycat.txt", false},
		{"plain.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isCopyName(tt.name); got != tt.want {
				t.Errorf("isCopyName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestRulesOrdered(t *testing.T) {
	rules := Rules()
	if len(rules) == 0 {
		t.Fatal("Rules() returned no rules")
	}
	for i, rule := range rules {
		if rule.Order != i {
			t.Errorf("rule %d has Order %d", i, rule.Order)
		}
		switch rule.Kind {
		case "directory", "filename", "extension":
		default:
			t.Errorf("rule %d has unknown kind %q", i, rule.Kind)
		}
	}
	// Directory rules come before filename rules, filename before extension.
	lastKindRank := 0
	ranks := map[string]int{"directory": 0, "filename": 1, "extension": 2}
	for i, rule := range rules {
		rank := ranks[rule.Kind]
		if rank < lastKindRank {
			t.Fatalf("rule %d (%s) out of kind order", i, rule.Kind)
		}
		lastKindRank = rank
	}
}
