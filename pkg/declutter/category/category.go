// Package category assigns a Category to every scanned file from its
// path alone. Classification is an ordered rule table evaluated top to
// bottom: path-component rules first, then filename rules, then
// extension rules, with CategoryOther as the fallback. The first
// matching rule wins, so evaluation is deterministic and needs no
// filesystem access.
package category

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

// dirRules match a lowercase path component exactly. Checked first:
// living inside a cache or log directory outranks any extension.
var dirRules = []struct {
	component string
	category  types.Category
}{
	{"cache", types.CategoryCache},
	{".cache", types.CategoryCache},
	{"caches", types.CategoryCache},
	{"log", types.CategoryLog},
	{"logs", types.CategoryLog},
	{"tmp", types.CategoryTemporary},
	{"temp", types.CategoryTemporary},
	{".trash", types.CategoryTemporary},
	{"$recycle.bin", types.CategoryTemporary},
}

// nameRules match against the lowercase base name.
var nameRules = []struct {
	match    func(name string) bool
	desc     string
	category types.Category
}{
	{func(n string) bool { return strings.HasPrefix(n, "~") }, "editor backup prefix ~", types.CategoryTemporary},
	{func(n string) bool { return strings.HasPrefix(n, ".#") }, "lock file prefix .#", types.CategoryTemporary},
	{func(n string) bool { return n == "thumbs.db" || n == ".ds_store" || n == "desktop.ini" }, "OS metadata droppings", types.CategoryTemporary},
	{func(n string) bool { return strings.HasPrefix(n, "core.") }, "core dump", types.CategoryTemporary},
	{isCopyName, "copy-suffix name, e.g. 'file copy.txt' or 'file (1).txt'", types.CategoryDuplicateCandidate},
}

// extRules map a lowercase extension (with dot) to a category.
var extRules = map[string]types.Category{
	".log": types.CategoryLog,
	".out": types.CategoryLog,
	".err": types.CategoryLog,

	".tmp":  types.CategoryTemporary,
	".temp": types.CategoryTemporary,
	".bak":  types.CategoryTemporary,
	".old":  types.CategoryTemporary,
	".swp":  types.CategoryTemporary,

	".cache": types.CategoryCache,

	".txt":  types.CategoryDocument,
	".md":   types.CategoryDocument,
	".pdf":  types.CategoryDocument,
	".doc":  types.CategoryDocument,
	".docx": types.CategoryDocument,
	".xls":  types.CategoryDocument,
	".xlsx": types.CategoryDocument,
	".ppt":  types.CategoryDocument,
	".pptx": types.CategoryDocument,
	".odt":  types.CategoryDocument,
	".rtf":  types.CategoryDocument,
	".csv":  types.CategoryDocument,

	".jpg":  types.CategoryMedia,
	".jpeg": types.CategoryMedia,
	".png":  types.CategoryMedia,
	".gif":  types.CategoryMedia,
	".bmp":  types.CategoryMedia,
	".svg":  types.CategoryMedia,
	".heic": types.CategoryMedia,
	".mp3":  types.CategoryMedia,
	".flac": types.CategoryMedia,
	".wav":  types.CategoryMedia,
	".mp4":  types.CategoryMedia,
	".mkv":  types.CategoryMedia,
	".avi":  types.CategoryMedia,
	".mov":  types.CategoryMedia,
	".webm": types.CategoryMedia,

	".zip": types.CategoryArchive,
	".tar": types.CategoryArchive,
	".gz":  types.CategoryArchive,
	".tgz": types.CategoryArchive,
	".bz2": types.CategoryArchive,
	".xz":  types.CategoryArchive,
	".7z":  types.CategoryArchive,
	".rar": types.CategoryArchive,
	".iso": types.CategoryArchive,

	".exe":   types.CategoryExecutable,
	".dll":   types.CategoryExecutable,
	".so":    types.CategoryExecutable,
	".dylib": types.CategoryExecutable,
	".bin":   types.CategoryExecutable,
	".app":   types.CategoryExecutable,
	".msi":   types.CategoryExecutable,
	".deb":   types.CategoryExecutable,
	".rpm":   types.CategoryExecutable,
}

// Categorize maps a file path and size to its category. It is pure and
// total: the same input always yields the same single category, and no
// input fails. Size is accepted for interface completeness; no current
// rule depends on it.
func Categorize(path string, _ int64) types.Category {
	// Both separators are normalized so Windows-style paths categorize
	// the same everywhere.
	lower := strings.ToLower(strings.ReplaceAll(filepath.ToSlash(path), `\`, "/"))
	name := lower
	if i := strings.LastIndexByte(lower, '/'); i >= 0 {
		name = lower[i+1:]
	}

	// 1. Path components, outermost first.
	components := strings.Split(lower, "/")
	if len(components) > 0 {
		// The base name is matched by name and extension rules, not as
		// a directory component.
		components = components[:len(components)-1]
	}
	for _, comp := range components {
		for _, rule := range dirRules {
			if comp == rule.component {
				return rule.category
			}
		}
	}

	// 2. Base name.
	for _, rule := range nameRules {
		if rule.match(name) {
			return rule.category
		}
	}

	// 3. Extension.
	if c, ok := extRules[filepath.Ext(name)]; ok {
		return c
	}

	return types.CategoryOther
}

// isCopyName reports whether a base name looks like a duplicated copy:
// "name copy.ext", "name copy 2.ext", or "name (1).ext".
func isCopyName(name string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if strings.HasSuffix(stem, " copy") || strings.Contains(stem, " copy ") {
		return true
	}
	if i := strings.LastIndex(stem, " ("); i >= 0 && strings.HasSuffix(stem, ")") {
		digits := stem[i+2 : len(stem)-1]
		if digits != "" {
			for _, r := range digits {
				if r < '0' || r > '9' {
					return false
				}
			}
			return true
		}
	}
	return false
}

// Rule describes one entry of the categorization table for display.
type Rule struct {
	// Order is the evaluation position, lower wins.
	Order int
	// Kind is "directory", "filename", or "extension".
	Kind string
	// Pattern is a human-readable description of what matches.
	Pattern string
	// Category is the assigned category.
	Category types.Category
}

// Rules returns the full rule table in evaluation order. It is intended
// for display ("declutter config rules"); Categorize does not use it.
func Rules() []Rule {
	var rules []Rule
	order := 0
	for _, r := range dirRules {
		rules = append(rules, Rule{Order: order, Kind: "directory", Pattern: r.component, Category: r.category})
		order++
	}
	for _, r := range nameRules {
		rules = append(rules, Rule{Order: order, Kind: "filename", Pattern: r.desc, Category: r.category})
		order++
	}
	for _, ext := range sortedExtensions() {
		rules = append(rules, Rule{Order: order, Kind: "extension", Pattern: ext, Category: extRules[ext]})
		order++
	}
	return rules
}

func sortedExtensions() []string {
	exts := make([]string, 0, len(extRules))
	for ext := range extRules {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
