package output

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

// yamlOutput represents the full YAML output structure.
type yamlOutput struct {
	Meta     yamlMeta      `yaml:"meta"`
	Stats    yamlStats     `yaml:"stats"`
	Groups   []yamlGroup   `yaml:"groups"`
	Warnings []yamlWarning `yaml:"warnings,omitempty"`
}

// yamlMeta represents scan metadata in YAML output.
type yamlMeta struct {
	Root        string `yaml:"root"`
	Elapsed     string `yaml:"elapsed"`
	Cancelled   bool   `yaml:"cancelled"`
	Reclaimable int64  `yaml:"reclaimable_bytes"`
}

// yamlStats represents scan statistics in YAML output.
type yamlStats struct {
	TotalFiles     int64                `yaml:"total_files"`
	TotalBytes     int64                `yaml:"total_bytes"`
	ByCategory     map[string]yamlCount `yaml:"by_category"`
	DuplicateFiles int64                `yaml:"duplicate_files"`
	DuplicateBytes int64                `yaml:"duplicate_bytes"`
}

// yamlCount holds a file/byte pair for one category.
type yamlCount struct {
	Files int64 `yaml:"files"`
	Bytes int64 `yaml:"bytes"`
}

// yamlGroup represents a duplicate group in YAML output.
type yamlGroup struct {
	Size        int64    `yaml:"size"`
	SizeHuman   string   `yaml:"size_human"`
	Hash        string   `yaml:"hash"`
	Paths       []string `yaml:"paths"`
	WastedBytes int64    `yaml:"wasted_bytes"`
}

// yamlWarning represents a scan warning in YAML output.
type yamlWarning struct {
	Path    string `yaml:"path"`
	Stage   string `yaml:"stage"`
	Message string `yaml:"message"`
}

// YAMLFormatter formats output as YAML. It produces the same shape as
// JSONFormatter without the per-file record list.
type YAMLFormatter struct{}

// Format writes the formatted result to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *types.ScanResult) error {
	output := f.buildOutput(r)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(output); err != nil {
		return err
	}
	return encoder.Close()
}

// buildOutput converts a ScanResult to the YAML output structure.
func (f *YAMLFormatter) buildOutput(r *types.ScanResult) yamlOutput {
	byCategory := make(map[string]yamlCount, len(r.Stats.ByCategory))
	for cat, cs := range r.Stats.ByCategory {
		byCategory[cat.String()] = yamlCount{Files: cs.Files, Bytes: cs.Bytes}
	}

	groups := make([]yamlGroup, len(r.Groups))
	for i := range r.Groups {
		g := &r.Groups[i]
		groups[i] = yamlGroup{
			Size:        g.Size,
			SizeHuman:   types.FormatSize(g.Size),
			Hash:        formatHash(g.Hash),
			Paths:       g.Paths,
			WastedBytes: g.WastedBytes(),
		}
	}

	warnings := make([]yamlWarning, len(r.Warnings))
	for i, warn := range r.Warnings {
		warnings[i] = yamlWarning{Path: warn.Path, Stage: warn.Stage, Message: warn.Message}
	}

	return yamlOutput{
		Meta: yamlMeta{
			Root:        r.Root,
			Elapsed:     formatDurationString(r.Elapsed),
			Cancelled:   r.Cancelled,
			Reclaimable: r.ReclaimableBytes(),
		},
		Stats: yamlStats{
			TotalFiles:     r.Stats.TotalFiles,
			TotalBytes:     r.Stats.TotalBytes,
			ByCategory:     byCategory,
			DuplicateFiles: r.Stats.DuplicateFiles,
			DuplicateBytes: r.Stats.DuplicateBytes,
		},
		Groups:   groups,
		Warnings: warnings,
	}
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

// Ensure YAMLFormatter implements Formatter.
var _ Formatter = (*YAMLFormatter)(nil)
