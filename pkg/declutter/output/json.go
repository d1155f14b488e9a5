package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Meta     jsonMeta            `json:"meta"`
	Stats    types.Stats         `json:"stats"`
	Groups   []jsonGroup         `json:"groups"`
	Records  []types.FileRecord  `json:"records,omitempty"`
	Warnings []types.ScanWarning `json:"warnings,omitempty"`
}

// jsonMeta represents scan metadata in JSON output.
type jsonMeta struct {
	Root        string `json:"root"`
	Elapsed     string `json:"elapsed"`
	Cancelled   bool   `json:"cancelled"`
	Reclaimable int64  `json:"reclaimable_bytes"`
}

// jsonGroup represents a duplicate group in JSON output.
type jsonGroup struct {
	Size        int64    `json:"size"`
	SizeHuman   string   `json:"size_human"`
	Hash        string   `json:"hash"`
	Paths       []string `json:"paths"`
	WastedBytes int64    `json:"wasted_bytes"`
}

// JSONFormatter formats output as a single indented JSON object.
type JSONFormatter struct {
	// IncludeRecords also emits every file record, not just the
	// summary and groups.
	IncludeRecords bool
}

// Format writes the formatted result to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *types.ScanResult) error {
	output := f.buildOutput(r)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// buildOutput converts a ScanResult to the JSON output structure.
func (f *JSONFormatter) buildOutput(r *types.ScanResult) jsonOutput {
	groups := make([]jsonGroup, len(r.Groups))
	for i := range r.Groups {
		g := &r.Groups[i]
		groups[i] = jsonGroup{
			Size:        g.Size,
			SizeHuman:   types.FormatSize(g.Size),
			Hash:        formatHash(g.Hash),
			Paths:       g.Paths,
			WastedBytes: g.WastedBytes(),
		}
	}

	out := jsonOutput{
		Meta: jsonMeta{
			Root:        r.Root,
			Elapsed:     formatDurationString(r.Elapsed),
			Cancelled:   r.Cancelled,
			Reclaimable: r.ReclaimableBytes(),
		},
		Stats:    r.Stats,
		Groups:   groups,
		Warnings: r.Warnings,
	}
	if f.IncludeRecords {
		out.Records = r.Records
	}
	return out
}

// formatHash renders a content hash as fixed-width hex.
func formatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// formatDurationString formats a duration as a string for output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{IncludeRecords: true}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
