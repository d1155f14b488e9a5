package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

// maxGroupsShown caps the duplicate groups printed by the table view.
// The full set is always available via the json and yaml formatters.
const maxGroupsShown = 20

// TableFormatter renders a human-readable summary: per-category totals
// followed by the largest duplicate groups.
type TableFormatter struct{}

// Format writes the formatted result to the buffer.
func (f *TableFormatter) Format(w *bytes.Buffer, r *types.ScanResult) error {
	fmt.Fprintf(w, "Scanned %s: %s files, %s",
		r.Root,
		humanize.Comma(r.Stats.TotalFiles),
		types.FormatSize(r.Stats.TotalBytes))
	if r.Cancelled {
		w.WriteString(" (cancelled, partial)")
	}
	fmt.Fprintf(w, " in %s\n\n", r.Elapsed.Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tFILES\tSIZE")
	for _, cat := range types.Categories() {
		cs, ok := r.Stats.ByCategory[cat]
		if !ok || cs.Files == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", cat, cs.Files, types.FormatSize(cs.Bytes))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Groups) == 0 {
		w.WriteString("\nNo duplicates found.\n")
	} else {
		fmt.Fprintf(w, "\nDuplicate groups: %d, reclaimable: %s\n",
			len(r.Groups), types.FormatSize(r.ReclaimableBytes()))
		shown := len(r.Groups)
		if shown > maxGroupsShown {
			shown = maxGroupsShown
		}
		for _, g := range r.Groups[:shown] {
			fmt.Fprintf(w, "\n  %s x%d (wasted %s)\n",
				types.FormatSize(g.Size), len(g.Paths), types.FormatSize(g.WastedBytes()))
			for _, p := range g.Paths {
				fmt.Fprintf(w, "    %s\n", p)
			}
		}
		if shown < len(r.Groups) {
			fmt.Fprintf(w, "\n  ... and %d more groups\n", len(r.Groups)-shown)
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings: %d (see json output for details)\n", len(r.Warnings))
	}
	return nil
}

func init() {
	Register("table", func() Formatter {
		return &TableFormatter{}
	})
}

// Ensure TableFormatter implements Formatter.
var _ Formatter = (*TableFormatter)(nil)
