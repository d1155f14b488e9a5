package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/declutter/pkg/declutter/config"
	"github.com/jamesainslie/declutter/pkg/declutter/manifest"
	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	Long: `View the history of scan and cleanup operations.

The manifest stores a record of every scan and deletion performed by
declutter.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show details of a specific operation",
	Long:  `Display detailed information about a specific operation by its ID.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getJournal returns a journal for the configured manifest directory.
func getJournal() (*manifest.Journal, error) {
	cfg, err := config.Load()
	if err != nil || cfg.Manifest.Path == "" {
		return manifest.Open(manifest.DefaultDir())
	}
	return manifest.Open(cfg.Manifest.Path)
}

// runHistory lists recent operations.
func runHistory(cmd *cobra.Command, args []string) error {
	journal, err := getJournal()
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}

	entries, err := journal.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'declutter [path]' to scan a directory.")
		return nil
	}

	fmt.Printf("\n%-55s  %-6s  %-10s  %-12s\n", "ID", "KIND", "FILES", "SIZE")
	fmt.Println(strings.Repeat("-", 90))

	for _, entry := range entries {
		files, size := entrySummary(&entry)
		fmt.Printf("%-55s  %-6s  %-10d  %-12s\n",
			truncateString(entry.ID, 55),
			entry.Kind,
			files,
			types.FormatSize(size),
		)
	}

	fmt.Println(strings.Repeat("-", 90))
	fmt.Printf("\nShowing %d entries. Use --limit to see more.\n", len(entries))
	fmt.Println("Use 'declutter history show <id>' for details on a specific entry.")
	return nil
}

// entrySummary returns the file count and byte total for one entry.
func entrySummary(entry *manifest.Entry) (int64, int64) {
	if entry.Kind == manifest.KindScan {
		return entry.Stats.TotalFiles, entry.Stats.TotalBytes
	}
	return int64(len(entry.Outcomes)), entry.BytesFreed
}

// runHistoryShow displays details of a specific operation.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	journal, err := getJournal()
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}

	entry, err := journal.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	fmt.Println("\nOperation Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:         %s\n", entry.ID)
	fmt.Printf("Timestamp:  %s\n", entry.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Kind:       %s\n", entry.Kind)

	switch entry.Kind {
	case manifest.KindScan:
		fmt.Printf("Root:       %s\n", entry.Root)
		fmt.Printf("Files:      %d\n", entry.Stats.TotalFiles)
		fmt.Printf("Total Size: %s\n", types.FormatSize(entry.Stats.TotalBytes))
		fmt.Printf("Groups:     %d\n", entry.Groups)
		fmt.Printf("Warnings:   %d\n", entry.Warnings)
		if entry.Cancelled {
			fmt.Println("Cancelled:  yes (partial result)")
		}
	case manifest.KindClean:
		fmt.Printf("Files:      %d\n", len(entry.Outcomes))
		fmt.Printf("Freed:      %s\n", types.FormatSize(entry.BytesFreed))

		if len(entry.Outcomes) > 0 {
			fmt.Println("\nOutcomes:")
			fmt.Println(strings.Repeat("-", 60))

			limit := 50
			if len(entry.Outcomes) < limit {
				limit = len(entry.Outcomes)
			}
			for i := 0; i < limit; i++ {
				o := entry.Outcomes[i]
				line := fmt.Sprintf("%-22s  %s", o.Status, o.Path)
				if o.Reason != "" {
					line += " (" + o.Reason + ")"
				}
				fmt.Println(line)
			}
			if len(entry.Outcomes) > limit {
				fmt.Printf("\n... and %d more files\n", len(entry.Outcomes)-limit)
			}
		}
	}
	return nil
}

// runHistoryClean removes old history entries.
func runHistoryClean(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	journal, err := getJournal()
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}

	retentionDays := cfg.Manifest.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)

	if err := journal.Prune(retentionDays); err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("History cleanup complete.")
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
