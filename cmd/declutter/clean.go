package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/declutter/pkg/declutter/session"
	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Delete junk or duplicate files under a directory",
	Long: `Clean scans a directory, selects files by the given criteria, and
deletes them with per-file outcome reporting.

Selection flags combine: --duplicates removes every redundant copy in
each duplicate group (the lexically first path is kept), --category
removes all files of the named categories.

Safe mode (on by default) refuses to touch protected system paths and
anything outside the scanned directory. Use --dry-run to preview.

Examples:
  declutter clean --duplicates ~/Downloads
  declutter clean --category log,temporary /var/tmp
  declutter clean --duplicates --dry-run .
  declutter clean --duplicates --backup ~/Downloads`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().Bool("duplicates", false, "delete redundant duplicate copies")
	cleanCmd.Flags().StringSlice("category", nil, "delete all files of these categories")
	cleanCmd.Flags().Bool("dry-run", false, "preview what would be deleted")
	cleanCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	cleanCmd.Flags().Bool("trash", false, "move files to the system trash instead of deleting")
	cleanCmd.Flags().Bool("backup", false, "copy files to the backup directory before deleting")
	cleanCmd.Flags().Bool("no-safe-mode", false, "disable protected-path checks")

	_ = viper.BindPFlag("clean.use_trash", cleanCmd.Flags().Lookup("trash"))
	_ = viper.BindPFlag("clean.backup_before_delete", cleanCmd.Flags().Lookup("backup"))

	rootCmd.AddCommand(cleanCmd)
}

// runClean scans and then deletes the selected files.
func runClean(cmd *cobra.Command, args []string) error {
	absPath, err := resolvePath(args)
	if err != nil {
		return err
	}

	if err := initLogging(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg := buildConfig()
	if noSafe, _ := cmd.Flags().GetBool("no-safe-mode"); noSafe {
		cfg.Clean.SafeMode = false
	}

	wantDuplicates, _ := cmd.Flags().GetBool("duplicates")
	categoryNames, _ := cmd.Flags().GetStringSlice("category")
	if !wantDuplicates && len(categoryNames) == 0 {
		return fmt.Errorf("nothing selected: use --duplicates and/or --category")
	}

	categories, err := parseCategories(categoryNames)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, err := session.Start(ctx, session.Options{Root: absPath, Config: cfg})
	if err != nil {
		return fmt.Errorf("failed to start scan: %w", err)
	}
	defer func() { _ = sess.Close() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		printInfo("\nInterrupted, stopping...")
		sess.Cancel()
	}()

	printInfo("Scanning %s...", absPath)
	if err := sess.Wait(ctx); err != nil {
		return err
	}

	result, err := sess.Results()
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if result.Cancelled {
		printInfo("Scan cancelled, nothing deleted.")
		return nil
	}

	targets := selectTargets(result, wantDuplicates, categories)
	if len(targets) == 0 {
		printInfo("Nothing to clean.")
		return nil
	}

	estimate := sess.EstimateBytes(targets)
	printInfo("Selected %d files, %s reclaimable.", len(targets), types.FormatSize(estimate))

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		for _, path := range targets {
			fmt.Printf("  would delete %s\n", path)
		}
		return nil
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		if !confirm(fmt.Sprintf("Delete %d files?", len(targets))) {
			printInfo("Aborted.")
			return nil
		}
	}

	outcomes, err := sess.Clean(ctx, targets)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	reportOutcomes(outcomes)
	return nil
}

// selectTargets picks the paths to delete: redundant duplicate copies
// (keeping the first path of each group) and whole categories.
func selectTargets(result *types.ScanResult, duplicates bool, categories map[types.Category]bool) []string {
	seen := make(map[string]bool)
	var targets []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			targets = append(targets, path)
		}
	}

	if duplicates {
		for i := range result.Groups {
			// Paths are sorted; the first is the kept copy.
			for _, path := range result.Groups[i].Paths[1:] {
				add(path)
			}
		}
	}

	if len(categories) > 0 {
		for i := range result.Records {
			if categories[result.Records[i].Category] {
				add(result.Records[i].Path)
			}
		}
	}
	return targets
}

// parseCategories validates category names from the flag.
func parseCategories(names []string) (map[types.Category]bool, error) {
	out := make(map[types.Category]bool, len(names))
	for _, name := range names {
		cat, err := types.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		out[cat] = true
	}
	return out, nil
}

// reportOutcomes summarizes a cleanup batch on stdout.
func reportOutcomes(outcomes []types.CleanupOutcome) {
	var deleted, failed, skipped int
	var freed int64
	for i := range outcomes {
		o := &outcomes[i]
		switch o.Status {
		case types.CleanDeleted, types.CleanBackedUpAndDeleted:
			deleted++
			freed += o.BytesFreed
		case types.CleanFailed:
			failed++
			printError("%s: %s", o.Path, o.Reason)
		case types.CleanSkipped:
			skipped++
			printVerbose("skipped %s: %s", o.Path, o.Reason)
		}
	}
	printInfo("Deleted %d files (%s freed), %d failed, %d skipped.",
		deleted, types.FormatSize(freed), failed, skipped)
}

// confirm asks a yes/no question on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
