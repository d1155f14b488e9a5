package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/declutter/cmd/declutter/tui"
	"github.com/jamesainslie/declutter/pkg/declutter/config"
	"github.com/jamesainslie/declutter/pkg/declutter/output"
	"github.com/jamesainslie/declutter/pkg/declutter/session"
	"github.com/jamesainslie/declutter/pkg/declutter/types"
)

// pollInterval is how often the non-interactive scan reports progress.
const pollInterval = 500 * time.Millisecond

// runScan is the main scan command handler.
func runScan(_ *cobra.Command, args []string) error {
	absPath, err := resolvePath(args)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", absPath)
		}
		return fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", absPath)
	}

	if err := initLogging(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg := buildConfig()

	// An explicit non-table format implies non-interactive output.
	noInteractive := viper.GetBool("no_interactive")
	outFormat := viper.GetString("output")
	if outFormat != "" && outFormat != "table" {
		noInteractive = true
	}

	if noInteractive {
		return runNonInteractiveScan(absPath, cfg, outFormat)
	}
	return runInteractiveScan(absPath, cfg)
}

// runInteractiveScan drives the scan through the live progress view and
// prints the summary afterwards.
func runInteractiveScan(absPath string, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, err := session.Start(ctx, session.Options{Root: absPath, Config: cfg})
	if err != nil {
		return fmt.Errorf("failed to start scan: %w", err)
	}
	defer func() { _ = sess.Close() }()

	if err := tui.Run(tui.Options{Session: sess, Root: absPath}); err != nil {
		return fmt.Errorf("progress view failed: %w", err)
	}

	result, err := sess.Results()
	if err != nil {
		return err
	}
	return printResult(result, "table")
}

// runNonInteractiveScan runs the scan while printing plain progress,
// then formats the result.
func runNonInteractiveScan(absPath string, cfg *config.Config, outFormat string) error {
	if outFormat == "" {
		outFormat = "table"
	}
	formatter, err := output.Get(outFormat)
	if err != nil {
		return fmt.Errorf("unknown output format %q: available formats are %v", outFormat, output.Available())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, err := session.Start(ctx, session.Options{Root: absPath, Config: cfg})
	if err != nil {
		return fmt.Errorf("failed to start scan: %w", err)
	}
	defer func() { _ = sess.Close() }()

	// Handle interrupt: first signal cancels cooperatively.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		printInfo("\nInterrupted, stopping scan...")
		sess.Cancel()
	}()

	if !getQuiet() {
		printInfo("Scanning %s...", absPath)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	waitCh := make(chan error, 1)
	go func() { waitCh <- sess.Wait(context.Background()) }()

poll:
	for {
		select {
		case <-waitCh:
			break poll
		case <-ticker.C:
			snap := sess.Poll()
			printVerbose("%s: %d items, %s", snap.Phase, snap.Items, types.FormatSize(snap.Bytes))
		}
	}

	result, err := sess.Results()
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if result.Cancelled {
		printInfo("Scan cancelled, showing partial results.")
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(buf.String())
	return nil
}

// printResult formats a result to stdout with the named formatter.
func printResult(result *types.ScanResult, format string) error {
	formatter, err := output.Get(format)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(buf.String())
	return nil
}
