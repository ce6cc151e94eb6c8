package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fsviz/fsviz/internal/scan"
	"github.com/fsviz/fsviz/internal/snapshot"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a directory and create a snapshot",
	Long:  `Scan a directory tree and store it as a SQLite snapshot.`,
	RunE:  runScan,
}

var (
	scanRoot      string
	scanOut       string
	scanWorkers   int
	scanXdev      bool
	scanRetention int
	scanExclude   []string
	scanMaxErrors int
)

func init() {
	scanCmd.Flags().StringVarP(&scanRoot, "root", "r", ".", "Root directory to scan")
	scanCmd.Flags().StringVarP(&scanOut, "out", "o", ".fsviz", "Output directory for snapshots")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 8, "Number of worker goroutines")
	scanCmd.Flags().BoolVar(&scanXdev, "xdev", true, "Don't cross filesystem boundaries")
	scanCmd.Flags().IntVar(&scanRetention, "retention", 5, "Number of snapshots to retain (0 = unlimited)")
	scanCmd.Flags().StringSliceVarP(&scanExclude, "exclude", "e", nil, "Regex patterns to exclude (can be repeated)")
	scanCmd.Flags().IntVar(&scanMaxErrors, "max-errors", 1000, "Number of errors to retain (0 = unlimited)")
}

func runScan(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(scanRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve root path: %w", err)
	}
	root = filepath.Clean(root)

	outDir, err := filepath.Abs(scanOut)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}

	fmt.Printf("Scanning %s...\n", root)

	opts := scan.DefaultOptions().
		WithWorkers(scanWorkers).
		WithXdev(scanXdev).
		WithMaxErrors(scanMaxErrors)
	for _, pattern := range scanExclude {
		if err := opts.AddExcludePattern(pattern); err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}

	mgr := snapshot.NewManager(outDir, scanRetention)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nCanceling... (press Ctrl+C again to force)")
		cancel()
		<-sigCh
		os.Exit(130)
	}()
	startTime := time.Now()

	var lastDirs, lastFiles, lastErrors int64
	mgr.SetProgressFunc(func(dirs, files, errors int64) {
		atomic.StoreInt64(&lastDirs, dirs)
		atomic.StoreInt64(&lastFiles, files)
		atomic.StoreInt64(&lastErrors, errors)
	})

	// Spinner on stderr while the scan runs, TTY only.
	progressDone := make(chan struct{})
	if isTerminal() {
		go func() {
			ticker := time.NewTicker(80 * time.Millisecond)
			defer ticker.Stop()
			var spinnerIdx int
			for {
				select {
				case <-progressDone:
					return
				case <-ticker.C:
					files := atomic.LoadInt64(&lastFiles)
					dirs := atomic.LoadInt64(&lastDirs)
					errs := atomic.LoadInt64(&lastErrors)
					elapsed := time.Since(startTime).Round(time.Millisecond)
					spinner := spinnerFrames[spinnerIdx%len(spinnerFrames)]
					spinnerIdx++

					errStr := ""
					if errs > 0 {
						errStr = fmt.Sprintf(" | %d errors", errs)
					}
					fmt.Fprintf(os.Stderr, "\r\033[K%s Scanning... %d files | %d dirs | %s%s",
						spinner, files, dirs, elapsed, errStr)
				}
			}
		}()
	}

	dbPath, result, err := mgr.RunScan(ctx, root, opts)
	close(progressDone)
	if isTerminal() {
		fmt.Fprintf(os.Stderr, "\r\033[K")
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Scan canceled.")
			return nil
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Printf("Snapshot: %s\n", dbPath)
	fmt.Printf("Scan completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	meta := result.Meta
	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Files: %s\n", humanize.Comma(meta.FileCount))
	fmt.Printf("  Directories: %s\n", humanize.Comma(meta.DirCount))
	fmt.Printf("  Apparent size: %s\n", humanize.Bytes(uint64(meta.TotalSize)))
	fmt.Printf("  Disk usage: %s\n", humanize.Bytes(uint64(meta.TotalBlocks)))
	if meta.ErrorCount > 0 {
		fmt.Printf("  Errors: %d\n", meta.ErrorCount)
	}

	return nil
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
