package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fsviz/fsviz/internal/db"

	_ "modernc.org/sqlite"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display snapshot metadata",
	Long:  `Print metadata about a snapshot including timestamps and statistics.`,
	RunE:  runInfo,
}

var infoDB string

func init() {
	infoCmd.Flags().StringVarP(&infoDB, "db", "d", ".fsviz/latest.db", "Path to snapshot file")
}

func runInfo(cmd *cobra.Command, args []string) error {
	database, err := sql.Open("sqlite", infoDB)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer database.Close()

	meta, err := db.LoadMeta(database)
	if err != nil {
		return fmt.Errorf("failed to read scan metadata: %w", err)
	}

	fmt.Printf("Snapshot Information\n")
	fmt.Printf("====================\n\n")
	fmt.Printf("Root Path:    %s\n", meta.RootPath)
	fmt.Printf("Start Time:   %s\n", meta.StartTime.Format(time.RFC3339))
	if !meta.EndTime.IsZero() {
		fmt.Printf("End Time:     %s\n", meta.EndTime.Format(time.RFC3339))
		fmt.Printf("Duration:     %s\n", meta.EndTime.Sub(meta.StartTime).Round(time.Millisecond))
	}
	fmt.Printf("\nStatistics\n")
	fmt.Printf("----------\n")
	fmt.Printf("Files:         %s\n", humanize.Comma(meta.FileCount))
	fmt.Printf("Directories:   %s\n", humanize.Comma(meta.DirCount))
	fmt.Printf("Apparent Size: %s\n", humanize.Bytes(uint64(meta.TotalSize)))
	fmt.Printf("Disk Usage:    %s\n", humanize.Bytes(uint64(meta.TotalBlocks)))
	if meta.ErrorCount > 0 {
		fmt.Printf("Errors:        %s\n", humanize.Comma(meta.ErrorCount))
	}

	return nil
}
