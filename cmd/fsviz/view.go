package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fsviz/fsviz/internal/config"
	"github.com/fsviz/fsviz/internal/db"
	"github.com/fsviz/fsviz/internal/entry"
	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/layout"
	"github.com/fsviz/fsviz/internal/scan"
	"github.com/fsviz/fsviz/internal/tui"
	"github.com/fsviz/fsviz/internal/watch"

	_ "modernc.org/sqlite"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Visualize a directory tree interactively",
	Long: `Open the animated viewer on a snapshot, or scan a directory and
view it directly.`,
	RunE: runView,
}

var (
	viewDB     string
	viewRoot   string
	viewMode   string
	viewFPS    int
	viewWatch  bool
	viewConfig string
)

func init() {
	viewCmd.Flags().StringVarP(&viewDB, "db", "d", "", "Path to snapshot file (default <snapshot dir>/latest.db)")
	viewCmd.Flags().StringVarP(&viewRoot, "root", "r", "", "Scan this directory instead of loading a snapshot")
	viewCmd.Flags().StringVarP(&viewMode, "mode", "m", "", "Initial view mode: disc, map, or tree")
	viewCmd.Flags().IntVar(&viewFPS, "fps", 0, "Animation frame rate")
	viewCmd.Flags().BoolVar(&viewWatch, "watch", false, "Watch the tree for filesystem changes")
	viewCmd.Flags().StringVarP(&viewConfig, "config", "c", "", "Path to config file")
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(viewConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("mode") {
		cfg.View.Mode = viewMode
	}
	if cmd.Flags().Changed("fps") {
		cfg.View.FPS = viewFPS
	}
	if cmd.Flags().Changed("watch") {
		cfg.View.Watch = viewWatch
	}
	if err := cfg.View.Validate(); err != nil {
		return err
	}
	mode, err := layout.ParseMode(cfg.View.Mode)
	if err != nil {
		return err
	}

	tree, meta, err := loadTree(cfg)
	if err != nil {
		return err
	}

	model := tui.NewModel(tree, mode, cfg.View.FPS, meta)

	if !cfg.View.Watch {
		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("viewer error: %w", err)
		}
		return nil
	}

	// The terminal belongs to the viewer, so the watcher logs to a file.
	logFile, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: cfg.App.LogLevel}))

	changes := make(chan fstree.NodeID, 64)
	model.SetChangeChannel(changes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watch.Watch(gctx, tree, logger, func(dir fstree.NodeID) {
			select {
			case changes <- dir:
			default:
				// Viewer is behind; the directory is already queued.
			}
		})
	})

	g.Go(func() error {
		defer cancel()
		p := tea.NewProgram(model, tea.WithAltScreen())
		_, err := p.Run()
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("viewer error: %w", err)
	}
	return nil
}

// loadTree fetches the tree to view, scanning directly or loading the
// requested snapshot.
func loadTree(cfg *config.Config) (*fstree.Tree, *entry.ScanMeta, error) {
	if viewRoot != "" {
		opts, err := cfg.Scan.Options()
		if err != nil {
			return nil, nil, err
		}
		res, err := scan.NewScanner(opts).Scan(context.Background(), viewRoot)
		if err != nil {
			return nil, nil, fmt.Errorf("scan failed: %w", err)
		}
		return res.Tree, &res.Meta, nil
	}

	path := viewDB
	if path == "" {
		path = filepath.Join(cfg.Snapshots.Dir, "latest.db")
	}
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer database.Close()
	if err := db.ApplyReadPragmas(database); err != nil {
		return nil, nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	tree, err := db.LoadTree(database)
	if err != nil {
		return nil, nil, err
	}
	meta, err := db.LoadMeta(database)
	if err != nil {
		return nil, nil, err
	}
	return tree, meta, nil
}
