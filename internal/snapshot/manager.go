// Package snapshot handles the scan-to-database lifecycle: locking,
// timestamped snapshot files, the latest symlink, and retention.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsviz/fsviz/internal/db"
	"github.com/fsviz/fsviz/internal/scan"

	_ "modernc.org/sqlite"
)

// ProgressFunc is called periodically with current scan progress.
type ProgressFunc func(dirs, files, errors int64)

// Manager handles the scan lifecycle including locking and retention.
type Manager struct {
	outputDir    string
	retention    int
	lockFile     *os.File
	progressFunc ProgressFunc
}

// NewManager creates a new snapshot manager.
func NewManager(outputDir string, retention int) *Manager {
	return &Manager{
		outputDir: outputDir,
		retention: retention,
	}
}

// SetProgressFunc sets a callback for progress updates during scan.
func (m *Manager) SetProgressFunc(f ProgressFunc) {
	m.progressFunc = f
}

// RunScan scans root, writes the result as a new snapshot, and returns the
// snapshot path together with the in-memory result, so a viewer can start
// without reloading the database it just wrote.
func (m *Manager) RunScan(ctx context.Context, root string, opts *scan.Options) (string, *scan.Result, error) {
	if err := os.MkdirAll(m.outputDir, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := m.acquireLock(); err != nil {
		return "", nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer m.releaseLock()

	scanner := scan.NewScanner(opts)

	progressDone := make(chan struct{})
	if m.progressFunc != nil {
		go func() {
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-progressDone:
					return
				case <-ticker.C:
					p := scanner.Progress()
					m.progressFunc(p.Dirs, p.Files, p.Errors)
				}
			}
		}()
	}

	result, scanErr := scanner.Scan(ctx, root)
	close(progressDone)
	if scanErr != nil {
		return "", nil, fmt.Errorf("scan failed: %w", scanErr)
	}

	tempPath := filepath.Join(m.outputDir, fmt.Sprintf(".fsviz-temp-%d.db", time.Now().UnixNano()))
	database, err := sql.Open("sqlite", tempPath)
	if err != nil {
		os.Remove(tempPath)
		return "", nil, fmt.Errorf("failed to create database: %w", err)
	}

	if err := db.ApplyWritePragmas(database); err != nil {
		database.Close()
		os.Remove(tempPath)
		return "", nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := db.Save(database, result.Tree, result.Errors, result.Meta); err != nil {
		database.Close()
		os.Remove(tempPath)
		return "", nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := db.Finalize(database); err != nil {
		database.Close()
		os.Remove(tempPath)
		return "", nil, fmt.Errorf("failed to finalize database: %w", err)
	}
	database.Close()

	// Atomic rename to final location
	finalName := fmt.Sprintf("fsviz-%s.db", time.Now().Format("20060102-150405"))
	finalPath := filepath.Join(m.outputDir, finalName)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return "", nil, fmt.Errorf("failed to rename database: %w", err)
	}

	// Update latest.db symlink atomically via temp symlink + rename
	latestPath := filepath.Join(m.outputDir, "latest.db")
	tempLink := filepath.Join(m.outputDir, ".latest.db.tmp")
	os.Remove(tempLink)
	if err := os.Symlink(finalName, tempLink); err == nil {
		if err := os.Rename(tempLink, latestPath); err != nil {
			os.Remove(tempLink)
			fmt.Fprintf(os.Stderr, "warning: failed to update latest.db symlink: %v\n", err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "warning: failed to create latest.db symlink: %v\n", err)
	}

	if err := m.pruneOldSnapshots(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to prune old snapshots: %v\n", err)
	}

	return finalPath, result, nil
}

func (m *Manager) acquireLock() error {
	lockPath := filepath.Join(m.outputDir, ".fsviz.lock")
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return fmt.Errorf("another scan is in progress")
	}
	m.lockFile = f
	return nil
}

func (m *Manager) releaseLock() {
	if m.lockFile != nil {
		syscall.Flock(int(m.lockFile.Fd()), syscall.LOCK_UN)
		m.lockFile.Close()
		m.lockFile = nil
	}
}

func (m *Manager) pruneOldSnapshots() error {
	if m.retention <= 0 {
		return nil
	}
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return err
	}
	var snapshots []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "fsviz-") && strings.HasSuffix(e.Name(), ".db") {
			snapshots = append(snapshots, e.Name())
		}
	}

	// Names embed the timestamp, so lexical order is chronological.
	sort.Strings(snapshots)
	for len(snapshots) > m.retention {
		oldPath := filepath.Join(m.outputDir, snapshots[0])
		if err := os.Remove(oldPath); err != nil {
			return fmt.Errorf("failed to remove %s: %w", snapshots[0], err)
		}
		snapshots = snapshots[1:]
	}
	return nil
}

// GetLatest returns the path to the latest snapshot.
func (m *Manager) GetLatest() (string, error) {
	latestPath := filepath.Join(m.outputDir, "latest.db")
	resolved, err := filepath.EvalSymlinks(latestPath)
	if err != nil {
		return "", fmt.Errorf("no latest snapshot found: %w", err)
	}
	return resolved, nil
}

// ListSnapshots returns all available snapshots sorted by date.
func (m *Manager) ListSnapshots() ([]string, error) {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return nil, err
	}
	var snapshots []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "fsviz-") && strings.HasSuffix(e.Name(), ".db") {
			snapshots = append(snapshots, filepath.Join(m.outputDir, e.Name()))
		}
	}
	sort.Strings(snapshots)
	return snapshots, nil
}
