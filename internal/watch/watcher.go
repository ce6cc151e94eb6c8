// Package watch mirrors filesystem change events back onto a scanned
// tree, reporting which directories went stale.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/fsviz/fsviz/internal/fstree"
)

// Events for one directory are coalesced for this long before the
// callback fires.
const debounceInterval = 200 * time.Millisecond

// ChangeFunc is called with a directory whose on-disk contents no longer
// match the scanned tree.
type ChangeFunc func(dir fstree.NodeID)

// Watch starts an fsnotify watcher on the tree's root path and reports
// changed directories until ctx is cancelled. New directories created at
// runtime are added to the watch list; their events resolve to the nearest
// scanned ancestor.
func Watch(ctx context.Context, t *fstree.Tree, logger *slog.Logger, cb ChangeFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, t.RootPath); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", t.RootPath))

	cache := newPathCache(pathCacheSize)
	pending := make(map[fstree.NodeID]struct{})

	var flushTimer *time.Timer
	var flushCh <-chan time.Time
	scheduleFlush := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounceInterval)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounceInterval)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			for id := range pending {
				delete(pending, id)
				if cb != nil {
					cb(id)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Lstat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
				}
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				cache.Invalidate(ev.Name)
			}

			id, ok := resolveDir(t, cache, filepath.Dir(ev.Name))
			if !ok {
				logger.Debug("watcher: event outside tree", slog.String("path", ev.Name))
				continue
			}
			logger.Debug("watcher: change",
				slog.String("path", ev.Name),
				slog.String("op", ev.Op.String()))
			pending[id] = struct{}{}
			scheduleFlush()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// resolveDir maps an absolute directory path to its tree node, falling
// back to the nearest scanned ancestor for paths created after the scan.
func resolveDir(t *fstree.Tree, cache *pathCache, path string) (fstree.NodeID, bool) {
	if id, ok := cache.Get(path); ok {
		return id, true
	}

	rel, err := filepath.Rel(t.RootPath, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fstree.InvalidID, false
	}

	id := t.Root()
	if id == fstree.InvalidID {
		return fstree.InvalidID, false
	}
	if rel != "." {
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			child := findChild(t, id, part)
			if child == fstree.InvalidID {
				// Unknown component: the nearest known ancestor owns it.
				break
			}
			id = child
		}
	}

	cache.Set(path, id)
	return id, true
}

func findChild(t *fstree.Tree, dir fstree.NodeID, name string) fstree.NodeID {
	for _, c := range t.Children(dir) {
		if t.Node(c).Name == name && t.Node(c).Kind == fstree.KindDirectory {
			return c
		}
	}
	return fstree.InvalidID
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
