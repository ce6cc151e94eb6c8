package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/scan"
)

func scanFixture(t *testing.T) (*fstree.Tree, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := scan.NewScanner(scan.DefaultOptions().WithWorkers(1)).Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return res.Tree, res.Tree.RootPath
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveDirWalksTree(t *testing.T) {
	tr, root := scanFixture(t)
	cache := newPathCache(16)

	id, ok := resolveDir(tr, cache, root)
	if !ok || id != tr.Root() {
		t.Fatalf("root resolved to %v, want %v", id, tr.Root())
	}

	id, ok = resolveDir(tr, cache, filepath.Join(root, "sub"))
	if !ok {
		t.Fatal("sub did not resolve")
	}
	if tr.Node(id).Name != "sub" {
		t.Errorf("sub resolved to %q", tr.Node(id).Name)
	}

	// A directory created after the scan falls back to its known ancestor.
	id, ok = resolveDir(tr, cache, filepath.Join(root, "sub", "brand-new"))
	if !ok || tr.Node(id).Name != "sub" {
		t.Errorf("unscanned path resolved to %v, want the sub node", id)
	}

	if _, ok := resolveDir(tr, cache, filepath.Dir(root)); ok {
		t.Error("path above the root resolved inside the tree")
	}

	// Second lookup comes from the cache.
	if cached, ok := cache.Get(filepath.Join(root, "sub")); !ok || tr.Node(cached).Name != "sub" {
		t.Error("resolved path not cached")
	}
}

func TestWatchReportsChangedDirectory(t *testing.T) {
	tr, root := scanFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan fstree.NodeID, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, tr, quietLogger(), func(dir fstree.NodeID) {
			changed <- dir
		})
	}()

	// Give the watcher a moment to install its watches.
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case id := <-changed:
		if tr.Node(id).Name != "sub" {
			t.Errorf("change reported for %q, want sub", tr.Node(id).Name)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported for a new file")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestPathCacheEvicts(t *testing.T) {
	c := newPathCache(2)
	c.Set("/a", 1)
	c.Set("/b", 2)
	c.Set("/c", 3)
	if _, ok := c.Get("/a"); ok {
		t.Error("oldest entry survived past the cache limit")
	}
	if v, ok := c.Get("/c"); !ok || v != 3 {
		t.Error("newest entry missing")
	}
	c.Invalidate("/b")
	if _, ok := c.Get("/b"); ok {
		t.Error("invalidated entry still present")
	}
}
