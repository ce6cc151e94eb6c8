package snapshot

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsviz/fsviz/internal/db"
	"github.com/fsviz/fsviz/internal/scan"
)

func TestManagerRunScanCreatesLatestAndRetention(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "file.txt"), []byte("hello"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	outDir := t.TempDir()
	mgr := NewManager(outDir, 1)
	opts := scan.DefaultOptions().WithWorkers(1)

	ctx := context.Background()
	firstDB, res, err := mgr.RunScan(ctx, root, opts)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if _, err := os.Stat(firstDB); err != nil {
		t.Fatalf("first db missing: %v", err)
	}
	if res == nil || res.Tree == nil || res.Tree.Root() < 0 {
		t.Fatal("scan returned no tree")
	}

	latest := filepath.Join(outDir, "latest.db")
	if info, err := os.Lstat(latest); err == nil && (info.Mode()&os.ModeSymlink != 0) {
		resolved, err := filepath.EvalSymlinks(latest)
		if err != nil {
			t.Fatalf("resolve latest: %v", err)
		}
		firstResolved, err := filepath.EvalSymlinks(firstDB)
		if err != nil {
			t.Fatalf("resolve first db: %v", err)
		}
		if resolved != firstResolved {
			t.Fatalf("latest does not point to first db: %s", resolved)
		}
	}

	time.Sleep(1100 * time.Millisecond)

	secondDB, _, err := mgr.RunScan(ctx, root, opts)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if _, err := os.Stat(secondDB); err != nil {
		t.Fatalf("second db missing: %v", err)
	}

	if _, err := os.Stat(firstDB); err == nil {
		t.Fatalf("expected first db to be pruned")
	}
}

func TestSnapshotLoadsBack(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "file.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	outDir := t.TempDir()
	mgr := NewManager(outDir, 0)
	path, res, err := mgr.RunScan(context.Background(), root, scan.DefaultOptions())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	database, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer database.Close()

	tr, err := db.LoadTree(database)
	if err != nil {
		t.Fatalf("load tree: %v", err)
	}
	if tr.Len() != res.Tree.Len() {
		t.Errorf("loaded %d nodes, scanned %d", tr.Len(), res.Tree.Len())
	}

	got, err := mgr.GetLatest()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	wantResolved, _ := filepath.EvalSymlinks(path)
	if got != wantResolved {
		t.Errorf("latest = %s, want %s", got, wantResolved)
	}
}
