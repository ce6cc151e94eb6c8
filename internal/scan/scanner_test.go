package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsviz/fsviz/internal/fstree"
)

// writeTree lays out a small fixture:
//
//	root/
//	  sub/
//	    a.txt (100 bytes)
//	    b.txt (200 bytes)
//	  zeta/
//	  top.txt (50 bytes)
func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "zeta"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]int{
		"sub/a.txt": 100,
		"sub/b.txt": 200,
		"top.txt":   50,
	}
	for name, size := range files {
		if err := os.WriteFile(filepath.Join(root, name), make([]byte, size), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestScanBuildsTree(t *testing.T) {
	root := writeTree(t)
	s := NewScanner(DefaultOptions().WithWorkers(4))
	res, err := s.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	tr := res.Tree

	rootID := tr.Root()
	if rootID == fstree.InvalidID {
		t.Fatal("scan produced an empty tree")
	}
	if got := tr.Node(rootID).Name; got != filepath.Base(root) {
		t.Errorf("root name = %q, want %q", got, filepath.Base(root))
	}
	if !tr.EntryExpanded(rootID) {
		t.Error("root directory entry not open after scan")
	}

	var names []string
	for _, c := range tr.Children(rootID) {
		names = append(names, tr.Node(c).Name)
	}
	want := []string{"sub", "zeta", "top.txt"}
	if len(names) != len(want) {
		t.Fatalf("root children = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("child %d = %q, want %q (directories sort first)", i, names[i], want[i])
		}
	}

	if got := tr.Dir(rootID).SubtreeSize; got < 350 {
		t.Errorf("root subtree size = %d, want >= 350", got)
	}
}

func TestScanIsDeterministic(t *testing.T) {
	root := writeTree(t)
	var prev []string
	for run := 0; run < 3; run++ {
		s := NewScanner(DefaultOptions().WithWorkers(8))
		res, err := s.Scan(context.Background(), root)
		if err != nil {
			t.Fatalf("scan %d failed: %v", run, err)
		}
		var names []string
		res.Tree.ForEach(res.Tree.Root(), func(id fstree.NodeID) {
			names = append(names, res.Tree.Node(id).Name)
		})
		if prev != nil {
			if len(names) != len(prev) {
				t.Fatalf("run %d visited %d nodes, previous run %d", run, len(names), len(prev))
			}
			for i := range names {
				if names[i] != prev[i] {
					t.Fatalf("run %d node %d = %q, previous run %q", run, i, names[i], prev[i])
				}
			}
		}
		prev = names
	}
}

func TestScanMeta(t *testing.T) {
	root := writeTree(t)
	s := NewScanner(DefaultOptions())
	res, err := s.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if res.Meta.FileCount != 3 {
		t.Errorf("file count = %d, want 3", res.Meta.FileCount)
	}
	// Root plus sub plus zeta.
	if res.Meta.DirCount != 3 {
		t.Errorf("dir count = %d, want 3", res.Meta.DirCount)
	}
	if res.Meta.ErrorCount != 0 {
		t.Errorf("error count = %d, want 0", res.Meta.ErrorCount)
	}
	if res.Meta.EndTime.Before(res.Meta.StartTime) {
		t.Error("scan ended before it started")
	}
}

func TestScanExcludePattern(t *testing.T) {
	root := writeTree(t)
	opts := DefaultOptions()
	if err := opts.AddExcludePattern(`/sub(/|$)`); err != nil {
		t.Fatal(err)
	}
	s := NewScanner(opts)
	res, err := s.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	for _, c := range res.Tree.Children(res.Tree.Root()) {
		if res.Tree.Node(c).Name == "sub" {
			t.Error("excluded directory still present in tree")
		}
	}
}

func TestScanRejectsNonDirectory(t *testing.T) {
	root := writeTree(t)
	s := NewScanner(DefaultOptions())
	if _, err := s.Scan(context.Background(), filepath.Join(root, "top.txt")); err == nil {
		t.Error("scanning a regular file did not fail")
	}
	s = NewScanner(DefaultOptions())
	if _, err := s.Scan(context.Background(), filepath.Join(root, "missing")); err == nil {
		t.Error("scanning a missing path did not fail")
	}
}

func TestScanHonorsCancel(t *testing.T) {
	root := writeTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewScanner(DefaultOptions())
	if _, err := s.Scan(ctx, root); err == nil {
		t.Error("cancelled scan returned no error")
	}
}
