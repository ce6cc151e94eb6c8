package layout

import (
	"testing"

	"github.com/fsviz/fsviz/internal/anim"
	"github.com/fsviz/fsviz/internal/fstree"
)

// buildTestTree builds a small tree:
//
//	root/
//	  sub/
//	    deep/
//	      tiny.txt (1 KB)
//	  big.txt   (9 MB)
//	  small.txt (1 MB)
//
// Every directory starts expanded.
func buildTestTree() *fstree.Tree {
	t := fstree.New()
	root := t.AddChild(t.MetaRoot(), "root", fstree.KindDirectory, 4096, 4096)
	sub := t.AddChild(root, "sub", fstree.KindDirectory, 4096, 4096)
	deep := t.AddChild(sub, "deep", fstree.KindDirectory, 4096, 4096)
	t.AddChild(deep, "tiny.txt", fstree.KindRegularFile, 1_000, 4096)
	t.AddChild(root, "big.txt", fstree.KindRegularFile, 9_000_000, 9_000_960)
	t.AddChild(root, "small.txt", fstree.KindRegularFile, 1_000_000, 1_003_520)
	t.EntryExpandRecursive(root)
	t.Aggregate()
	return t
}

func newTestEngine(tr *fstree.Tree, mode Mode) *Engine {
	ctx := NewContext(tr)
	e := NewEngine(ctx, anim.NewScheduler(nil))
	e.Init(mode)
	return e
}

func findNode(tr *fstree.Tree, name string) fstree.NodeID {
	found := fstree.InvalidID
	tr.ForEach(tr.MetaRoot(), func(id fstree.NodeID) {
		if tr.Node(id).Name == name {
			found = id
		}
	})
	return found
}

func TestDrawStageProtocol(t *testing.T) {
	e := newTestEngine(buildTestTree(), ModeMap)

	first := e.Draw(true)
	if low, high := e.DrawStages(); low != 1 || high != 1 {
		t.Fatalf("after first draw, stages = %d/%d, want 1/1", low, high)
	}

	second := e.Draw(true)
	third := e.Draw(true)
	if low, high := e.DrawStages(); low < 2 || high < 2 {
		t.Fatalf("after third draw, stages = %d/%d, want >= 2/2", low, high)
	}
	if len(first) != len(second) || len(second) != len(third) {
		t.Errorf("draw list length changed across stages: %d, %d, %d",
			len(first), len(second), len(third))
	}

	// A structural change drops the aggregate capture.
	e.QueueRebuild(e.Context().Tree.Root())
	if low, high := e.DrawStages(); low != 0 || high != 0 {
		t.Errorf("after rebuild, stages = %d/%d, want 0/0", low, high)
	}
	rebuilt := e.Draw(true)
	if len(rebuilt) != len(first) {
		t.Errorf("rebuilt draw list has %d shapes, want %d", len(rebuilt), len(first))
	}
}

func TestDrawLowDetailOmitsLabels(t *testing.T) {
	e := newTestEngine(buildTestTree(), ModeMap)

	for _, s := range e.Draw(false) {
		if _, ok := s.(Label); ok {
			t.Fatalf("low-detail draw produced a label: %+v", s)
		}
	}
	_, high := e.DrawStages()
	if high != 0 {
		t.Errorf("low-detail draw advanced the high stage to %d", high)
	}

	found := false
	for _, s := range e.Draw(true) {
		if _, ok := s.(Label); ok {
			found = true
			break
		}
	}
	if !found {
		t.Error("high-detail draw produced no labels")
	}
}

func TestColexpInProgressStaleness(t *testing.T) {
	e := newTestEngine(buildTestTree(), ModeMap)
	tr := e.Context().Tree
	sub := findNode(tr, "sub")
	d := tr.Dir(sub)

	e.Draw(true)
	e.Draw(true)
	e.Draw(true)

	// A deployment change that stays on the expanded side of the
	// threshold only drops the aggregate capture.
	d.Deployment = 0.5
	e.ColexpInProgress(sub)
	if d.StaleA {
		t.Error("mid-deployment step marked directory geometry stale")
	}
	if low, _ := e.DrawStages(); low != 0 {
		t.Errorf("mid-deployment step left low stage at %d, want 0", low)
	}

	e.Draw(true)

	// Crossing the collapsed threshold rebuilds the directory.
	d.Deployment = 0.0
	e.ColexpInProgress(sub)
	if !d.StaleA {
		t.Error("threshold crossing did not mark directory geometry stale")
	}
}

func TestParseMode(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Mode
	}{
		{"disc", ModeDisc},
		{"map", ModeMap},
		{"tree", ModeTree},
	} {
		got, err := ParseMode(tc.in)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseMode("spiral"); err == nil {
		t.Error("ParseMode accepted an unknown mode")
	}
}
