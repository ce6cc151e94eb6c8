package colexp

import (
	"testing"

	"github.com/fsviz/fsviz/internal/anim"
	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/layout"
)

// buildChain builds root/sub/deep with a file at each level.
func buildChain() (*fstree.Tree, fstree.NodeID, fstree.NodeID, fstree.NodeID) {
	t := fstree.New()
	root := t.AddChild(t.MetaRoot(), "root", fstree.KindDirectory, 4096, 4096)
	sub := t.AddChild(root, "sub", fstree.KindDirectory, 4096, 4096)
	deep := t.AddChild(sub, "deep", fstree.KindDirectory, 4096, 4096)
	t.AddChild(deep, "a.txt", fstree.KindRegularFile, 10_000, 12_288)
	t.AddChild(sub, "b.txt", fstree.KindRegularFile, 20_000, 20_480)
	t.AddChild(root, "c.txt", fstree.KindRegularFile, 30_000, 32_768)
	t.Aggregate()
	return t, root, sub, deep
}

func newFixture(t *fstree.Tree) (*Controller, *layout.Engine, *anim.Scheduler) {
	ctx := layout.NewContext(t)
	sched := anim.NewScheduler(nil)
	eng := layout.NewEngine(ctx, sched)
	eng.Init(layout.ModeMap)
	eng.Camera().Init(true)
	return NewController(eng, sched), eng, sched
}

func TestCollapseRecursiveCascadesDeepestFirst(t *testing.T) {
	tr, root, sub, deep := buildChain()
	tr.EntryExpandRecursive(root)
	ctrl, _, sched := newFixture(tr)

	ctrl.Colexp(root, CollapseRecursive)

	if tr.EntryExpanded(root) || tr.EntryExpanded(sub) || tr.EntryExpanded(deep) {
		t.Fatal("directory list still open after collapse request")
	}

	// Three levels, one beat each: deep closes during the first beat,
	// root during the last.
	sched.Advance(MapColexpTime + 0.01)
	if !tr.Dir(deep).Collapsed() {
		t.Errorf("deepest level not collapsed after one beat: deployment %g",
			tr.Dir(deep).Deployment)
	}
	if tr.Dir(root).Collapsed() {
		t.Error("root collapsed before its turn")
	}

	sched.Advance(3.0*MapColexpTime + 0.01)
	for _, id := range []fstree.NodeID{root, sub, deep} {
		if !tr.Dir(id).Collapsed() {
			t.Errorf("%q deployment = %g after cascade, want 0",
				tr.Node(id).Name, tr.Dir(id).Deployment)
		}
	}
}

func TestExpandRecursiveCascadesShallowestFirst(t *testing.T) {
	tr, root, sub, deep := buildChain()
	ctrl, _, sched := newFixture(tr)

	ctrl.Colexp(root, ExpandRecursive)

	if !tr.EntryExpanded(deep) {
		t.Fatal("directory list not fully open after expand-recursive request")
	}

	sched.Advance(MapColexpTime + 0.01)
	if !tr.Dir(root).FullyExpanded() {
		t.Errorf("root not expanded after one beat: deployment %g",
			tr.Dir(root).Deployment)
	}
	if tr.Dir(deep).FullyExpanded() {
		t.Error("deepest level expanded before its turn")
	}

	sched.Advance(3.0*MapColexpTime + 0.01)
	for _, id := range []fstree.NodeID{root, sub, deep} {
		if !tr.Dir(id).FullyExpanded() {
			t.Errorf("%q deployment = %g after cascade, want 1",
				tr.Node(id).Name, tr.Dir(id).Deployment)
		}
	}
}

func TestExpandAnyOpensCollapsedAncestors(t *testing.T) {
	tr, root, sub, deep := buildChain()
	// Only the root is open; sub and deep are closed.
	tr.EntryExpand(root)
	ctrl, _, sched := newFixture(tr)

	// Reaching deep means opening sub first, top down.
	ctrl.Colexp(deep, ExpandAny)

	if !tr.EntryExpanded(sub) || !tr.EntryExpanded(deep) {
		t.Fatal("expand-any did not open the ancestor chain")
	}

	sched.Advance(0.5 * MapColexpTime)
	if tr.Dir(sub).Deployment <= 0.0 {
		t.Error("collapsed ancestor not opening on the first beat")
	}
	if tr.Dir(deep).Deployment > 0.0 {
		t.Errorf("target opening before its ancestor: deployment %g",
			tr.Dir(deep).Deployment)
	}

	sched.Advance(3.0 * MapColexpTime)
	if !tr.Dir(sub).FullyExpanded() || !tr.Dir(deep).FullyExpanded() {
		t.Error("expand-any cascade did not settle fully expanded")
	}
}

func TestExpandSingleLevel(t *testing.T) {
	tr, root, sub, deep := buildChain()
	tr.EntryExpand(root)
	ctrl, _, sched := newFixture(tr)

	ctrl.Colexp(sub, Expand)

	if !tr.EntryExpanded(sub) {
		t.Fatal("expand did not open the directory entry")
	}
	if tr.EntryExpanded(deep) {
		t.Error("plain expand opened a nested directory")
	}

	sched.Advance(MapColexpTime + 0.01)
	if !tr.Dir(sub).FullyExpanded() {
		t.Errorf("sub deployment = %g, want 1", tr.Dir(sub).Deployment)
	}
	if !tr.Dir(deep).Collapsed() {
		t.Errorf("deep deployment = %g, want 0", tr.Dir(deep).Deployment)
	}
	_ = root
}

func TestColexpMovesCamera(t *testing.T) {
	tr, root, _, _ := buildChain()
	ctrl, eng, _ := newFixture(tr)

	// The current node sits above the expanding directory, so the camera
	// re-frames it for the duration of the cascade.
	ctrl.Colexp(root, ExpandRecursive)
	if !eng.Camera().Moving() {
		t.Error("camera idle during an expand cascade at the current node")
	}
}

func TestColexpRespectsManualCamera(t *testing.T) {
	tr, root, _, _ := buildChain()
	ctrl, eng, _ := newFixture(tr)

	eng.Camera().Dolly(16.0)
	ctrl.Colexp(root, ExpandRecursive)
	if eng.Camera().Moving() {
		t.Error("cascade moved a manually controlled camera")
	}
}
