package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/fsviz/fsviz/internal/fstree"
)

func TestTreePlatformDepthOnRowGrid(t *testing.T) {
	e := newTestEngine(buildTestTree(), ModeTree)
	tr := e.Context().Tree

	e.Draw(true)

	for _, name := range []string{"root", "sub", "deep"} {
		id := findNode(tr, name)
		p := &e.tree.params[id]
		if p.platform.depth <= 0.0 {
			t.Errorf("%q platform depth = %g, want > 0", name, p.platform.depth)
			continue
		}
		// Depth is always half a leaf edge beyond a whole number of
		// leaf rows.
		rem := math.Mod(p.platform.depth-treeEdge05, treeEdge15)
		if math.Min(rem, treeEdge15-rem) > 1e-6 {
			t.Errorf("%q platform depth %g is off the row grid (rem %g)",
				name, p.platform.depth, rem)
		}
		if p.platform.arcWidth <= 0.0 || p.platform.arcWidth > 360.0 {
			t.Errorf("%q platform arc width = %g", name, p.platform.arcWidth)
		}
	}
}

func TestTreeArrangeCentersSubtrees(t *testing.T) {
	e := newTestEngine(buildTestTree(), ModeTree)
	tr := e.Context().Tree

	// root has a single directory child, so its subtree sits dead ahead.
	sub := findNode(tr, "sub")
	if theta := e.tree.params[sub].platform.theta; math.Abs(theta) > 1e-9 {
		t.Errorf("sole subtree at relative theta %g, want 0", theta)
	}

	// The root platform itself hangs off the metanode's 90-degree stem.
	root := tr.Root()
	if theta := e.tree.platformTheta(root); math.Abs(theta-90.0) > 1e-9 {
		t.Errorf("root platform at absolute theta %g, want 90", theta)
	}
}

func TestTreeArrangeSpreadsSiblings(t *testing.T) {
	tr := fstree.New()
	root := tr.AddChild(tr.MetaRoot(), "root", fstree.KindDirectory, 4096, 4096)
	var dirs []fstree.NodeID
	for i := 0; i < 3; i++ {
		d := tr.AddChild(root, fmt.Sprintf("dir%d", i), fstree.KindDirectory, 4096, 4096)
		tr.AddChild(d, "file", fstree.KindRegularFile, 10_000, 12_288)
		dirs = append(dirs, d)
	}
	tr.EntryExpandRecursive(root)
	tr.Aggregate()
	e := newTestEngine(tr, ModeTree)

	// Subtrees fan out in sibling order, centered about the parent stem.
	sum := 0.0
	prev := math.Inf(-1)
	for _, d := range dirs {
		p := &e.tree.params[d]
		if p.platform.theta <= prev {
			t.Errorf("subtree thetas not increasing: %g after %g", p.platform.theta, prev)
		}
		prev = p.platform.theta
		sum += p.platform.theta
	}
	if math.Abs(sum) > 1e-6 {
		t.Errorf("subtree thetas sum to %g, want 0", sum)
	}

	want := 0.0
	for _, d := range dirs {
		p := &e.tree.params[d]
		want += math.Max(p.platform.arcWidth, p.platform.subtreeArcWidth)
	}
	if got := e.tree.params[root].platform.subtreeArcWidth; math.Abs(got-want) > 1e-6 {
		t.Errorf("root subtree arc width = %g, want %g", got, want)
	}
}

func TestTreeCoreGrowsForWideTrees(t *testing.T) {
	tr := fstree.New()
	root := tr.AddChild(tr.MetaRoot(), "root", fstree.KindDirectory, 4096, 4096)
	for i := 0; i < 100; i++ {
		d := tr.AddChild(root, fmt.Sprintf("dir%03d", i), fstree.KindDirectory, 4096, 4096)
		for j := 0; j < 10; j++ {
			tr.AddChild(d, fmt.Sprintf("f%d", j), fstree.KindRegularFile, 50_000, 53_248)
		}
	}
	tr.EntryExpandRecursive(root)
	tr.Aggregate()
	e := newTestEngine(tr, ModeTree)

	if e.tree.coreRadius <= treeMinCoreRadius {
		t.Fatalf("core radius stayed at %g for a 100-subtree fan", e.tree.coreRadius)
	}
	meta := tr.MetaRoot()
	if got := e.tree.params[meta].platform.subtreeArcWidth; got > treeMaxArcWidth+1e-6 {
		t.Errorf("after growth, root span = %g degrees, want <= %g", got, treeMaxArcWidth)
	}
}

func TestTreeLeavesStayOnPlatform(t *testing.T) {
	e := newTestEngine(buildTestTree(), ModeTree)
	tr := e.Context().Tree
	root := tr.Root()

	e.Draw(true)

	r0 := e.tree.platformR0(root)
	depth := e.tree.params[root].platform.depth
	for _, name := range []string{"big.txt", "small.txt"} {
		p := &e.tree.params[findNode(tr, name)]
		if p.leaf.distance < treeEdge05 || p.leaf.distance > depth {
			t.Errorf("%q leaf at distance %g, platform depth %g", name, p.leaf.distance, depth)
		}
		if half := 0.5 * e.tree.params[root].platform.arcWidth; math.Abs(p.leaf.theta) > half {
			t.Errorf("%q leaf at theta %g, outside half arc %g", name, p.leaf.theta, half)
		}
	}
	_ = r0
}

func TestTreeDrawBuildsBranchesAndSectors(t *testing.T) {
	e := newTestEngine(buildTestTree(), ModeTree)
	tr := e.Context().Tree

	var loop, inbranch bool
	sectors := map[fstree.NodeID]bool{}
	for _, s := range e.Draw(true) {
		switch s := s.(type) {
		case Branch:
			switch s.Kind {
			case BranchLoop:
				loop = true
			case BranchIn:
				inbranch = true
			}
		case Sector:
			sectors[s.Node] = true
		}
	}

	if !loop {
		t.Error("no core loop branch drawn")
	}
	if !inbranch {
		t.Error("no inbound branch drawn")
	}
	for _, name := range []string{"root", "sub", "deep", "big.txt", "small.txt", "tiny.txt"} {
		if !sectors[findNode(tr, name)] {
			t.Errorf("no sector drawn for %q", name)
		}
	}
}

func TestTreeCollapsedDirectoryDrawsAsLeaf(t *testing.T) {
	tr := buildTestTree()
	sub := findNode(tr, "sub")
	tr.Dir(sub).Expanded = false
	e := newTestEngine(tr, ModeTree)

	deep := findNode(tr, "deep")
	var subSectors []Sector
	for _, s := range e.Draw(true) {
		if sec, ok := s.(Sector); ok {
			if sec.Node == deep {
				t.Fatal("collapsed directory still draws its subtree")
			}
			if sec.Node == sub {
				subSectors = append(subSectors, sec)
			}
		}
	}

	// The collapsed directory shows up twice: a marker slot on its
	// parent's platform, and its own full-height leaf form.
	if len(subSectors) != 2 {
		t.Fatalf("collapsed directory drew %d sectors, want 2", len(subSectors))
	}
	full := false
	for _, sec := range subSectors {
		if sec.Z1-sec.Z0 > treeLeafNodeEdge/32.0 {
			full = true
		}
	}
	if !full {
		t.Error("collapsed directory has no full-height leaf form")
	}
}
