package layout

import (
	"math"
	"testing"

	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/geom"
)

func TestDiscRadiusFollowsArea(t *testing.T) {
	e := newTestEngine(buildTestTree(), ModeDisc)
	tr := e.Context().Tree

	big := findNode(tr, "big.txt")
	want := math.Sqrt(9_000_000.0 / math.Pi)
	if got := e.disc.params[big].radius; math.Abs(got-want) > 1e-9 {
		t.Errorf("big.txt radius = %g, want %g", got, want)
	}

	// Tiny nodes are floored so they stay visible.
	tiny := findNode(tr, "tiny.txt")
	wantTiny := math.Sqrt(1_000.0 / math.Pi)
	if got := e.disc.params[tiny].radius; math.Abs(got-wantTiny) > 1e-9 {
		t.Errorf("tiny.txt radius = %g, want %g", got, wantTiny)
	}
}

func TestDiscSiblingsDoNotOverlap(t *testing.T) {
	e := newTestEngine(buildTestTree(), ModeDisc)
	tr := e.Context().Tree
	root := tr.Root()

	children := tr.Children(root)
	for i := 0; i < len(children); i++ {
		for j := i + 1; j < len(children); j++ {
			pi, pj := &e.disc.params[children[i]], &e.disc.params[children[j]]
			dist := math.Hypot(pi.pos.X-pj.pos.X, pi.pos.Y-pj.pos.Y)
			if dist < pi.radius+pj.radius-1e-6 {
				t.Errorf("discs %q and %q overlap: centers %g apart, radii sum %g",
					tr.Node(children[i]).Name, tr.Node(children[j]).Name,
					dist, pi.radius+pj.radius)
			}
		}
	}
}

func TestDiscChildrenClearParentEdge(t *testing.T) {
	e := newTestEngine(buildTestTree(), ModeDisc)
	tr := e.Context().Tree
	root := tr.Root()
	rootRadius := e.disc.params[root].radius

	for _, c := range tr.Children(root) {
		p := &e.disc.params[c]
		dist := math.Hypot(p.pos.X, p.pos.Y)
		if dist < rootRadius+p.radius-1e-6 {
			t.Errorf("%q sits %g from its parent center, want >= %g",
				tr.Node(c).Name, dist, rootRadius+p.radius)
		}
	}
}

func TestDiscDrawEmitsChildDiscs(t *testing.T) {
	e := newTestEngine(buildTestTree(), ModeDisc)
	tr := e.Context().Tree

	discs := map[fstree.NodeID]Disc{}
	for _, s := range e.Draw(true) {
		if d, ok := s.(Disc); ok {
			discs[d.Node] = d
		}
	}

	for _, name := range []string{"root", "sub", "deep", "tiny.txt", "big.txt", "small.txt"} {
		id := findNode(tr, name)
		d, ok := discs[id]
		if !ok {
			t.Fatalf("no disc drawn for %q", name)
		}
		if math.Abs(d.Radius-e.disc.params[id].radius) > 1e-9 {
			t.Errorf("%q drawn with radius %g, want %g", name, d.Radius, e.disc.params[id].radius)
		}
		if d.Kind != tr.Node(id).Kind {
			t.Errorf("%q drawn with kind %v, want %v", name, d.Kind, tr.Node(id).Kind)
		}
	}
}

func TestDiscCollapsedDirectoryHidesContents(t *testing.T) {
	tr := buildTestTree()
	sub := findNode(tr, "sub")
	tr.Dir(sub).Expanded = false
	e := newTestEngine(tr, ModeDisc)

	deep := findNode(tr, "deep")
	for _, s := range e.Draw(true) {
		if d, ok := s.(Disc); ok && d.Node == deep {
			t.Fatal("collapsed directory still draws its contents")
		}
	}
	if got := tr.Dir(sub).Deployment; got > geom.Epsilon {
		t.Errorf("collapsed directory deployment = %g, want 0", got)
	}
}
