package layout

import (
	"math"
	"testing"

	"github.com/fsviz/fsviz/internal/anim"
)

func TestLookAtPansAndSettles(t *testing.T) {
	tr := buildTestTree()
	ctx := NewContext(tr)
	sched := anim.NewScheduler(nil)
	e := NewEngine(ctx, sched)
	e.Init(ModeMap)
	cam := e.Camera()
	cam.Init(true)

	big := findNode(tr, "big.txt")
	cam.LookAt(big)

	if !cam.Moving() {
		t.Fatal("camera not moving after look-at")
	}
	if ctx.Current != big {
		t.Errorf("current node = %v, want big.txt", ctx.Current)
	}
	if len(ctx.History) != 1 || ctx.History[0] != tr.Root() {
		t.Errorf("history = %v, want [root]", ctx.History)
	}
	if cam.PanPart != 0.0 {
		t.Errorf("pan part = %g at pan start, want 0", cam.PanPart)
	}

	// Mid-pan the master morph is in flight.
	sched.Advance(0.1)
	if cam.PanPart <= 0.0 || cam.PanPart >= 1.0 {
		t.Errorf("pan part = %g mid-pan", cam.PanPart)
	}

	// Any look-at runs at most the mode's pan time bound.
	sched.Advance(mapCameraMaxPanTime + 0.1)
	if cam.PanPart != 1.0 {
		t.Errorf("pan part = %g after pan window, want 1", cam.PanPart)
	}
	if cam.Moving() {
		t.Error("camera still moving after pan completed")
	}

	// The camera's target settled on the node's center.
	np := &e.tmap.params[big]
	if math.Abs(cam.MapTarget.X-np.centerX()) > 1e-9 {
		t.Errorf("target x = %g, want %g", cam.MapTarget.X, np.centerX())
	}
}

func TestLookAtPreviousBacktracks(t *testing.T) {
	tr := buildTestTree()
	ctx := NewContext(tr)
	sched := anim.NewScheduler(nil)
	e := NewEngine(ctx, sched)
	e.Init(ModeMap)
	cam := e.Camera()
	cam.Init(true)

	big := findNode(tr, "big.txt")
	small := findNode(tr, "small.txt")
	cam.LookAt(big)
	cam.LookAt(small)

	if len(ctx.History) != 2 {
		t.Fatalf("history depth = %d, want 2", len(ctx.History))
	}

	cam.LookAtPrevious()
	if ctx.Current != big {
		t.Errorf("current after backtrack = %v, want big.txt", ctx.Current)
	}
	// Backtracking consumes history instead of growing it.
	if len(ctx.History) != 1 || ctx.History[0] != tr.Root() {
		t.Errorf("history after backtrack = %v, want [root]", ctx.History)
	}
}

func TestManualControlYieldsToLookAt(t *testing.T) {
	tr := buildTestTree()
	ctx := NewContext(tr)
	sched := anim.NewScheduler(nil)
	e := NewEngine(ctx, sched)
	e.Init(ModeMap)
	cam := e.Camera()
	cam.Init(true)

	cam.Dolly(32.0)
	if !cam.ManualControl {
		t.Fatal("dolly did not take manual control")
	}
	if !ctx.NeedRedraw {
		t.Error("dolly did not request a redraw")
	}

	cam.Revolve(10.0, 5.0)
	if cam.Phi < 1.0 || cam.Phi > 90.0 {
		t.Errorf("revolve left phi at %g", cam.Phi)
	}

	cam.LookAt(tr.Root())
	if cam.ManualControl {
		t.Error("look-at did not reclaim the camera")
	}
}

func TestPanBreakDiscardsMorphs(t *testing.T) {
	tr := buildTestTree()
	ctx := NewContext(tr)
	sched := anim.NewScheduler(nil)
	e := NewEngine(ctx, sched)
	e.Init(ModeMap)
	cam := e.Camera()
	cam.Init(true)

	cam.LookAt(findNode(tr, "big.txt"))
	sched.Advance(0.05)
	cam.PanBreak()

	if sched.Morphing(&cam.PanPart) || sched.Morphing(&cam.MapTarget.X) {
		t.Error("pan break left camera morphs active")
	}
	if cam.PanPart >= 1.0 {
		t.Errorf("pan part = %g after break, want partial", cam.PanPart)
	}
}

func TestPanEndSchedulesFollowup(t *testing.T) {
	tr := buildTestTree()
	ctx := NewContext(tr)
	sched := anim.NewScheduler(nil)
	e := NewEngine(ctx, sched)
	e.Init(ModeMap)
	cam := e.Camera()
	cam.Init(true)

	cam.LookAt(findNode(tr, "big.txt"))
	sched.Advance(mapCameraMaxPanTime + 0.1)

	// The post-pan notification runs one frame later, once the final
	// camera state has been drawn.
	if !sched.Pending() {
		t.Fatal("no post-pan event scheduled")
	}
	sched.FireEvents()
	if sched.Pending() {
		t.Error("post-pan event did not fire on the next frame")
	}
}

func TestCameraInitPerMode(t *testing.T) {
	for _, mode := range []Mode{ModeDisc, ModeMap, ModeTree} {
		tr := buildTestTree()
		ctx := NewContext(tr)
		e := NewEngine(ctx, anim.NewScheduler(nil))
		e.Init(mode)
		cam := e.Camera()
		cam.Init(true)

		if cam.Fov != 60.0 {
			t.Errorf("%v: fov = %g, want 60", mode, cam.Fov)
		}
		if cam.Distance <= 0.0 {
			t.Errorf("%v: distance = %g, want > 0", mode, cam.Distance)
		}
		if cam.NearClip <= 0.0 || cam.FarClip <= cam.NearClip {
			t.Errorf("%v: clip planes %g..%g", mode, cam.NearClip, cam.FarClip)
		}
	}
}
