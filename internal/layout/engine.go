package layout

import (
	"github.com/fsviz/fsviz/internal/anim"
	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/geom"
)

// modeLayout is the per-mode half of the engine. Exactly one is active,
// chosen at Init; the Engine owns everything mode-independent (draw-stage
// caching, staleness bookkeeping, dispatch).
type modeLayout interface {
	// init lays out the whole tree from scratch and snaps every
	// deployment to its directory-list state.
	init()
	// colexpInitiated runs before a directory starts collapsing or
	// expanding, parent before children.
	colexpInitiated(id fstree.NodeID)
	// colexpStep runs on every animation step of a collapse/expand,
	// after the common staleness checks.
	colexpStep(id fstree.NodeID)
	// panFinished runs one frame after a camera pan completes.
	panFinished()
	// beforeDraw runs at the top of every frame, ahead of the stage
	// protocol.
	beforeDraw()
	drawLow(out *[]Shape)
	drawHigh(out *[]Shape)
}

// dirShapes holds a directory's cached draw lists in its local frame.
type dirShapes struct {
	a, b, c []Shape
}

// Engine builds and caches scene geometry for the active mode.
//
// Rendering runs a three-stage cache protocol, tracked separately for the
// low-detail (geometry) and high-detail (labels, branches) passes: at
// stage 0 the scene is built by full recursion, rebuilding any stale
// per-directory lists along the way; at stage 1 the same full recursion
// runs again and its output is captured whole; from stage 2 on the
// captured list is replayed verbatim. Any structural change zeroes both
// stages.
type Engine struct {
	ctx   *Context
	sched *anim.Scheduler
	cam   *Camera

	lowStage  int
	highStage int
	lowList   []Shape
	highList  []Shape

	mode modeLayout
	disc *discLayout
	tmap *mapLayout
	tree *treeLayout
}

// NewEngine creates an engine over ctx. Init must be called before any
// drawing or query.
func NewEngine(ctx *Context, sched *anim.Scheduler) *Engine {
	e := &Engine{ctx: ctx, sched: sched}
	e.cam = newCamera(e)
	return e
}

// Camera returns the engine's camera.
func (e *Engine) Camera() *Camera { return e.cam }

// Context returns the viewport context the engine operates on.
func (e *Engine) Context() *Context { return e.ctx }

// Init switches to the given mode and lays out the entire tree.
func (e *Engine) Init(mode Mode) {
	t := e.ctx.Tree
	t.Dir(t.MetaRoot()).Deployment = 1.0
	e.QueueRebuild(t.MetaRoot())

	e.ctx.Mode = mode
	e.disc, e.tmap, e.tree = nil, nil, nil
	switch mode {
	case ModeDisc:
		e.disc = newDiscLayout(e)
		e.mode = e.disc
	case ModeMap:
		e.tmap = newMapLayout(e)
		e.mode = e.tmap
	case ModeTree:
		e.tree = newTreeLayout(e)
		e.mode = e.tree
	}
	e.mode.init()
}

// queueUncachedDraw forces the next frame to draw by full recursion.
func (e *Engine) queueUncachedDraw() {
	e.lowStage = 0
	e.highStage = 0
}

// QueueRebuild marks all of a directory's cached geometry stale.
func (e *Engine) QueueRebuild(id fstree.NodeID) {
	d := e.ctx.Tree.Dir(id)
	d.StaleA = true
	d.StaleB = true
	d.StaleC = true
	e.queueUncachedDraw()
}

// DrawStages returns the current low- and high-detail cache stages.
func (e *Engine) DrawStages() (low, high int) { return e.lowStage, e.highStage }

// ColexpInitiated notifies the engine that a directory is about to
// collapse or expand. Callers notify parents before children.
func (e *Engine) ColexpInitiated(id fstree.NodeID) {
	e.mode.colexpInitiated(id)
}

// ColexpInProgress notifies the engine of collapse/expand progress on a
// directory, including the final step. Geometry is rebuilt only when
// deployment crosses the collapsed threshold; otherwise the cached lists
// stay valid and only the aggregate capture is dropped.
func (e *Engine) ColexpInProgress(id fstree.NodeID) {
	d := e.ctx.Tree.Dir(id)
	if d.GeomExpanded != (d.Deployment > geom.Epsilon) {
		e.QueueRebuild(id)
	} else {
		e.queueUncachedDraw()
	}
	e.mode.colexpStep(id)
}

// PanFinished notifies the engine that a camera pan has completed.
func (e *Engine) PanFinished() {
	e.mode.panFinished()
}

// Draw produces the frame's draw list. The high-detail pass (labels,
// connective geometry) is skipped while highDetail is false, which is how
// frames stay cheap during animation.
func (e *Engine) Draw(highDetail bool) []Shape {
	e.mode.beforeDraw()

	var out []Shape
	if e.lowStage <= 1 {
		e.mode.drawLow(&out)
		if e.lowStage == 1 {
			e.lowList = append([]Shape(nil), out...)
		}
		e.lowStage++
	} else {
		out = append(out, e.lowList...)
	}

	if highDetail {
		if e.highStage <= 1 {
			mark := len(out)
			e.mode.drawHigh(&out)
			if e.highStage == 1 {
				e.highList = append([]Shape(nil), out[mark:]...)
			}
			e.highStage++
		} else {
			out = append(out, e.highList...)
		}
	}

	return out
}

// growShapeCache sizes a per-directory cache slice to the tree.
func (e *Engine) growShapeCache(cache []dirShapes) []dirShapes {
	if n := e.ctx.Tree.Len(); len(cache) < n {
		grown := make([]dirShapes, n)
		copy(grown, cache)
		return grown
	}
	return cache
}
