// Package colexp drives directory collapse and expansion: it updates the
// directory-list state up front, then runs staggered deployment morphs so
// cascades roll through the tree one level at a time, and finally points
// the camera somewhere sensible.
package colexp

import (
	"github.com/fsviz/fsviz/internal/anim"
	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/layout"
)

// Duration of a single collapse or expansion, in seconds, per mode.
const (
	DiscColexpTime = 1.5
	MapColexpTime  = 0.375
	TreeColexpTime = 0.5
)

// Request selects a collapse/expand cascade.
type Request int

const (
	// CollapseRecursive closes a directory and everything below it.
	// Deeper levels close first, one level per beat.
	CollapseRecursive Request = iota
	// Expand opens a single directory.
	Expand
	// ExpandAny opens a directory plus any collapsed ancestors, opening
	// from the top of the chain downward.
	ExpandAny
	// ExpandRecursive opens a directory and everything below it,
	// shallower levels first.
	ExpandRecursive
)

func (r Request) String() string {
	switch r {
	case CollapseRecursive:
		return "collapse-recursive"
	case Expand:
		return "expand"
	case ExpandAny:
		return "expand-any"
	case ExpandRecursive:
		return "expand-recursive"
	default:
		return "unknown"
	}
}

// Controller coordinates cascades against one engine and scheduler.
type Controller struct {
	eng   *layout.Engine
	sched *anim.Scheduler
}

// NewController creates a controller over the given engine and its
// animation scheduler.
func NewController(eng *layout.Engine, sched *anim.Scheduler) *Controller {
	return &Controller{eng: eng, sched: sched}
}

// cascade carries the per-request state through the recursion.
type cascade struct {
	time float64
	// maxDepth is the deepest level the cascade reaches. For an
	// expand-recursive it starts at zero and is raised as a high-water
	// mark during the walk.
	maxDepth int
}

func (c *Controller) colexpTime() float64 {
	switch c.eng.Context().Mode {
	case layout.ModeDisc:
		return DiscColexpTime
	case layout.ModeTree:
		return TreeColexpTime
	default:
		return MapColexpTime
	}
}

// Colexp runs a collapse/expand cascade rooted at dnode. Non-directories
// are ignored.
func (c *Controller) Colexp(dnode fstree.NodeID, req Request) {
	ctx := c.eng.Context()
	t := ctx.Tree
	if t.Node(dnode).Kind != fstree.KindDirectory {
		return
	}

	st := &cascade{time: c.colexpTime()}

	// Update the directory list and determine the cascade depth.
	switch req {
	case CollapseRecursive:
		t.EntryCollapseRecursive(dnode)
		st.maxDepth = t.MaxExpandedDepth(dnode)
	case Expand:
		t.EntryExpand(dnode)
	case ExpandAny:
		t.EntryExpand(dnode)
		st.maxDepth = t.CollapsedDepth(dnode)
	case ExpandRecursive:
		t.EntryExpandRecursive(dnode)
	}

	c.recurse(dnode, req, 0, st)

	c.aimCamera(dnode, req, st)
}

func (c *Controller) recurse(dnode fstree.NodeID, req Request, depth int, st *cascade) {
	t := c.eng.Context().Tree
	d := t.Dir(dnode)
	now := c.sched.Now()

	c.sched.Break(&d.Deployment)

	// Levels fire one beat apart; which end of the cascade goes first
	// depends on the direction.
	var waitCount int
	switch req {
	case CollapseRecursive, ExpandAny:
		waitCount = st.maxDepth - depth
	case Expand, ExpandRecursive:
		waitCount = depth
	}
	if waitCount > 0 {
		// Hold at the current value until this level's turn comes.
		c.sched.Morph(&d.Deployment, anim.CurveLinear, d.Deployment,
			float64(waitCount)*st.time, now)
	}

	progress := func(*anim.Morph) {
		c.eng.ColexpInProgress(dnode)
		c.eng.Context().RequestRedraw()
	}
	if req == CollapseRecursive {
		c.sched.MorphFull(&d.Deployment, anim.CurveQuadratic, 0.0, st.time, now,
			progress, progress, dnode)
	} else {
		c.sched.MorphFull(&d.Deployment, anim.CurveInvQuadratic, 1.0, st.time, now,
			progress, progress, dnode)
	}

	// Geometry notification must proceed from parent to children, which
	// puts it at a different point in each walk.
	switch req {
	case Expand:
		c.eng.ColexpInitiated(dnode)

	case ExpandAny:
		if p := t.Node(dnode).Parent; p != fstree.InvalidID && t.Node(p).Kind == fstree.KindDirectory {
			c.recurse(p, ExpandAny, depth+1, st)
		}
		c.eng.ColexpInitiated(dnode)

	case CollapseRecursive, ExpandRecursive:
		c.eng.ColexpInitiated(dnode)
		for ch := t.Node(dnode).FirstChild; ch != fstree.InvalidID; ch = t.Node(ch).NextSibling {
			if t.Node(ch).Kind != fstree.KindDirectory {
				break
			}
			c.recurse(ch, req, depth+1, st)
		}
	}

	if req == ExpandRecursive && depth > st.maxDepth {
		st.maxDepth = depth
	}
}

// aimCamera repositions the camera after a cascade kicks off, unless the
// user has taken manual control.
func (c *Controller) aimCamera(dnode fstree.NodeID, req Request, st *cascade) {
	ctx := c.eng.Context()
	t := ctx.Tree
	cam := c.eng.Camera()

	if cam.ManualControl {
		return
	}

	cur := ctx.Current
	curIsAbove := t.IsAncestor(cur, dnode) || cur == dnode
	curIsBelow := t.IsAncestor(dnode, cur)

	switch req {
	case CollapseRecursive:
		panTime := float64(st.maxDepth+1) * st.time
		if curIsAbove {
			cam.LookAtFull(cur, anim.CurveLinear, panTime)
		} else if curIsBelow {
			// The current node is vanishing; back out to the
			// collapsing directory.
			cam.LookAtFull(dnode, anim.CurveLinear, panTime)
		}

	case Expand, ExpandRecursive:
		if curIsAbove {
			panTime := float64(st.maxDepth+1) * st.time
			cam.LookAtFull(cur, anim.CurveLinear, panTime)
		}

	case ExpandAny:
		// The caller is navigating somewhere specific and will move
		// the camera itself.
	}
}
