package layout

import (
	"math"
	"sort"

	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/geom"
)

const (
	// Angular range available to a directory's children; the remaining
	// 45 degrees keep the stem direction clear.
	discLeafRangeArcWidth = 315.0
	// Stem length between a disc and its parent, as a fraction of the
	// disc's radius.
	discLeafStemProportion = 0.5
)

// discParams is a node's geometry in disc mode. Positions are relative to
// the parent disc's center.
type discParams struct {
	radius float64
	theta  float64
	pos    geom.XY
}

type discLayout struct {
	e      *Engine
	params []discParams
	cache  []dirShapes
}

func newDiscLayout(e *Engine) *discLayout {
	n := e.ctx.Tree.Len()
	return &discLayout{
		e:      e,
		params: make([]discParams, n),
		cache:  make([]dirShapes, n),
	}
}

// nodeWeight is the size driving a node's disc area.
func nodeWeight(t *fstree.Tree, id fstree.NodeID, floor int64) int64 {
	n := t.Node(id)
	size := n.Size
	if size < floor {
		size = floor
	}
	if n.Dir != nil {
		size += n.Dir.SubtreeSize
	}
	return size
}

func (l *discLayout) init() {
	t := l.e.ctx.Tree
	meta := t.MetaRoot()
	l.params[meta].radius = 0.0
	l.params[meta].theta = 0.0

	l.initRecursive(meta, 270.0)

	// Center the view on the root disc.
	l.params[meta].pos = geom.XY{X: 0.0, Y: -l.params[t.Root()].radius}
}

// initRecursive assigns disc geometry to the children of dnode and
// recurses. stemTheta is the direction back toward dnode's own parent.
func (l *discLayout) initRecursive(dnode fstree.NodeID, stemTheta float64) {
	t := l.e.ctx.Tree

	if t.Node(dnode).Kind == fstree.KindDirectory {
		d := t.Dir(dnode)
		l.e.sched.Break(&d.Deployment)
		if d.Expanded {
			d.Deployment = 1.0
		} else {
			d.Deployment = 0.0
		}
		l.e.QueueRebuild(dnode)
	}

	children := t.Children(dnode)
	if len(children) == 0 {
		return
	}

	dirRadius := l.params[dnode].radius

	// First pass: radii and tentative arc widths.
	totalArcWidth := 0.0
	for _, c := range children {
		weight := nodeWeight(t, c, 64)
		radius := math.Sqrt(float64(weight) / math.Pi)
		dist := dirRadius + radius*(1.0+discLeafStemProportion)
		arcWidth := 2.0 * geom.Deg(math.Asin(radius/dist))
		p := &l.params[c]
		p.radius = radius
		p.theta = arcWidth // temporary
		p.pos.X = dist     // temporary
		totalArcWidth += arcWidth
	}

	// Largest discs are placed first, nearest the far side of the stem.
	sorted := append([]fstree.NodeID(nil), children...)
	sort.SliceStable(sorted, func(i, j int) bool {
		wi, wj := nodeWeight(t, sorted[i], 0), nodeWeight(t, sorted[j], 0)
		if wi != wj {
			return wi > wj
		}
		return t.Node(sorted[i]).Name < t.Node(sorted[j]).Name
	})

	k := discLeafRangeArcWidth / totalArcWidth
	// A tight fit: alternate discs between two rings.
	stagger := k <= 1.0

	theta0 := stemTheta - 180.0
	theta1 := stemTheta + 180.0
	even := true
	out := true
	for i, c := range sorted {
		p := &l.params[c]
		arcWidth := k * p.theta
		dist := p.pos.X
		if stagger && out {
			dist += 2.0 * p.radius
		}
		switch {
		case i == 0:
			p.theta = theta0
			theta0 += 0.5 * arcWidth
			theta1 -= 0.5 * arcWidth
			out = !out
		case even:
			p.theta = theta0 + 0.5*arcWidth
			theta0 += arcWidth
			out = !out
		default:
			p.theta = theta1 - 0.5*arcWidth
			theta1 -= arcWidth
		}
		p.pos.X = dist * math.Cos(geom.Rad(p.theta))
		p.pos.Y = dist * math.Sin(geom.Rad(p.theta))
		if t.Node(c).IsDir() {
			l.initRecursive(c, p.theta+180.0)
		}
		even = !even
	}
}

// nodePos returns a node's absolute position.
func (l *discLayout) nodePos(id fstree.NodeID) geom.XY {
	var pos geom.XY
	for n := id; n != fstree.InvalidID; n = l.e.ctx.Tree.Node(n).Parent {
		pos.X += l.params[n].pos.X
		pos.Y += l.params[n].pos.Y
	}
	return pos
}

func (l *discLayout) colexpInitiated(fstree.NodeID) {}
func (l *discLayout) colexpStep(fstree.NodeID)      {}
func (l *discLayout) panFinished()                  {}
func (l *discLayout) beforeDraw()                   {}

// discXform maps a directory's local frame to world coordinates:
// world = off + scale*local.
type discXform struct {
	off   geom.XY
	scale float64
}

func (x discXform) point(p geom.XY) geom.XY {
	return geom.XY{X: x.off.X + x.scale*p.X, Y: x.off.Y + x.scale*p.Y}
}

const (
	discActionGeometry = iota
	discActionLabels
)

func (l *discLayout) drawLow(out *[]Shape) {
	l.cache = l.e.growShapeCache(l.cache)
	l.drawRecursive(l.e.ctx.Tree.MetaRoot(), discXform{scale: 1.0}, discActionGeometry, out)
}

func (l *discLayout) drawHigh(out *[]Shape) {
	l.cache = l.e.growShapeCache(l.cache)
	l.drawRecursive(l.e.ctx.Tree.MetaRoot(), discXform{scale: 1.0}, discActionLabels, out)
}

// buildDir produces the discs of dnode's children, in dnode's local frame.
func (l *discLayout) buildDir(dnode fstree.NodeID) []Shape {
	t := l.e.ctx.Tree
	var shapes []Shape
	for c := t.Node(dnode).FirstChild; c != fstree.InvalidID; c = t.Node(c).NextSibling {
		p := &l.params[c]
		shapes = append(shapes, Disc{
			Node:   c,
			Kind:   t.Node(c).Kind,
			Center: p.pos,
			Radius: p.radius,
		})
	}
	return shapes
}

// buildLabels produces name labels for dnode's children, local frame.
func (l *discLayout) buildLabels(dnode fstree.NodeID) []Shape {
	t := l.e.ctx.Tree
	var shapes []Shape
	for c := t.Node(dnode).FirstChild; c != fstree.InvalidID; c = t.Node(c).NextSibling {
		p := &l.params[c]
		shapes = append(shapes, Label{
			Node: c,
			Text: t.Node(c).Name,
			Pos:  geom.XYZ{X: p.pos.X, Y: p.pos.Y},
		})
	}
	return shapes
}

func (l *discLayout) drawRecursive(dnode fstree.NodeID, xf discXform, action int, out *[]Shape) {
	t := l.e.ctx.Tree
	d := t.Dir(dnode)
	p := &l.params[dnode]

	collapsed := d.Collapsed()
	expanded := d.FullyExpanded()

	// Children live in a frame translated to this disc's center and
	// scaled by its deployment.
	inner := discXform{off: xf.point(p.pos), scale: xf.scale * d.Deployment}

	cache := &l.cache[dnode]
	if action == discActionGeometry {
		if d.StaleA {
			cache.a = nil
			if !collapsed {
				cache.a = l.buildDir(dnode)
			}
			d.StaleA = false
		}
		emitDisc(out, cache.a, inner)
	}
	if action == discActionLabels {
		if d.StaleB {
			cache.b = l.buildLabels(dnode)
			d.StaleB = false
		}
		emitDisc(out, cache.b, inner)
	}

	d.GeomExpanded = !collapsed

	if expanded {
		for c := t.Node(dnode).FirstChild; c != fstree.InvalidID; c = t.Node(c).NextSibling {
			if !t.Node(c).IsDir() {
				break
			}
			l.drawRecursive(c, inner, action, out)
		}
	}
}

// emitDisc appends local shapes to the frame list, transformed to world
// coordinates.
func emitDisc(out *[]Shape, local []Shape, xf discXform) {
	for _, s := range local {
		switch s := s.(type) {
		case Disc:
			s.Center = xf.point(s.Center)
			s.Radius *= xf.scale
			*out = append(*out, s)
		case Label:
			p := xf.point(geom.XY{X: s.Pos.X, Y: s.Pos.Y})
			s.Pos = geom.XYZ{X: p.X, Y: p.Y}
			*out = append(*out, s)
		}
	}
}
