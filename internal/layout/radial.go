package layout

import (
	"math"

	"github.com/fsviz/fsviz/internal/anim"
	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/geom"
)

const (
	// Bounds on the root subtree's angular span; the core radius grows
	// or shrinks until the span falls inside them.
	treeMinArcWidth = 90.0
	treeMaxArcWidth = 225.0

	treeBranchWidth      = 256.0
	treeMinCoreRadius    = 8192.0
	treeCoreGrowFactor   = 1.25
	treePlatformHeight   = 158.2
	treeSpacingWidth     = 512.0
	treeSpacingDepth     = 2048.0
	treeLeafNodeEdge     = 256.0
	treeLeafHeightMult   = 1.0
	treeCoreSpreadBudget = 64

	treeEdge05 = 0.5 * treeLeafNodeEdge
	treeEdge15 = 1.5 * treeLeafNodeEdge
)

// treeParams is a node's geometry in tree mode. Leaf fields are relative
// to the parent platform's radial centerline; platform theta is relative
// to the parent's centerline.
type treeParams struct {
	leaf struct {
		distance float64
		theta    float64
		height   float64
	}
	platform struct {
		theta           float64
		depth           float64
		arcWidth        float64
		subtreeArcWidth float64
		height          float64
	}
	needRearrange bool
}

type treeLayout struct {
	e          *Engine
	params     []treeParams
	cache      []dirShapes
	coreRadius float64
}

func newTreeLayout(e *Engine) *treeLayout {
	n := e.ctx.Tree.Len()
	return &treeLayout{
		e:      e,
		params: make([]treeParams, n),
		cache:  make([]dirShapes, n),
	}
}

func (l *treeLayout) init() {
	t := l.e.ctx.Tree
	meta := t.MetaRoot()
	root := t.Root()

	l.coreRadius = treeMinCoreRadius

	mp := &l.params[meta]
	mp.platform.theta = 90.0
	mp.platform.depth = 0.0
	mp.platform.arcWidth = treeMaxArcWidth
	mp.platform.height = 0.0

	rp := &l.params[root]
	rp.leaf.theta = 0.0
	rp.leaf.distance = 0.5 * treeSpacingDepth
	rp.platform.theta = 0.0

	l.initRecursive(meta)
	l.arrange(true)
}

func (l *treeLayout) initRecursive(dnode fstree.NodeID) {
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
	l.params[dnode].needRearrange = false

	for c := t.Node(dnode).FirstChild; c != fstree.InvalidID; c = t.Node(c).NextSibling {
		weight := nodeWeight(t, c, 64)
		if t.Node(c).IsDir() {
			l.params[c].platform.height = treePlatformHeight
			l.initRecursive(c)
		}
		l.params[c].leaf.height = math.Sqrt(float64(weight)) * treeLeafHeightMult
	}
}

// isLeaf reports whether a node currently renders in leaf form. Expanded
// directories render as platforms.
func (l *treeLayout) isLeaf(id fstree.NodeID) bool {
	t := l.e.ctx.Tree
	return !(t.Node(id).Kind == fstree.KindDirectory && t.EntryExpanded(id))
}

// platformR0 returns the inner radius of a directory platform.
func (l *treeLayout) platformR0(dnode fstree.NodeID) float64 {
	t := l.e.ctx.Tree
	if t.Node(dnode).Kind == fstree.KindMeta {
		return l.coreRadius
	}
	r0 := l.coreRadius
	for p := t.Node(dnode).Parent; p != fstree.InvalidID; p = t.Node(p).Parent {
		r0 += treeSpacingDepth + l.params[p].platform.depth
	}
	return r0
}

// platformTheta returns the absolute angular position of a platform's
// radial centerline.
func (l *treeLayout) platformTheta(dnode fstree.NodeID) float64 {
	t := l.e.ctx.Tree
	theta := 0.0
	for n := dnode; n != fstree.InvalidID; n = t.Node(n).Parent {
		theta += l.params[n].platform.theta
	}
	return theta
}

// maxLeafHeight returns the height of the tallest leaf on a platform.
func (l *treeLayout) maxLeafHeight(dnode fstree.NodeID) float64 {
	t := l.e.ctx.Tree
	maxHeight := 0.0
	for c := t.Node(dnode).FirstChild; c != fstree.InvalidID; c = t.Node(c).NextSibling {
		if l.isLeaf(c) {
			maxHeight = math.Max(maxHeight, l.params[c].leaf.height)
		}
	}
	return maxHeight
}

func (l *treeLayout) extentsRecursive(dnode fstree.NodeID, c0, c1 *geom.RT, r0, theta float64) {
	t := l.e.ctx.Tree
	subtreeR0 := r0 + l.params[dnode].platform.depth + treeSpacingDepth
	for c := t.Node(dnode).FirstChild; c != fstree.InvalidID; c = t.Node(c).NextSibling {
		if !l.isLeaf(c) {
			l.extentsRecursive(c, c0, c1, subtreeR0, theta+l.params[c].platform.theta)
		}
		if !t.Node(c).IsDir() {
			break
		}
	}
	p := &l.params[dnode]
	c0.R = math.Min(c0.R, r0)
	c0.Theta = math.Min(c0.Theta, theta-p.platform.arcWidth)
	c1.R = math.Max(c1.R, r0+p.platform.depth)
	c1.Theta = math.Max(c1.Theta, theta+p.platform.arcWidth)
}

// extents returns the polar bounding region of the expanded subtree rooted
// at dnode, platform included.
func (l *treeLayout) extents(dnode fstree.NodeID) (geom.RT, geom.RT) {
	c0 := geom.RT{R: math.MaxFloat64, Theta: math.MaxFloat64}
	c1 := geom.RT{R: -math.MaxFloat64, Theta: -math.MaxFloat64}
	l.extentsRecursive(dnode, &c0, &c1, l.platformR0(dnode), l.platformTheta(dnode))
	return c0, c1
}

// reshape assigns an arc width and estimated depth to a directory
// platform with inner radius r0. The estimate assumes one leaf slot per
// immediate child and solves for the depth that gives the platform's
// outer edge a square aspect against that depth; the cubic this yields is
// solved in Cardano's trigonometric form. The real depth is settled when
// the leaf rows are actually laid down.
func (l *treeLayout) reshape(dnode fstree.NodeID, r0 float64) {
	const (
		w  = treeSpacingWidth
		w2 = w * w
		w3 = w2 * w
		w4 = w2 * w2
	)

	n := len(l.e.ctx.Tree.Children(dnode))
	k := treeEdge15*math.Ceil(math.Sqrt(float64(max(1, n)))) + treeEdge05
	area := geom.Sqr(k)

	A := area
	A2 := geom.Sqr(A)
	A3 := A * A2
	r := r0
	r2 := geom.Sqr(r)
	r3 := r * r2
	r4 := geom.Sqr(r2)
	ka := 72.0*(A*r-w*(A+r)) - 64.0*r3 + 48.0*r2*w - 36.0*w2 + 24.0*r*w2 - 8.0*w3
	t1 := 72.0*A*w2 - 132.0*A*r*w2 - 240.0*A*w*r3 + 120.0*A*w2*r2 - 24.0*A2*w*r - 60.0*w3*r
	t2 := 12.0 * (w2*r2 + A2*w2 - w4*r + w4*r2 + A*w3 + w3)
	t3 := 48.0*(w2*r4-w2*r3-w3*r3) + 96.0*(A3+w3*r2)
	t4 := 192.0*A*r4 + 156.0*A2*r2 + 3.0*w4 + 144.0*A2*w + 264.0*A*w*r2
	kb := 12.0 * math.Sqrt(t1+t2+t3+t4)
	kc := math.Cos(math.Atan2(kb, ka) / 3.0)
	kd := math.Cbrt(math.Hypot(ka, kb))
	d := (-w-2.0*r)/3.0 + ((8.0*r2-4.0*w*r+2.0*w2)/3.0+4.0*A+2.0*w)*kc/kd + kc*kd/6.0
	theta := 180.0 * (d + w) / (math.Pi * (r + d))

	// Round depth up to a whole number of leaf rows.
	depth := d
	depth += (treeEdge15 - math.Mod(depth-treeEdge05, treeEdge15)) + treeEdge05

	// The inner edge must fit at least two leaf nodes.
	minArcWidth := (180.0 * (2.0*treeLeafNodeEdge + treeSpacingWidth) / math.Pi) / r0

	p := &l.params[dnode]
	p.platform.arcWidth = math.Max(minArcWidth, theta)
	p.platform.depth = depth

	l.e.QueueRebuild(dnode)
}

// arrangeRecursive spreads the subtrees under dnode by their
// deployment-weighted arc widths. reshapeTree forces a reshape of every
// expanded platform, as needed when inner radii have changed.
func (l *treeLayout) arrangeRecursive(dnode fstree.NodeID, r0 float64, reshapeTree bool) {
	t := l.e.ctx.Tree

	if !reshapeTree && !l.params[dnode].needRearrange {
		return
	}

	if reshapeTree && t.Node(dnode).Kind == fstree.KindDirectory {
		if l.isLeaf(dnode) {
			// A directory in leaf form only needs repositioning.
			l.e.QueueRebuild(dnode)
			return
		}
		l.reshape(dnode, r0)
	}

	subtreeR0 := r0 + l.params[dnode].platform.depth + treeSpacingDepth
	subtreeArcWidth := 0.0
	for c := t.Node(dnode).FirstChild; c != fstree.InvalidID; c = t.Node(c).NextSibling {
		if !t.Node(c).IsDir() {
			break
		}
		l.arrangeRecursive(c, subtreeR0, reshapeTree)
		cp := &l.params[c]
		arcWidth := t.Dir(c).Deployment * math.Max(cp.platform.arcWidth, cp.platform.subtreeArcWidth)
		cp.platform.theta = arcWidth // temporary
		subtreeArcWidth += arcWidth
	}
	l.params[dnode].platform.subtreeArcWidth = subtreeArcWidth

	// Spread the subtrees, sweeping counterclockwise.
	theta := -0.5 * subtreeArcWidth
	for c := t.Node(dnode).FirstChild; c != fstree.InvalidID; c = t.Node(c).NextSibling {
		if !t.Node(c).IsDir() {
			break
		}
		cp := &l.params[c]
		arcWidth := cp.platform.theta
		cp.platform.theta = theta + 0.5*arcWidth
		theta += arcWidth
	}

	l.params[dnode].needRearrange = false
}

// arrange lays out the expanded tree, then resizes the central core until
// the root subtree's span is within bounds. The resize loop is budgeted;
// each growth step strictly narrows the span, so running out of budget
// means the spread failed to converge and the last layout stands.
func (l *treeLayout) arrange(initialArrange bool) {
	t := l.e.ctx.Tree
	meta := t.MetaRoot()

	l.arrangeRecursive(meta, l.coreRadius, initialArrange)

	resized := false
	for i := 0; i < treeCoreSpreadBudget; i++ {
		mp := &l.params[meta]
		if mp.platform.subtreeArcWidth > treeMaxArcWidth {
			l.coreRadius *= treeCoreGrowFactor
			l.arrangeRecursive(meta, l.coreRadius, true)
			resized = true
		} else if mp.platform.subtreeArcWidth < treeMinArcWidth && mp.platform.depth > treeMinCoreRadius {
			l.coreRadius = math.Max(treeMinCoreRadius, l.coreRadius/treeCoreGrowFactor)
			l.arrangeRecursive(meta, l.coreRadius, true)
			resized = true
		} else {
			break
		}
	}

	if resized && l.e.cam.Moving() {
		// The camera's destination moved out from under it.
		l.e.cam.PanBreak()
		l.e.cam.LookAtFull(l.e.ctx.Current, anim.CurveInvQuadratic, -1.0)
	}
}

// queueRearrange flags the whole ancestor chain of a collapsing or
// expanding directory so the next arrange pass revisits it, and marks the
// connective geometry along the way for rebuilding.
func (l *treeLayout) queueRearrange(dnode fstree.NodeID) {
	t := l.e.ctx.Tree
	for up := dnode; up != fstree.InvalidID; up = t.Node(up).Parent {
		l.params[up].needRearrange = true
		if d := t.Node(up).Dir; d != nil {
			d.StaleB = true
		}
	}
	l.e.queueUncachedDraw()
}

func (l *treeLayout) colexpInitiated(id fstree.NodeID) {
	// A newly expanding directory may be appearing for the first time,
	// or its inner radius may have changed; either way it needs shape.
	if l.e.ctx.Tree.Dir(id).Collapsed() {
		l.reshape(id, l.platformR0(id))
	}
}

func (l *treeLayout) colexpStep(id fstree.NodeID) {
	l.queueRearrange(id)
}

func (l *treeLayout) panFinished() {}

func (l *treeLayout) beforeDraw() {
	if low, high := l.e.DrawStages(); low == 0 || high == 0 {
		l.arrange(false)
	}
}

// treeXform maps platform-local polar coordinates to world coordinates:
// a rotation about the core plus, while a directory is partially
// deployed, a uniform contraction toward its leaf position.
type treeXform struct {
	theta      float64
	scale      float64
	pivotR     float64
	pivotTheta float64
}

func (x treeXform) apply(r, theta, z float64) (float64, float64, float64) {
	theta += x.theta
	if x.scale != 1.0 {
		r = x.pivotR + x.scale*(r-x.pivotR)
		theta = x.pivotTheta + x.scale*(theta-x.pivotTheta)
		z *= x.scale
	}
	return r, theta, z
}

func (x treeXform) rotated(dt float64) treeXform {
	x.theta += dt
	return x
}

func (x treeXform) scaledAbout(r, theta, s float64) treeXform {
	pr, pt, _ := x.apply(r, theta, 0.0)
	x.pivotR = pr
	x.pivotTheta = pt
	x.scale *= s
	return x
}

const (
	treeActionLabels = iota
	treeActionGeometry
	treeActionGeometryWithBranches
)

func (l *treeLayout) drawLow(out *[]Shape) {
	l.cache = l.e.growShapeCache(l.cache)
	l.drawRecursive(l.e.ctx.Tree.MetaRoot(), 0.0, l.coreRadius,
		treeActionGeometryWithBranches, treeXform{scale: 1.0}, out)
}

func (l *treeLayout) drawHigh(out *[]Shape) {
	l.cache = l.e.growShapeCache(l.cache)
	l.drawRecursive(l.e.ctx.Tree.MetaRoot(), 0.0, l.coreRadius,
		treeActionLabels, treeXform{scale: 1.0}, out)
}

// leafArcWidth is the angular extent of a leaf node at radius r.
func leafArcWidth(edge, r float64) float64 {
	return (180.0 * edge / math.Pi) / r
}

// buildLeaf produces a node's leaf form in its parent platform's frame.
// fullNode distinguishes a real leaf from the flat marker occupying a
// directory's slot on its parent platform.
func (l *treeLayout) buildLeaf(node fstree.NodeID, r0 float64, fullNode bool) Shape {
	t := l.e.ctx.Tree
	p := &l.params[node]

	edge := treeLeafNodeEdge
	height := p.leaf.height
	if fullNode {
		if d := t.Node(node).Dir; d != nil {
			height *= 1.0 - d.Deployment
		}
	} else {
		edge = 0.875 * treeLeafNodeEdge
		height = treeLeafNodeEdge / 64.0
	}

	r := r0 + p.leaf.distance
	arc := leafArcWidth(edge, r)
	z0 := l.params[t.Node(node).Parent].platform.height
	return Sector{
		Node:   node,
		Kind:   t.Node(node).Kind,
		R0:     r - 0.5*edge,
		R1:     r + 0.5*edge,
		Theta0: p.leaf.theta - 0.5*arc,
		Theta1: p.leaf.theta + 0.5*arc,
		Z0:     z0,
		Z1:     z0 + height,
	}
}

// buildDir lays the children of dnode into concentric leaf rows on its
// platform, settling the platform's official depth, and produces the leaf
// and platform geometry in the platform's frame.
func (l *treeLayout) buildDir(dnode fstree.NodeID, r0 float64) []Shape {
	t := l.e.ctx.Tree
	children := t.Children(dnode)
	p := &l.params[dnode]

	var shapes []Shape

	// Rows run from the inner edge outward, which means laying nodes
	// down in reverse order.
	remaining := len(children)
	posR := r0 + treeLeafNodeEdge
	i := len(children) - 1
	for i >= 0 {
		arcLen := (math.Pi/180.0)*posR*p.platform.arcWidth - treeSpacingWidth
		rowCount := int(math.Floor((arcLen - treeEdge05) / treeEdge15))
		if rowCount < 1 {
			rowCount = 1
		}
		interArc := leafArcWidth(treeEdge15, posR)

		posTheta := 0.5 * interArc * float64(min(rowCount, remaining)-1)
		for n := 0; n < rowCount && i >= 0; n++ {
			c := children[i]
			cp := &l.params[c]
			cp.leaf.theta = posTheta
			cp.leaf.distance = posR - r0
			shapes = append(shapes, l.buildLeaf(c, r0, !t.Node(c).IsDir()))
			posTheta -= interArc
			i--
		}

		remaining -= rowCount
		posR += treeEdge15
	}

	// Official directory depth.
	posR -= treeEdge05
	p.platform.depth = posR - r0

	shapes = append(shapes, Sector{
		Node:   dnode,
		Kind:   fstree.KindDirectory,
		R0:     r0,
		R1:     r0 + p.platform.depth,
		Theta0: -0.5 * p.platform.arcWidth,
		Theta1: 0.5 * p.platform.arcWidth,
		Z0:     0.0,
		Z1:     p.platform.height,
	})
	return shapes
}

func (l *treeLayout) leafLabel(node fstree.NodeID, r0 float64) Shape {
	t := l.e.ctx.Tree
	p := &l.params[node]
	height := p.leaf.height
	if d := t.Node(node).Dir; d != nil {
		height *= 1.0 - d.Deployment
	}
	r := r0 + p.leaf.distance
	return Label{
		Node: node,
		Text: t.Node(node).Name,
		Pos: geom.XYZ{
			X: r * math.Cos(geom.Rad(p.leaf.theta)),
			Y: r * math.Sin(geom.Rad(p.leaf.theta)),
			Z: height + l.params[t.Node(node).Parent].platform.height,
		},
	}
}

func (l *treeLayout) platformLabel(dnode fstree.NodeID, r0 float64) Shape {
	r := r0 - 0.0625*treeSpacingDepth
	return Label{
		Node: dnode,
		Text: l.e.ctx.Tree.Node(dnode).Name,
		Pos:  geom.XYZ{X: r},
	}
}

func (l *treeLayout) drawRecursive(dnode fstree.NodeID, prevR0, r0 float64, action int, xf treeXform, out *[]Shape) bool {
	t := l.e.ctx.Tree
	d := t.Dir(dnode)
	p := &l.params[dnode]

	collapsed := d.Collapsed()
	expanded := d.FullyExpanded()

	if !collapsed {
		if !expanded {
			// Partially deployed: draw the shrinking or growing
			// leaf form directly, and contract the platform
			// toward its leaf position.
			if action >= treeActionGeometry {
				*out = append(*out, emitTree(l.buildLeaf(dnode, prevR0, true), xf))
			} else {
				*out = append(*out, emitTree(l.leafLabel(dnode, prevR0), xf))
			}
			xf = xf.scaledAbout(prevR0+p.leaf.distance, p.leaf.theta, d.Deployment)
		}
		xf = xf.rotated(p.platform.theta)
	}

	cache := &l.cache[dnode]
	if action >= treeActionGeometry {
		if d.StaleA {
			cache.a = nil
			if collapsed {
				cache.a = []Shape{l.buildLeaf(dnode, prevR0, true)}
			} else if t.Node(dnode).Kind == fstree.KindDirectory {
				cache.a = l.buildDir(dnode, r0)
			}
			d.StaleA = false
		}
		for _, s := range cache.a {
			*out = append(*out, emitTree(s, xf))
		}
	}

	var firstChild, lastChild fstree.NodeID = fstree.InvalidID, fstree.InvalidID
	if !collapsed {
		subtreeR0 := r0 + p.platform.depth + treeSpacingDepth
		for c := t.Node(dnode).FirstChild; c != fstree.InvalidID; c = t.Node(c).NextSibling {
			if !t.Node(c).IsDir() {
				break
			}
			if l.drawRecursive(c, r0, subtreeR0, action, xf, out) {
				if firstChild == fstree.InvalidID {
					firstChild = c
				}
				lastChild = c
			}
		}
	}

	if expanded && action == treeActionGeometryWithBranches {
		if d.StaleB {
			cache.b = nil
			if t.Node(dnode).Kind == fstree.KindMeta {
				cache.b = append(cache.b,
					Branch{Kind: BranchLoop, R0: r0, R1: r0},
					Branch{Kind: BranchOut, R0: r0, R1: r0})
			} else {
				cache.b = append(cache.b, Branch{
					Kind: BranchIn,
					R0:   r0 - treeSpacingDepth,
					R1:   r0,
				})
				if firstChild != fstree.InvalidID {
					cache.b = append(cache.b, Branch{
						Kind:   BranchOut,
						R0:     r0 + p.platform.depth,
						R1:     r0 + p.platform.depth,
						Theta0: math.Min(0.0, l.params[firstChild].platform.theta),
						Theta1: math.Max(0.0, l.params[lastChild].platform.theta),
					})
				}
			}
			d.StaleB = false
		}
		for _, s := range cache.b {
			*out = append(*out, emitTree(s, xf))
		}
	}

	if action == treeActionLabels {
		if d.StaleC {
			cache.c = nil
			if collapsed {
				cache.c = []Shape{l.leafLabel(dnode, prevR0)}
			} else if t.Node(dnode).Kind == fstree.KindDirectory {
				cache.c = append(cache.c, l.platformLabel(dnode, r0))
				for c := t.Node(dnode).FirstChild; c != fstree.InvalidID; c = t.Node(c).NextSibling {
					if !t.Node(c).IsDir() {
						cache.c = append(cache.c, l.leafLabel(c, r0))
					}
				}
			}
			d.StaleC = false
		}
		for _, s := range cache.c {
			*out = append(*out, emitTree(s, xf))
		}
	}

	d.GeomExpanded = !collapsed

	return expanded
}

// emitTree transforms a platform-local shape to world coordinates.
func emitTree(s Shape, xf treeXform) Shape {
	switch s := s.(type) {
	case Sector:
		var z1 float64
		s.R0, s.Theta0, _ = xf.apply(s.R0, s.Theta0, 0.0)
		s.R1, s.Theta1, z1 = xf.apply(s.R1, s.Theta1, s.Z1)
		s.Z0 *= xf.scale
		s.Z1 = z1
		return s
	case Branch:
		s.R0, s.Theta0, _ = xf.apply(s.R0, s.Theta0, 0.0)
		s.R1, s.Theta1, _ = xf.apply(s.R1, s.Theta1, 0.0)
		return s
	case Label:
		r := math.Hypot(s.Pos.X, s.Pos.Y)
		theta := geom.Deg(math.Atan2(s.Pos.Y, s.Pos.X))
		var z float64
		r, theta, z = xf.apply(r, theta, s.Pos.Z)
		s.Pos = geom.XYZ{
			X: r * math.Cos(geom.Rad(theta)),
			Y: r * math.Sin(geom.Rad(theta)),
			Z: z,
		}
		return s
	}
	return s
}
