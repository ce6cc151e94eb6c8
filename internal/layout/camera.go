package layout

import (
	"math"

	"github.com/fsviz/fsviz/internal/anim"
	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/geom"
)

const (
	camNearToDistanceRatio = 0.5
	camFarToNearRatio      = 128.0

	// Lower and upper bounds on pan times, in seconds.
	discCameraMinPanTime = 0.5
	discCameraMaxPanTime = 3.0
	mapCameraMinPanTime  = 0.5
	mapCameraMaxPanTime  = 4.0
	treeCameraMinPanTime = 1.0
	treeCameraMaxPanTime = 4.0

	treeCameraAvgVelocity = 1024.0
)

// Camera holds the viewpoint: spherical angles and distance around a view
// target, which is tracked in whatever coordinate system the active mode
// lays out in. Every field pans by morphing, so a frame's view is always a
// consistent snapshot.
type Camera struct {
	e *Engine

	Fov      float64
	Theta    float64
	Phi      float64
	Distance float64
	NearClip float64
	FarClip  float64

	// PanPart runs 0 to 1 over a pan; it is the master morph that the
	// per-frame and end-of-pan callbacks ride on.
	PanPart float64

	DiscTarget geom.XY
	MapTarget  geom.XYZ
	TreeTarget geom.RTZ

	// ManualControl is set when the user drives the camera directly.
	// Automatic pans triggered by collapses and expansions stand down
	// until the next explicit look-at.
	ManualControl bool

	moving       bool
	backtracking bool
}

func newCamera(e *Engine) *Camera {
	return &Camera{e: e, Fov: 60.0, PanPart: 1.0}
}

// Moving reports whether a camera pan is underway.
func (c *Camera) Moving() bool { return c.moving }

// fieldDiameter is the diameter of the camera's visible range, centered at
// the target, for the given field of view and target distance.
func fieldDiameter(fov, distance float64) float64 {
	return 2.0 * distance * math.Tan(geom.Rad(0.5*fov))
}

// fieldDistance is the inverse of fieldDiameter: how far the camera must
// be for a target of the given diameter to fill the field of view.
func fieldDistance(fov, diameter float64) float64 {
	return diameter * (0.5 / math.Tan(geom.Rad(0.5*fov)))
}

// Init snaps the camera to the mode's home position. initialView
// distinguishes the first look at a freshly scanned tree from a
// re-initialization after a mode switch, which starts farther out.
func (c *Camera) Init(initialView bool) {
	e := c.e
	root := e.ctx.Tree.Root()

	c.Fov = 60.0
	c.PanPart = 1.0

	switch e.ctx.Mode {
	case ModeDisc:
		d := fieldDistance(c.Fov, 2.0*e.disc.params[root].radius)
		if initialView {
			c.Distance = 2.0 * d
		} else {
			c.Distance = 3.0 * d
		}
		c.DiscTarget = geom.XY{}
		c.NearClip = 0.9375 * c.Distance
		c.FarClip = 1.0625 * c.Distance

	case ModeMap:
		rp := &e.tmap.params[root]
		d1 := fieldDistance(c.Fov, rp.width())
		d2 := rp.height + e.tmap.maxExpandedHeight(root)
		d := math.Max(d1, d2)
		if initialView {
			c.Theta = 270.0
			c.Phi = 0.0
			c.Distance = 4.0 * d
			c.MapTarget = geom.XYZ{}
		} else if e.ctx.Current == root {
			c.Theta = 270.0
			c.Phi = 90.0
			c.Distance = 1.05 * d2 / camNearToDistanceRatio
			c.MapTarget = geom.XYZ{Y: rp.c1.Y + c.Distance}
		} else {
			c.Theta = 270.0
			c.Phi = 90.0
			c.Distance = 1.5 * d
			c.MapTarget = geom.XYZ{}
		}
		c.NearClip = camNearToDistanceRatio * c.Distance
		c.FarClip = camFarToNearRatio * c.NearClip

	case ModeTree:
		_, c1 := e.tree.extents(root)
		d := fieldDistance(c.Fov, 2.0*c1.R)
		c.Theta = 0.0
		c.Phi = 90.0
		if initialView {
			c.Distance = 2.0 * d
			c.TreeTarget = geom.RTZ{
				R:     0.5*e.tree.params[root].platform.depth + e.tree.platformR0(root),
				Theta: 90.0,
			}
		} else {
			c.Distance = d
			c.TreeTarget = geom.RTZ{Theta: 90.0}
		}
		c.NearClip = camNearToDistanceRatio * c.Distance
		c.FarClip = camFarToNearRatio * c.NearClip
	}
}

// mapCameraTheta is the yaw formula for map mode: the camera leans left or
// right with the target's x-position across the root block.
func (c *Camera) mapCameraTheta(targetX float64) float64 {
	root := c.e.ctx.Tree.Root()
	return 270.0 + 45.0*targetX/c.e.tmap.params[root].width()
}

// mapCameraPhi is the pitch formula for map mode: the camera rises as the
// target sits deeper in its parent directory.
func (c *Camera) mapCameraPhi(targetY float64, node fstree.NodeID) float64 {
	t := c.e.ctx.Tree
	if node == t.Root() {
		return 52.5
	}
	pp := &c.e.tmap.params[t.Node(node).Parent]
	return 45.0 + 15.0*(targetY-pp.c0.Y)/pp.depth()
}

// treeCameraTheta is the yaw formula for tree mode.
func (c *Camera) treeCameraTheta(targetTheta float64, node fstree.NodeID) float64 {
	t := c.e.ctx.Tree
	tl := c.e.tree
	if tl.isLeaf(node) {
		parent := t.Node(node).Parent
		relTheta := targetTheta - tl.platformTheta(parent)
		return -15.0 * relTheta / tl.params[parent].platform.arcWidth
	}
	return -0.125 * (targetTheta - 90.0)
}

// morphVars returns the camera's animated variables for the active mode.
func (c *Camera) morphVars() []*float64 {
	vars := []*float64{
		&c.Theta, &c.Phi, &c.Distance, &c.Fov,
		&c.NearClip, &c.FarClip, &c.PanPart,
	}
	switch c.e.ctx.Mode {
	case ModeDisc:
		vars = append(vars, &c.DiscTarget.X, &c.DiscTarget.Y)
	case ModeMap:
		vars = append(vars, &c.MapTarget.X, &c.MapTarget.Y, &c.MapTarget.Z)
	case ModeTree:
		vars = append(vars, &c.TreeTarget.R, &c.TreeTarget.Theta, &c.TreeTarget.Z)
	}
	return vars
}

// PanFinish completes an ongoing pan immediately: the camera jumps to its
// destination.
func (c *Camera) PanFinish() {
	sched := c.e.sched
	for _, v := range c.morphVars() {
		sched.Finish(v, sched.Now())
	}
}

// PanBreak halts an ongoing pan where it stands; the destination is never
// reached and no callbacks fire.
func (c *Camera) PanBreak() {
	sched := c.e.sched
	for _, v := range c.morphVars() {
		sched.Break(v)
	}
}

// discLookAt constructs the pan in disc mode and returns its duration.
func (c *Camera) discLookAt(node fstree.NodeID, curve anim.Curve, panTimeOverride float64) float64 {
	sched := c.e.sched
	now := sched.Now()

	distance := 2.0 * fieldDistance(c.Fov, 2.0*c.e.disc.params[node].radius)
	nearClip := 0.9375 * distance
	farClip := 1.0625 * distance
	target := c.e.disc.nodePos(node)

	panTime := panTimeOverride
	if panTime <= 0.0 {
		// TODO: derive a pan time from travel distance, as the other
		// modes do.
		panTime = 2.0
	}

	sched.Morph(&c.Distance, curve, distance, panTime, now)
	sched.Morph(&c.NearClip, curve, nearClip, panTime, now)
	sched.Morph(&c.FarClip, curve, farClip, panTime, now)
	sched.Morph(&c.DiscTarget.X, curve, target.X, panTime, now)
	sched.Morph(&c.DiscTarget.Y, curve, target.Y, panTime, now)

	return panTime
}

// mapCameraPosition is the viewer's location implied by a camera state in
// map mode.
func mapCameraPosition(target geom.XYZ, theta, phi, distance float64) geom.XYZ {
	sinTheta, cosTheta := math.Sin(geom.Rad(theta)), math.Cos(geom.Rad(theta))
	sinPhi, cosPhi := math.Sin(geom.Rad(phi)), math.Cos(geom.Rad(phi))
	return geom.XYZ{
		X: target.X + distance*cosTheta*cosPhi,
		Y: target.Y + distance*sinTheta*cosPhi,
		Z: target.Z + distance*sinPhi,
	}
}

// mapLookAt constructs the pan in map mode and returns its duration.
func (c *Camera) mapLookAt(node fstree.NodeID, curve anim.Curve, panTimeOverride float64) float64 {
	e := c.e
	t := e.ctx.Tree
	sched := e.sched
	now := sched.Now()

	np := &e.tmap.params[node]
	nodePos := geom.XYZ{
		X: np.centerX(),
		Y: np.centerY(),
		Z: e.tmap.nodeZ0(node) + np.height,
	}
	nodeDims := geom.XY{X: np.width(), Y: np.depth()}

	target := nodePos
	theta := c.mapCameraTheta(nodePos.X)
	phi := c.mapCameraPhi(nodePos.Y, node)

	// Distance backs off far enough to frame the node, or an expanded
	// directory's contents.
	diameter := math.Sqrt2 * math.Max(
		math.Sqrt(nodeDims.X*nodeDims.Y),
		0.5*math.Max(nodeDims.X, nodeDims.Y))
	k := 2.0
	if t.Node(node).IsDir() {
		height := e.tmap.maxExpandedHeight(node)
		diameter = math.Max(diameter, height)
		if t.EntryExpanded(node) {
			diameter = math.Max(diameter, math.Max(nodeDims.X, 1.5*nodeDims.Y))
		}
		target.Z += 0.5 * height
		k = 1.25
	}
	distance := k * fieldDistance(c.Fov, diameter)
	nearClip := camNearToDistanceRatio * distance
	farClip := camFarToNearRatio * nearClip

	// Overall travel vector.
	from := mapCameraPosition(c.MapTarget, c.Theta, c.Phi, c.Distance)
	to := mapCameraPosition(target, theta, phi, distance)
	delta := geom.XYZ{X: to.X - from.X, Y: to.Y - from.Y, Z: to.Z - from.Z}

	panTime := panTimeOverride
	if panTime <= 0.0 {
		root := t.Root()
		rp := &e.tmap.params[root]
		travel := math.Sqrt(delta.X*delta.X + delta.Y*delta.Y + delta.Z*delta.Z)
		kt := math.Sqrt(travel / math.Hypot(rp.width(), rp.depth()))
		panTime = math.Max(mapCameraMinPanTime, math.Min(1.0, kt)*mapCameraMaxPanTime)
	}

	// A long lateral hop swings the camera back through an apogee so the
	// journey stays legible.
	xyTravel := math.Hypot(delta.X, delta.Y)
	swingBack := xyTravel > 3.0*math.Max(c.Distance, distance)

	sched.Morph(&c.Theta, curve, theta, panTime, now)
	sched.Morph(&c.Phi, curve, phi, panTime, now)
	if swingBack {
		apgDistance := 1.2 * math.Max(distance, xyTravel)
		apgNear := camNearToDistanceRatio * apgDistance
		apgFar := camFarToNearRatio * apgNear
		sched.Morph(&c.Distance, curve, apgDistance, 0.5*panTime, now)
		sched.Morph(&c.Distance, curve, distance, 0.5*panTime, now)
		sched.Morph(&c.NearClip, curve, apgNear, 0.5*panTime, now)
		sched.Morph(&c.NearClip, curve, nearClip, 0.5*panTime, now)
		sched.Morph(&c.FarClip, curve, apgFar, 0.5*panTime, now)
		sched.Morph(&c.FarClip, curve, farClip, 0.5*panTime, now)
	} else {
		sched.Morph(&c.Distance, curve, distance, panTime, now)
		sched.Morph(&c.NearClip, curve, nearClip, panTime, now)
		sched.Morph(&c.FarClip, curve, farClip, panTime, now)
	}
	sched.Morph(&c.MapTarget.X, curve, target.X, panTime, now)
	sched.Morph(&c.MapTarget.Y, curve, target.Y, panTime, now)
	sched.Morph(&c.MapTarget.Z, curve, target.Z, panTime, now)

	return panTime
}

// treeCameraPosition is the viewer's location implied by a camera state in
// tree mode, in cylindrical coordinates.
func treeCameraPosition(target geom.RTZ, theta, phi, distance float64) geom.RTZ {
	x := target.R * math.Cos(geom.Rad(target.Theta))
	y := target.R * math.Sin(geom.Rad(target.Theta))

	// Absolute camera heading.
	heading := target.Theta + theta - 180.0
	sinTheta, cosTheta := math.Sin(geom.Rad(heading)), math.Cos(geom.Rad(heading))
	sinPhi, cosPhi := math.Sin(geom.Rad(phi)), math.Cos(geom.Rad(phi))

	px := x + distance*cosTheta*cosPhi
	py := y + distance*sinTheta*cosPhi
	pz := target.Z + distance*sinPhi

	return geom.RTZ{
		R:     math.Hypot(px, py),
		Theta: geom.Deg(math.Atan2(py, px)),
		Z:     pz,
	}
}

func treeCameraTravel(a, b geom.RTZ) float64 {
	ax := a.R * math.Cos(geom.Rad(a.Theta))
	ay := a.R * math.Sin(geom.Rad(a.Theta))
	bx := b.R * math.Cos(geom.Rad(b.Theta))
	by := b.R * math.Sin(geom.Rad(b.Theta))
	dz := b.Z - a.Z
	return math.Sqrt(geom.Sqr(bx-ax) + geom.Sqr(by-ay) + geom.Sqr(dz))
}

// treeLookAt constructs the pan in tree mode and returns its duration.
func (c *Camera) treeLookAt(node fstree.NodeID, curve anim.Curve, panTimeOverride float64) float64 {
	e := c.e
	t := e.ctx.Tree
	tl := e.tree
	sched := e.sched
	now := sched.Now()

	var target geom.RTZ
	var theta, phi, distance, nearClip float64

	if tl.isLeaf(node) {
		parent := t.Node(node).Parent
		np := &tl.params[node]
		target = geom.RTZ{
			R:     tl.platformR0(parent) + np.leaf.distance,
			Theta: tl.platformTheta(parent) + np.leaf.theta,
			Z:     tl.params[parent].platform.height + (geom.MagicNumber-1.0)*np.leaf.height,
		}

		topDist := 2.5 * fieldDistance(c.Fov, math.Sqrt2*treeLeafNodeEdge)
		distance = topDist + (2.0-geom.MagicNumber)*np.leaf.height
		nearClip = camNearToDistanceRatio * topDist

		theta = c.treeCameraTheta(target.Theta, node)
		phi = 45.0
		// Pitch high enough to see both ends of a tall leaf.
		k := distance * math.Sin(geom.Rad(0.25*c.Fov)) / ((2.0 - geom.MagicNumber) * np.leaf.height)
		if k >= -1.0 && k <= 1.0 {
			alpha := geom.Deg(math.Asin(k)) - 0.25*c.Fov
			phi = math.Max(phi, 90.0-alpha)
		}
	} else {
		np := &tl.params[node]
		target = geom.RTZ{
			R:     tl.platformR0(node) + 0.3*np.platform.depth - 0.2*treeSpacingDepth,
			Theta: tl.platformTheta(node),
			Z:     np.platform.height,
		}

		height := tl.maxLeafHeight(node)
		diameter := math.Max(np.platform.depth+0.5*treeSpacingDepth, 0.25*height)
		distance = fieldDistance(c.Fov, diameter)
		nearClip = camNearToDistanceRatio * distance

		theta = c.treeCameraTheta(target.Theta, node)
		phi = 30.0
	}
	farClip := camFarToNearRatio * nearClip

	panTime := panTimeOverride
	if panTime <= 0.0 {
		from := treeCameraPosition(c.TreeTarget, c.Theta, c.Phi, c.Distance)
		to := treeCameraPosition(target, theta, phi, distance)
		k := treeCameraTravel(from, to) / treeCameraAvgVelocity
		panTime = math.Min(math.Max(k, treeCameraMinPanTime), treeCameraMaxPanTime)
	}

	sched.Morph(&c.Theta, curve, theta, panTime, now)
	sched.Morph(&c.Phi, curve, phi, panTime, now)
	sched.Morph(&c.Distance, curve, distance, panTime, now)
	sched.Morph(&c.NearClip, curve, nearClip, panTime, now)
	sched.Morph(&c.FarClip, curve, farClip, panTime, now)
	sched.Morph(&c.TreeTarget.R, curve, target.R, panTime, now)
	sched.Morph(&c.TreeTarget.Theta, curve, target.Theta, panTime, now)
	sched.Morph(&c.TreeTarget.Z, curve, target.Z, panTime, now)

	return panTime
}

func (c *Camera) panStep(*anim.Morph) {
	c.e.ctx.RequestRedraw()
}

// postPanEnd runs one frame after a pan completes, once the final camera
// state has actually been rendered.
func (c *Camera) postPanEnd(any) {
	c.e.PanFinished()
	c.e.ctx.RequestRedraw()
}

func (c *Camera) panEnd(m *anim.Morph) {
	c.e.ctx.RequestRedraw()
	c.e.sched.ScheduleEvent(c.postPanEnd, m.Data, 1)
	c.moving = false
}

// LookAtFull points the camera at the given node using the specified
// motion curve and, if nonnegative, the given pan duration in seconds.
func (c *Camera) LookAtFull(node fstree.NodeID, curve anim.Curve, panTimeOverride float64) {
	ctx := c.e.ctx
	sched := c.e.sched

	c.PanBreak()

	var panTime float64
	switch ctx.Mode {
	case ModeDisc:
		panTime = c.discLookAt(node, curve, panTimeOverride)
	case ModeMap:
		panTime = c.mapLookAt(node, curve, panTimeOverride)
	case ModeTree:
		panTime = c.treeLookAt(node, curve, panTimeOverride)
	}

	// Master morph.
	c.PanPart = 0.0
	sched.MorphFull(&c.PanPart, anim.CurveLinear, 1.0, panTime, sched.Now(),
		c.panStep, c.panEnd, node)

	if !c.backtracking && node != ctx.Current {
		ctx.PushHistory(ctx.Current)
	}
	c.backtracking = false

	ctx.Current = node
	c.ManualControl = false
	c.moving = true
}

// LookAt is LookAtFull with default arguments.
func (c *Camera) LookAt(node fstree.NodeID) {
	c.LookAtFull(node, anim.CurveSigmoid, -1.0)
}

// LookAtPrevious sends the camera back to the previously visited node.
func (c *Camera) LookAtPrevious() {
	prev, ok := c.e.ctx.PopHistory()
	if !ok {
		return
	}
	c.backtracking = true
	c.LookAt(prev)
}

// lpanStage2 is the second leg of an L-shaped pan.
type lpanStage2 struct {
	node    fstree.NodeID
	panTime float64
}

func (c *Camera) lpanStage1End(m *anim.Morph) {
	c.e.ctx.RequestRedraw()
	c.e.sched.ScheduleEvent(func(data any) {
		c.e.PanFinished()
		s2 := data.(lpanStage2)
		c.LookAtFull(s2.node, anim.CurveSigmoid, s2.panTime)
	}, m.Data, 1)
}

// TreeLPanLookAt points the camera at the given node along an L-shaped,
// two-stage path: first a decelerating sweep that lines the camera up in
// radius and angle, then a normal look-at. Only tree mode pans this way.
func (c *Camera) TreeLPanLookAt(node fstree.NodeID, panTimeOverride float64) {
	e := c.e
	t := e.ctx.Tree
	tl := e.tree
	sched := e.sched
	now := sched.Now()

	var target geom.RT
	var theta float64
	if tl.isLeaf(node) {
		parent := t.Node(node).Parent
		np := &tl.params[node]
		theta = -15.0 * np.leaf.theta / tl.params[parent].platform.arcWidth
		target.R = tl.platformR0(parent) + np.leaf.distance
		target.Theta = tl.platformTheta(parent) + np.leaf.theta
	} else {
		np := &tl.params[node]
		target.R = tl.platformR0(node) + (2.0-geom.MagicNumber)*np.platform.depth
		target.Theta = tl.platformTheta(node)
		theta = -0.125 * (target.Theta - 90.0)
	}

	panTime := panTimeOverride
	if panTime <= 0.0 {
		from := treeCameraPosition(c.TreeTarget, c.Theta, c.Phi, c.Distance)
		to := treeCameraPosition(geom.RTZ{R: target.R, Theta: target.Theta, Z: c.TreeTarget.Z},
			theta, c.Phi, c.Distance)
		panTime = treeCameraTravel(from, to) / treeCameraAvgVelocity
		panTime = math.Min(math.Max(panTime, treeCameraMinPanTime), treeCameraMaxPanTime)
	}

	c.PanBreak()

	sched.Morph(&c.Theta, anim.CurveInvQuadratic, theta, panTime, now)
	sched.Morph(&c.TreeTarget.R, anim.CurveInvQuadratic, target.R, panTime, now)
	sched.Morph(&c.TreeTarget.Theta, anim.CurveInvQuadratic, target.Theta, panTime, now)

	// Master morph; the end callback hands off to stage two.
	c.PanPart = 0.0
	sched.MorphFull(&c.PanPart, anim.CurveLinear, 1.0, panTime, now,
		c.panStep, c.lpanStage1End, lpanStage2{node: node, panTime: panTime})

	c.ManualControl = false
	c.moving = true
}

// Dolly moves the camera toward (dk < 0) or away from (dk > 0) the view
// target.
func (c *Camera) Dolly(dk float64) {
	c.Distance += dk * c.Distance / 256.0
	c.Distance = math.Max(c.Distance, 16.0)
	c.NearClip = camNearToDistanceRatio * c.Distance
	c.FarClip = camFarToNearRatio * c.NearClip

	c.ManualControl = true
	c.e.ctx.RequestRedraw()
}

// Revolve swings the camera around the view target by the given heading
// and elevation deltas, in degrees.
func (c *Camera) Revolve(dtheta, dphi float64) {
	c.Theta -= dtheta
	c.Phi += dphi

	for c.Theta < 0.0 {
		c.Theta += 360.0
	}
	for c.Theta > 360.0 {
		c.Theta -= 360.0
	}
	c.Phi = math.Min(math.Max(c.Phi, 1.0), 90.0)

	c.ManualControl = true
	c.e.ctx.RequestRedraw()
}
