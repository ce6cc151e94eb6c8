package layout

import (
	"math"

	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/geom"
)

const (
	mapBorderProportion = 0.01
	mapRootAspectRatio  = 1.2
	mapDirHeight        = 384.0
	mapLeafHeight       = 128.0
)

// Side face slant ratios by node kind; these define how far a node's top
// face is inset from its base.
var mapSideSlantRatios = [fstree.KindCount]float64{
	fstree.KindMeta:        0.0,
	fstree.KindDirectory:   0.032,
	fstree.KindRegularFile: 0.064,
	fstree.KindSymlink:     0.333,
	fstree.KindFIFO:        0.0,
	fstree.KindSocket:      0.0,
	fstree.KindCharDev:     0.25,
	fstree.KindBlockDev:    0.25,
	fstree.KindUnknown:     0.0,
}

// mapParams is a node's geometry in map mode. The block footprint c0/c1 is
// absolute in x/y; only z positions are relative, stacked by ancestry.
type mapParams struct {
	c0, c1 geom.XY
	height float64
}

func (p *mapParams) width() float64   { return p.c1.X - p.c0.X }
func (p *mapParams) depth() float64   { return p.c1.Y - p.c0.Y }
func (p *mapParams) centerX() float64 { return 0.5 * (p.c0.X + p.c1.X) }
func (p *mapParams) centerY() float64 { return 0.5 * (p.c0.Y + p.c1.Y) }

type mapLayout struct {
	e      *Engine
	params []mapParams
	cache  []dirShapes
}

func newMapLayout(e *Engine) *mapLayout {
	n := e.ctx.Tree.Len()
	return &mapLayout{
		e:      e,
		params: make([]mapParams, n),
		cache:  make([]dirShapes, n),
	}
}

func (l *mapLayout) init() {
	t := l.e.ctx.Tree
	meta := t.MetaRoot()
	root := t.Root()

	// Root block dimensions follow total tree size at the configured
	// aspect ratio.
	dimY := math.Sqrt(float64(t.Dir(meta).SubtreeSize) / mapRootAspectRatio)
	dimX := mapRootAspectRatio * dimY

	l.params[meta] = mapParams{}
	rp := &l.params[root]
	rp.c0 = geom.XY{X: -0.5 * dimX, Y: -0.5 * dimY}
	rp.c1 = geom.XY{X: 0.5 * dimX, Y: 0.5 * dimY}
	rp.height = mapDirHeight

	l.initRecursive(root)
}

// initRecursive is the squarified treemap layout engine: it packs the
// children of dnode into rows on the directory's top face.
func (l *mapLayout) initRecursive(dnode fstree.NodeID) {
	t := l.e.ctx.Tree
	d := t.Dir(dnode)

	l.e.sched.Break(&d.Deployment)
	if d.Expanded {
		d.Deployment = 1.0
	} else {
		d.Deployment = 0.0
	}
	l.e.QueueRebuild(dnode)

	children := t.Children(dnode)
	if len(children) == 0 {
		return
	}

	// Usable dimensions of the top face, inside the side slant.
	dp := &l.params[dnode]
	dirDims := geom.XY{X: dp.width(), Y: dp.depth()}
	slant := mapSideSlantRatios[fstree.KindDirectory]
	dirDims.X -= 2.0 * math.Min(dp.height, slant*dirDims.X)
	dirDims.Y -= 2.0 * math.Min(dp.height, slant*dirDims.Y)

	// Nominal border width; nodes end up spaced about twice this far
	// apart.
	nominalBorder := math.Min(
		mapBorderProportion*math.Sqrt(dirDims.X*dirDims.Y),
		math.Min(dirDims.X, dirDims.Y)/3.0)

	// Keep blocks off the very edge of the face.
	dirDims.X -= nominalBorder
	dirDims.Y -= nominalBorder
	dirArea := dirDims.X * dirDims.Y

	// First pass: block areas (node plus border).
	blockAreas := make([]float64, len(children))
	totalBlockArea := 0.0
	for i, c := range children {
		k := math.Sqrt(float64(nodeWeight(t, c, 256))) + nominalBorder
		blockAreas[i] = geom.Sqr(k)
		totalBlockArea += blockAreas[i]
	}
	scaleFactor := dirArea / totalBlockArea

	// Second pass: scale blocks down and break them into rows, starting
	// a new row whenever the current block would turn out taller than
	// wide.
	type mapRow struct {
		firstBlock int
		area       float64
	}
	var rows []mapRow
	rowOpen := false
	for i := range blockAreas {
		blockAreas[i] *= scaleFactor
		if !rowOpen {
			rows = append(rows, mapRow{firstBlock: i})
			rowOpen = true
		}
		row := &rows[len(rows)-1]
		row.area += blockAreas[i]
		blockDimY := row.area / dirDims.X
		blockDimX := blockAreas[i] / blockDimY
		if blockDimX/blockDimY < 1.0 {
			rowOpen = false
		}
	}

	// Final pass: lay rows out from the right/rear corner, sweeping
	// toward the front.
	startPos := geom.XY{
		X: dp.centerX() + 0.5*dirDims.X,
		Y: dp.centerY() + 0.5*dirDims.Y,
	}
	pos := geom.XY{Y: startPos.Y}
	for r, row := range rows {
		blockDimY := row.area / dirDims.X
		pos.X = startPos.X

		end := len(children)
		if r+1 < len(rows) {
			end = rows[r+1].firstBlock
		}
		for i := row.firstBlock; i < end; i++ {
			c := children[i]
			blockDimX := blockAreas[i] / blockDimY

			// Exact border: the quadratic balancing the node's
			// scaled area against the block's bordered area.
			nodeArea := scaleFactor * float64(nodeWeight(t, c, 256))
			k := blockDimX + blockDimY
			border := 0.25 * (k - math.Sqrt(geom.Sqr(k)-4.0*(blockAreas[i]-nodeArea)))

			p := &l.params[c]
			p.c0 = geom.XY{X: pos.X - blockDimX + border, Y: pos.Y - blockDimY + border}
			p.c1 = geom.XY{X: pos.X - border, Y: pos.Y - border}
			if t.Node(c).IsDir() {
				p.height = mapDirHeight
				l.initRecursive(c)
			} else {
				p.height = mapLeafHeight
			}

			pos.X -= blockDimX
		}
		pos.Y -= blockDimY
	}
}

// nodeZ0 returns the z-position of the bottom of a node.
func (l *mapLayout) nodeZ0(id fstree.NodeID) float64 {
	t := l.e.ctx.Tree
	z := 0.0
	for p := t.Node(id).Parent; p != fstree.InvalidID; p = t.Node(p).Parent {
		z += l.params[p].height
	}
	return z
}

// maxExpandedHeight returns the peak height of a directory's contents
// above its top face, per the directory-list expansion state.
func (l *mapLayout) maxExpandedHeight(dnode fstree.NodeID) float64 {
	t := l.e.ctx.Tree
	maxHeight := 0.0
	if !t.EntryExpanded(dnode) {
		return 0.0
	}
	for c := t.Node(dnode).FirstChild; c != fstree.InvalidID; c = t.Node(c).NextSibling {
		height := l.params[c].height
		if t.Node(c).IsDir() {
			height += l.maxExpandedHeight(c)
			maxHeight = math.Max(maxHeight, height)
		} else {
			maxHeight = math.Max(maxHeight, height)
			break
		}
	}
	return maxHeight
}

func (l *mapLayout) colexpInitiated(fstree.NodeID) {}
func (l *mapLayout) colexpStep(fstree.NodeID)      {}
func (l *mapLayout) panFinished()                  {}
func (l *mapLayout) beforeDraw()                   {}

// mapXform stacks directory heights: worldZ = z0 + zscale*localZ.
type mapXform struct {
	z0     float64
	zscale float64
}

const (
	mapActionGeometry = iota
	mapActionLabels
)

func (l *mapLayout) drawLow(out *[]Shape) {
	l.cache = l.e.growShapeCache(l.cache)
	l.drawRecursive(l.e.ctx.Tree.MetaRoot(), mapXform{zscale: 1.0}, mapActionGeometry, out)
}

func (l *mapLayout) drawHigh(out *[]Shape) {
	l.cache = l.e.growShapeCache(l.cache)
	l.drawRecursive(l.e.ctx.Tree.MetaRoot(), mapXform{zscale: 1.0}, mapActionLabels, out)
}

// buildDir produces the blocks of dnode's children, z-relative to the
// directory's top face.
func (l *mapLayout) buildDir(dnode fstree.NodeID) []Shape {
	t := l.e.ctx.Tree
	var shapes []Shape
	for c := t.Node(dnode).FirstChild; c != fstree.InvalidID; c = t.Node(c).NextSibling {
		p := &l.params[c]
		shapes = append(shapes, Block{
			Node: c,
			Kind: t.Node(c).Kind,
			C0:   p.c0,
			C1:   p.c1,
			Z0:   0.0,
			Z1:   p.height,
		})
	}
	return shapes
}

// buildFolder produces the folder outline on a collapsed directory's top
// face.
func (l *mapLayout) buildFolder(dnode fstree.NodeID) []Shape {
	p := &l.params[dnode]
	dims := geom.XY{X: p.width(), Y: p.depth()}
	slant := mapSideSlantRatios[fstree.KindDirectory]
	offset := geom.XY{
		X: math.Min(p.height, slant*dims.X),
		Y: math.Min(p.height, slant*dims.Y),
	}
	border := 0.0625 * math.Min(dims.X-2.0*offset.X, dims.Y-2.0*offset.Y)
	return []Shape{FolderGlyph{
		Node: dnode,
		C0:   geom.XY{X: p.c0.X + offset.X + border, Y: p.c0.Y + offset.Y + border},
		C1:   geom.XY{X: p.c1.X - offset.X - border, Y: p.c1.Y - offset.Y - border},
		Z:    0.0,
	}}
}

func (l *mapLayout) label(id fstree.NodeID, z float64) Shape {
	t := l.e.ctx.Tree
	p := &l.params[id]
	return Label{
		Node: id,
		Text: t.Node(id).Name,
		Pos:  geom.XYZ{X: p.centerX(), Y: p.centerY(), Z: z},
	}
}

func (l *mapLayout) drawRecursive(dnode fstree.NodeID, xf mapXform, action int, out *[]Shape) {
	t := l.e.ctx.Tree
	d := t.Dir(dnode)

	collapsed := d.Collapsed()
	expanded := d.FullyExpanded()

	// Children sit on this directory's top face; while the directory is
	// partially deployed they grow or shrink heightwise.
	inner := mapXform{z0: xf.z0 + xf.zscale*l.params[dnode].height, zscale: xf.zscale}
	if !collapsed && !expanded {
		inner.zscale *= d.Deployment
	}

	cache := &l.cache[dnode]
	if action == mapActionGeometry {
		if d.StaleA {
			if collapsed {
				cache.a = l.buildFolder(dnode)
			} else {
				cache.a = l.buildDir(dnode)
			}
			d.StaleA = false
		}
		emitMap(out, cache.a, inner)
	}
	if action == mapActionLabels {
		if d.StaleB {
			cache.b = nil
			if collapsed {
				cache.b = []Shape{l.label(dnode, 0.0)}
			} else {
				for c := t.Node(dnode).FirstChild; c != fstree.InvalidID; c = t.Node(c).NextSibling {
					if !t.Node(c).IsDir() {
						cache.b = append(cache.b, l.label(c, l.params[c].height))
					}
				}
			}
			d.StaleB = false
		}
		emitMap(out, cache.b, inner)
	}

	d.GeomExpanded = !collapsed

	if !collapsed {
		for c := t.Node(dnode).FirstChild; c != fstree.InvalidID; c = t.Node(c).NextSibling {
			if !t.Node(c).IsDir() {
				break
			}
			l.drawRecursive(c, inner, action, out)
		}
	}
}

func emitMap(out *[]Shape, local []Shape, xf mapXform) {
	for _, s := range local {
		switch s := s.(type) {
		case Block:
			s.Z0 = xf.z0 + xf.zscale*s.Z0
			s.Z1 = xf.z0 + xf.zscale*s.Z1
			*out = append(*out, s)
		case FolderGlyph:
			s.Z = xf.z0 + xf.zscale*s.Z
			*out = append(*out, s)
		case Label:
			s.Pos.Z = xf.z0 + xf.zscale*s.Pos.Z
			*out = append(*out, s)
		}
	}
}
