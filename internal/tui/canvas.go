package tui

import (
	"math"
	"strings"

	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/geom"
	"github.com/fsviz/fsviz/internal/layout"
)

// cell is one character of the rendered scene.
type cell struct {
	ch       rune
	kind     fstree.Kind
	selected bool
}

// canvas rasterizes world-space shapes onto the terminal grid. The
// projection is top-down orthographic, centered on the camera target and
// scaled by camera distance; rows cover twice the world span of columns
// to cancel the cell aspect ratio.
type canvas struct {
	w, h  int
	cells []cell

	cx, cy float64
	// world units per cell, vertically. Columns are half that.
	scale float64
}

func newCanvas(w, h int, cx, cy, halfSpan float64) *canvas {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c := &canvas{
		w:     w,
		h:     h,
		cells: make([]cell, w*h),
		cx:    cx,
		cy:    cy,
		scale: 2.0 * halfSpan / float64(h),
	}
	for i := range c.cells {
		c.cells[i].ch = ' '
	}
	return c
}

func (c *canvas) project(x, y float64) (col, row int) {
	col = c.w/2 + int(math.Round((x-c.cx)/(c.scale*0.5)))
	row = c.h/2 - int(math.Round((y-c.cy)/c.scale))
	return col, row
}

func (c *canvas) plot(col, row int, ch rune, kind fstree.Kind, selected bool) {
	if col < 0 || col >= c.w || row < 0 || row >= c.h {
		return
	}
	c.cells[row*c.w+col] = cell{ch: ch, kind: kind, selected: selected}
}

// cellCenter is the world position of a cell's center.
func (c *canvas) cellCenter(col, row int) (x, y float64) {
	x = c.cx + float64(col-c.w/2)*c.scale*0.5
	y = c.cy - float64(row-c.h/2)*c.scale
	return x, y
}

func (c *canvas) fillDisc(center geom.XY, radius float64, ch rune, kind fstree.Kind, selected bool) {
	c0, r0 := c.project(center.X-radius, center.Y+radius)
	c1, r1 := c.project(center.X+radius, center.Y-radius)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			x, y := c.cellCenter(col, row)
			if geom.Sqr(x-center.X)+geom.Sqr(y-center.Y) <= geom.Sqr(radius) {
				c.plot(col, row, ch, kind, selected)
			}
		}
	}
}

func (c *canvas) fillRect(p0, p1 geom.XY, ch rune, kind fstree.Kind, selected bool) {
	c0, r0 := c.project(p0.X, p1.Y)
	c1, r1 := c.project(p1.X, p0.Y)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			c.plot(col, row, ch, kind, selected)
		}
	}
}

func (c *canvas) outlineRect(p0, p1 geom.XY, ch rune, kind fstree.Kind) {
	c0, r0 := c.project(p0.X, p1.Y)
	c1, r1 := c.project(p1.X, p0.Y)
	for col := c0; col <= c1; col++ {
		c.plot(col, r0, ch, kind, false)
		c.plot(col, r1, ch, kind, false)
	}
	for row := r0; row <= r1; row++ {
		c.plot(c0, row, ch, kind, false)
		c.plot(c1, row, ch, kind, false)
	}
}

// fillSector rasterizes an annular sector by polar point test over its
// bounding box.
func (c *canvas) fillSector(s layout.Sector, ch rune, kind fstree.Kind, selected bool) {
	c0, r0 := c.project(-s.R1, s.R1)
	c1, r1 := c.project(s.R1, -s.R1)
	t0, t1 := s.Theta0, s.Theta1
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			x, y := c.cellCenter(col, row)
			r := math.Hypot(x, y)
			if r < s.R0 || r > s.R1 {
				continue
			}
			theta := geom.Deg(math.Atan2(y, x))
			if !thetaWithin(theta, t0, t1) {
				continue
			}
			c.plot(col, row, ch, kind, selected)
		}
	}
}

// arc draws a polyline along radius r from theta0 to theta1 degrees.
func (c *canvas) arc(r, theta0, theta1 float64, ch rune) {
	if theta1 < theta0 {
		theta0, theta1 = theta1, theta0
	}
	span := theta1 - theta0
	steps := int(span*r/(c.scale*20.0)) + 2
	for i := 0; i <= steps; i++ {
		theta := geom.Rad(theta0 + span*float64(i)/float64(steps))
		col, row := c.project(r*math.Cos(theta), r*math.Sin(theta))
		c.plot(col, row, ch, fstree.KindMeta, false)
	}
}

// ray draws a radial segment at theta degrees from r0 to r1.
func (c *canvas) ray(theta, r0, r1 float64, ch rune) {
	t := geom.Rad(theta)
	steps := int(math.Abs(r1-r0)/c.scale) + 2
	for i := 0; i <= steps; i++ {
		r := r0 + (r1-r0)*float64(i)/float64(steps)
		col, row := c.project(r*math.Cos(t), r*math.Sin(t))
		c.plot(col, row, ch, fstree.KindMeta, false)
	}
}

func (c *canvas) text(x, y float64, s string, kind fstree.Kind, selected bool) {
	col, row := c.project(x, y)
	col -= len(s) / 2
	for i, ch := range s {
		c.plot(col+i, row, ch, kind, selected)
	}
}

func thetaWithin(theta, t0, t1 float64) bool {
	for theta < t0 {
		theta += 360.0
	}
	for theta-360.0 >= t0 {
		theta -= 360.0
	}
	return theta <= t1
}

// heightRune picks a shade for an extruded top face; taller reads darker.
func heightRune(z, unit float64) rune {
	shades := []rune{'░', '▒', '▓', '█'}
	i := int(z / unit)
	if i < 0 {
		i = 0
	}
	if i >= len(shades) {
		i = len(shades) - 1
	}
	return shades[i]
}

// String renders the grid, styling runs of cells that share a kind.
func (c *canvas) String() string {
	var b strings.Builder
	for row := 0; row < c.h; row++ {
		line := c.cells[row*c.w : (row+1)*c.w]
		i := 0
		for i < c.w {
			j := i
			for j < c.w && line[j].kind == line[i].kind && line[j].selected == line[i].selected {
				j++
			}
			run := make([]rune, 0, j-i)
			for k := i; k < j; k++ {
				run = append(run, line[k].ch)
			}
			b.WriteString(styleFor(line[i].kind, line[i].selected).Render(string(run)))
			i = j
		}
		b.WriteString("\n")
	}
	return b.String()
}
