package tui

import (
	"strings"
	"testing"

	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/geom"
)

func TestCanvasProjectsCenter(t *testing.T) {
	c := newCanvas(80, 24, 100.0, 200.0, 1000.0)
	col, row := c.project(100.0, 200.0)
	if col != 40 || row != 12 {
		t.Errorf("target projected to (%d,%d), want (40,12)", col, row)
	}

	// One row up in world space is one row up on screen; columns cover
	// half the world span of rows.
	_, rowUp := c.project(100.0, 200.0+c.scale)
	if rowUp != 11 {
		t.Errorf("one cell up projected to row %d, want 11", rowUp)
	}
	colRight, _ := c.project(100.0+c.scale, 200.0)
	if colRight != 42 {
		t.Errorf("one cell of world x projected to col %d, want 42", colRight)
	}
}

func TestCanvasFillDisc(t *testing.T) {
	c := newCanvas(40, 40, 0.0, 0.0, 20.0)
	c.fillDisc(geom.XY{}, 10.0, 'o', fstree.KindDirectory, false)

	center := c.cells[20*40+20]
	if center.ch != 'o' || center.kind != fstree.KindDirectory {
		t.Errorf("center cell = %+v", center)
	}
	corner := c.cells[0]
	if corner.ch != ' ' {
		t.Error("corner cell inside a radius-10 disc")
	}
}

func TestCanvasSelectionStyling(t *testing.T) {
	c := newCanvas(10, 2, 0.0, 0.0, 10.0)
	c.plot(5, 0, 'x', fstree.KindRegularFile, true)
	out := c.String()
	if !strings.Contains(out, "x") {
		t.Fatal("plotted cell missing from output")
	}
	if lines := strings.Count(out, "\n"); lines != 2 {
		t.Errorf("canvas rendered %d lines, want 2", lines)
	}
}

func TestThetaWithinWraps(t *testing.T) {
	if !thetaWithin(-170.0, 150.0, 210.0) {
		t.Error("190 degrees (as -170) not inside 150..210")
	}
	if thetaWithin(100.0, 150.0, 210.0) {
		t.Error("100 degrees inside 150..210")
	}
	if !thetaWithin(0.0, -45.0, 45.0) {
		t.Error("0 degrees not inside -45..45")
	}
}
