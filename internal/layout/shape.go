package layout

import (
	"github.com/fsviz/fsviz/internal/fstree"
	"github.com/fsviz/fsviz/internal/geom"
)

// Shape is one drawable primitive in world coordinates. A frame's draw
// list is a flat []Shape; the renderer projects it top-down onto the
// terminal grid.
type Shape interface {
	shape()
}

// Disc is a filled circle (disc mode).
type Disc struct {
	Node   fstree.NodeID
	Kind   fstree.Kind
	Center geom.XY
	Radius float64
}

// Block is a box standing on z = Z0 with top face at Z1 (map mode).
type Block struct {
	Node   fstree.NodeID
	Kind   fstree.Kind
	C0, C1 geom.XY
	Z0, Z1 float64
}

// FolderGlyph is the outline drawn on a collapsed directory's top face
// (map mode).
type FolderGlyph struct {
	Node   fstree.NodeID
	C0, C1 geom.XY
	Z      float64
}

// Sector is an annular box in cylindrical coordinates (tree mode);
// platforms and leaf nodes alike. Theta bounds are in degrees.
type Sector struct {
	Node           fstree.NodeID
	Kind           fstree.Kind
	R0, R1         float64
	Theta0, Theta1 float64
	Z0, Z1         float64
}

// BranchKind distinguishes the connective geometry of tree mode.
type BranchKind uint8

const (
	// BranchLoop is the ring around the central core.
	BranchLoop BranchKind = iota
	// BranchIn connects a platform to its parent's outer edge.
	BranchIn
	// BranchOut is the arc along a platform's outer edge from which
	// child branches hang.
	BranchOut
)

// Branch is connective geometry between platforms (tree mode).
type Branch struct {
	Kind           BranchKind
	R0, R1         float64
	Theta0, Theta1 float64
}

// Label is a node name annotation anchored at a world position.
type Label struct {
	Node fstree.NodeID
	Text string
	Pos  geom.XYZ
}

func (Disc) shape()        {}
func (Block) shape()       {}
func (FolderGlyph) shape() {}
func (Sector) shape()      {}
func (Branch) shape()      {}
func (Label) shape()       {}
