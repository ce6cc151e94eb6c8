// Package fstree holds the scanned filesystem tree in an arena of nodes
// addressed by integer IDs, plus the per-directory animation and UI state
// the layout engines work against.
package fstree

import (
	"io/fs"

	"github.com/fsviz/fsviz/internal/geom"
)

// NodeID addresses a node within a Tree's arena.
type NodeID int32

// InvalidID marks an absent node reference.
const InvalidID NodeID = -1

// Kind represents the type of a filesystem node.
type Kind uint8

const (
	// KindMeta is the synthetic node above the scanned root.
	KindMeta Kind = iota
	KindDirectory
	KindRegularFile
	KindSymlink
	KindFIFO
	KindSocket
	KindCharDev
	KindBlockDev
	KindUnknown

	// KindCount bounds per-kind counters.
	KindCount
)

func (k Kind) String() string {
	switch k {
	case KindMeta:
		return "meta"
	case KindDirectory:
		return "directory"
	case KindRegularFile:
		return "file"
	case KindSymlink:
		return "symlink"
	case KindFIFO:
		return "fifo"
	case KindSocket:
		return "socket"
	case KindCharDev:
		return "chardev"
	case KindBlockDev:
		return "blockdev"
	default:
		return "unknown"
	}
}

// KindFromMode derives the Kind from a file mode.
func KindFromMode(mode fs.FileMode) Kind {
	switch {
	case mode.IsRegular():
		return KindRegularFile
	case mode.IsDir():
		return KindDirectory
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	case mode&fs.ModeNamedPipe != 0:
		return KindFIFO
	case mode&fs.ModeSocket != 0:
		return KindSocket
	case mode&fs.ModeCharDevice != 0:
		return KindCharDev
	case mode&fs.ModeDevice != 0:
		return KindBlockDev
	default:
		return KindUnknown
	}
}

// Node is one filesystem entry in the arena. Sibling order is the order
// children were added; the scanner adds directories before leaves.
type Node struct {
	Name   string
	Kind   Kind
	Size   int64 // apparent size (st_size)
	Blocks int64 // disk usage in bytes

	Parent      NodeID
	FirstChild  NodeID
	NextSibling NodeID

	// Dir is non-nil for directories and the metanode.
	Dir *DirInfo
}

// IsDir reports whether the node can have children.
func (n *Node) IsDir() bool {
	return n.Kind == KindDirectory || n.Kind == KindMeta
}

// DirInfo is the mutable per-directory state. It is heap-allocated behind
// the arena so &Deployment stays a stable morph handle as the arena grows.
type DirInfo struct {
	// Deployment is the collapse/expand animation variable: 0 fully
	// collapsed, 1 fully expanded.
	Deployment float64

	// Expanded is the directory-list UI state, set ahead of the animation.
	Expanded bool

	// GeomExpanded tracks whether the built geometry reflects an expanded
	// directory, so the cache knows when Deployment crosses the threshold.
	GeomExpanded bool

	// Geometry staleness, one flag per cached draw list.
	StaleA bool
	StaleB bool
	StaleC bool

	SubtreeSize   int64
	SubtreeBlocks int64
	Counts        [KindCount]int64
}

// Collapsed reports whether deployment has settled at zero.
func (d *DirInfo) Collapsed() bool { return d.Deployment < geom.Epsilon }

// FullyExpanded reports whether deployment has settled at one.
func (d *DirInfo) FullyExpanded() bool { return d.Deployment > 1.0-geom.Epsilon }
