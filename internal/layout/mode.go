// Package layout computes and caches the visual geometry of a scanned
// filesystem tree under three metaphors: discs packed around their parent,
// a squarified treemap, and a radial tree of annular platforms.
package layout

import "fmt"

// Mode selects the active visualization metaphor.
type Mode uint8

const (
	ModeDisc Mode = iota
	ModeMap
	ModeTree
)

func (m Mode) String() string {
	switch m {
	case ModeDisc:
		return "disc"
	case ModeMap:
		return "map"
	default:
		return "tree"
	}
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "disc":
		return ModeDisc, nil
	case "map":
		return ModeMap, nil
	case "tree":
		return ModeTree, nil
	}
	return 0, fmt.Errorf("unknown mode %q (want disc, map, or tree)", s)
}
