package layout

import "github.com/fsviz/fsviz/internal/fstree"

// Context is the viewport state shared by the layout engines, the camera,
// and the collapse/expand controller. Entry points take it explicitly.
type Context struct {
	Tree    *fstree.Tree
	Mode    Mode
	Current fstree.NodeID

	// History holds previously visited nodes, most recent first.
	History []fstree.NodeID

	// NeedRedraw is set whenever the scene changed and the next frame
	// must actually render. The frame loop clears it.
	NeedRedraw bool
}

// NewContext creates a context focused on the tree's root directory.
func NewContext(tree *fstree.Tree) *Context {
	return &Context{Tree: tree, Current: tree.Root()}
}

// RequestRedraw marks the viewport dirty.
func (c *Context) RequestRedraw() { c.NeedRedraw = true }

// PushHistory records a change of current node, collapsing duplicates.
func (c *Context) PushHistory(prev fstree.NodeID) {
	if len(c.History) > 0 && c.History[0] == prev {
		return
	}
	c.History = append([]fstree.NodeID{prev}, c.History...)
}

// PopHistory removes and returns the most recently visited node.
func (c *Context) PopHistory() (fstree.NodeID, bool) {
	if len(c.History) == 0 {
		return fstree.InvalidID, false
	}
	id := c.History[0]
	c.History = c.History[1:]
	return id, true
}
