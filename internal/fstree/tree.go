package fstree

import "path/filepath"

// Tree is an arena of nodes. ID 0 is always the metanode; the scanned root
// directory is its only child.
type Tree struct {
	nodes []Node

	// RootPath is the absolute path the root directory was scanned from.
	RootPath string
}

// New creates a tree containing only the metanode.
func New() *Tree {
	t := &Tree{nodes: make([]Node, 1, 256)}
	t.nodes[0] = Node{
		Name:        "",
		Kind:        KindMeta,
		Parent:      InvalidID,
		FirstChild:  InvalidID,
		NextSibling: InvalidID,
		Dir:         &DirInfo{Deployment: 1.0, Expanded: true, GeomExpanded: true},
	}
	return t
}

// MetaRoot returns the metanode's ID.
func (t *Tree) MetaRoot() NodeID { return 0 }

// Root returns the scanned root directory, or InvalidID on an empty tree.
func (t *Tree) Root() NodeID { return t.nodes[0].FirstChild }

// Len returns the number of nodes in the arena, metanode included.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node for id. The pointer is invalidated by the next
// AddChild call; per-directory state lives behind the stable Dir pointer.
func (t *Tree) Node(id NodeID) *Node { return &t.nodes[id] }

// Dir returns the directory state for id, or nil for leaves.
func (t *Tree) Dir(id NodeID) *DirInfo { return t.nodes[id].Dir }

// AddChild appends a node under parent, after any existing siblings.
// Callers wanting directories ahead of leaves must add them in that order.
func (t *Tree) AddChild(parent NodeID, name string, kind Kind, size, blocks int64) NodeID {
	id := NodeID(len(t.nodes))
	n := Node{
		Name:        name,
		Kind:        kind,
		Size:        size,
		Blocks:      blocks,
		Parent:      parent,
		FirstChild:  InvalidID,
		NextSibling: InvalidID,
	}
	if kind == KindDirectory {
		n.Dir = &DirInfo{}
	}
	t.nodes = append(t.nodes, n)

	p := &t.nodes[parent]
	if p.FirstChild == InvalidID {
		p.FirstChild = id
	} else {
		last := p.FirstChild
		for t.nodes[last].NextSibling != InvalidID {
			last = t.nodes[last].NextSibling
		}
		t.nodes[last].NextSibling = id
	}
	return id
}

// Children collects the child IDs of id in sibling order.
func (t *Tree) Children(id NodeID) []NodeID {
	var out []NodeID
	for c := t.nodes[id].FirstChild; c != InvalidID; c = t.nodes[c].NextSibling {
		out = append(out, c)
	}
	return out
}

// Depth returns the number of edges between id and the metanode.
func (t *Tree) Depth(id NodeID) int {
	depth := 0
	for p := t.nodes[id].Parent; p != InvalidID; p = t.nodes[p].Parent {
		depth++
	}
	return depth
}

// IsAncestor reports whether a is a strict ancestor of b.
func (t *Tree) IsAncestor(a, b NodeID) bool {
	for p := t.nodes[b].Parent; p != InvalidID; p = t.nodes[p].Parent {
		if p == a {
			return true
		}
	}
	return false
}

// Path returns the filesystem path of id, rooted at RootPath.
func (t *Tree) Path(id NodeID) string {
	if id == t.MetaRoot() || id == t.Root() {
		return t.RootPath
	}
	var parts []string
	for n := id; n != InvalidID && n != t.Root(); n = t.nodes[n].Parent {
		parts = append(parts, t.nodes[n].Name)
	}
	p := t.RootPath
	for i := len(parts) - 1; i >= 0; i-- {
		p = filepath.Join(p, parts[i])
	}
	return p
}

// Aggregate recomputes subtree totals and per-kind counts for every
// directory, bottom-up. The arena appends children after parents, so a
// reverse sweep visits each directory only after all of its descendants.
func (t *Tree) Aggregate() {
	for i := range t.nodes {
		if d := t.nodes[i].Dir; d != nil {
			d.SubtreeSize = 0
			d.SubtreeBlocks = 0
			d.Counts = [KindCount]int64{}
		}
	}
	for i := len(t.nodes) - 1; i > 0; i-- {
		n := &t.nodes[i]
		pd := t.nodes[n.Parent].Dir
		pd.Counts[n.Kind]++
		pd.SubtreeSize += n.Size
		pd.SubtreeBlocks += n.Blocks
		if n.Dir != nil {
			pd.SubtreeSize += n.Dir.SubtreeSize
			pd.SubtreeBlocks += n.Dir.SubtreeBlocks
			for k := range n.Dir.Counts {
				pd.Counts[k] += n.Dir.Counts[k]
			}
		}
	}
}

// ForEach visits every node under id (id included), preorder.
func (t *Tree) ForEach(id NodeID, fn func(NodeID)) {
	fn(id)
	for c := t.nodes[id].FirstChild; c != InvalidID; c = t.nodes[c].NextSibling {
		t.ForEach(c, fn)
	}
}
