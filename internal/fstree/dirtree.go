package fstree

// The directory-list ("entry") state is the UI's notion of which
// directories are open. It leads the animation: collapse/expand cascades
// set it up front and then morph Deployment to match.

// EntryExpanded reports whether the directory entry for id is open.
// Leaves are never open.
func (t *Tree) EntryExpanded(id NodeID) bool {
	d := t.nodes[id].Dir
	return d != nil && d.Expanded
}

// EntryExpand opens the directory entry for id.
func (t *Tree) EntryExpand(id NodeID) {
	if d := t.nodes[id].Dir; d != nil {
		d.Expanded = true
	}
}

// EntryExpandRecursive opens id and every directory below it.
func (t *Tree) EntryExpandRecursive(id NodeID) {
	if d := t.nodes[id].Dir; d != nil {
		d.Expanded = true
		for c := t.nodes[id].FirstChild; c != InvalidID; c = t.nodes[c].NextSibling {
			t.EntryExpandRecursive(c)
		}
	}
}

// EntryCollapseRecursive closes id and every directory below it.
func (t *Tree) EntryCollapseRecursive(id NodeID) {
	if d := t.nodes[id].Dir; d != nil {
		d.Expanded = false
		for c := t.nodes[id].FirstChild; c != InvalidID; c = t.nodes[c].NextSibling {
			t.EntryCollapseRecursive(c)
		}
	}
}

// CollapsedDepth counts the unbroken run of collapsed directories directly
// above id. It is the number of levels an expand-any cascade has to open
// before id becomes visible.
func (t *Tree) CollapsedDepth(id NodeID) int {
	count := 0
	for p := t.nodes[id].Parent; p != InvalidID && t.nodes[p].Kind == KindDirectory; p = t.nodes[p].Parent {
		if !t.nodes[p].Dir.Collapsed() {
			break
		}
		count++
	}
	return count
}

// MaxExpandedDepth returns the relative depth of the deepest directory
// reachable from id through fully expanded directories. Zero is typical;
// anything more means collapsing id takes a recursive cascade. Directories
// sort ahead of other children, so the walk stops at the first non-directory.
func (t *Tree) MaxExpandedDepth(id NodeID) int {
	maxDepth := 0
	for c := t.nodes[id].FirstChild; c != InvalidID; c = t.nodes[c].NextSibling {
		if t.nodes[c].Kind != KindDirectory {
			break
		}
		subtreeDepth := 0
		if t.nodes[c].Dir.FullyExpanded() {
			subtreeDepth = 1 + t.MaxExpandedDepth(c)
		}
		if subtreeDepth > maxDepth {
			maxDepth = subtreeDepth
		}
	}
	return maxDepth
}
