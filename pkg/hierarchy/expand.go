package hierarchy

// SetExpandLevel seeds every node's expansion from its depth. level < 0
// expands everything, 0 collapses everything, n > 0 expands nodes whose
// depth is strictly less than n. Prior manual toggles are overwritten.
func (f *Forest) SetExpandLevel(level int) {
	f.walk(func(n *Node, depth int) {
		n.Expanded = level < 0 || depth < level
	})
}

// Toggle flips expansion for exactly one node. Unknown ids and nodes without
// children are no-ops.
func (f *Forest) Toggle(id string) {
	n, ok := f.index[id]
	if !ok || len(n.Children) == 0 {
		return
	}
	n.Expanded = !n.Expanded
}

// ExpandAll expands every node in the forest.
func (f *Forest) ExpandAll() {
	f.walk(func(n *Node, _ int) { n.Expanded = true })
}

// CollapseAll collapses every node in the forest.
func (f *Forest) CollapseAll() {
	f.walk(func(n *Node, _ int) { n.Expanded = false })
}
