package hierarchy

// Stats are summary counters over the whole forest, derived fresh on every
// call. At the expected scale (hundreds to low thousands of organizations)
// the O(n) traversals are not worth caching.

// CountAll returns the total number of root-reachable nodes.
func (f *Forest) CountAll() int {
	total := 0
	f.walk(func(*Node, int) { total++ })
	return total
}

// CountVisible returns the number of nodes whose Matches flag is set.
func (f *Forest) CountVisible() int {
	visible := 0
	f.walk(func(n *Node, _ int) {
		if n.Matches {
			visible++
		}
	})
	return visible
}

// SumMemberCount returns the member total across all nodes. Records without
// a member count contribute zero.
func (f *Forest) SumMemberCount() int {
	sum := 0
	f.walk(func(n *Node, _ int) { sum += n.Record.MemberCount })
	return sum
}
