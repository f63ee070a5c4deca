// Package hierarchy builds and queries the organization tree shown on the
// union structure screens. It owns all view state (expansion, filter
// visibility); callers feed it flat organization records and issue commands.
//
// The package is deliberately synchronous and free of I/O. Callers must
// serialize commands against a Forest; there is no internal locking.
package hierarchy

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Record is one flat organization row as supplied by the caller. Records are
// never mutated by this package.
type Record struct {
	ID          string
	Name        string
	ShortName   string
	Slug        string
	ParentID    string // empty marks a root
	Type        string
	MemberCount int
}

// Node wraps one Record with derived tree shape and view state.
type Node struct {
	Record   Record
	Children []*Node

	// Expanded reports whether the node renders its children.
	Expanded bool
	// Matches reports whether the node, or any descendant, satisfies the
	// active search/type filter.
	Matches bool
}

// Forest is the built tree set. One tree per root organization; the zero
// value is not usable, construct with Build.
type Forest struct {
	roots []*Node
	// index resolves the first record seen for each id.
	index map[string]*Node
	// all preserves input order, one entry per input record.
	all []*Node

	searchTerm string
	typeFilter string

	coll *collate.Collator
}

// Build converts a flat, unordered record list into a forest. Records whose
// parent id resolves to no known record are kept as roots rather than
// dropped. Children are sorted by name, case-insensitively, with input order
// breaking ties.
func Build(records []Record) *Forest {
	f := &Forest{
		index: make(map[string]*Node, len(records)),
		coll:  collate.New(language.Und, collate.IgnoreCase),
	}

	for _, rec := range records {
		n := &Node{Record: rec, Matches: true}
		f.all = append(f.all, n)
		if _, ok := f.index[rec.ID]; !ok {
			f.index[rec.ID] = n
		}
	}

	for _, n := range f.all {
		pid := n.Record.ParentID
		if pid == "" {
			f.roots = append(f.roots, n)
			continue
		}
		parent, ok := f.index[pid]
		if !ok || parent == n {
			// Dangling parent reference. Recovery policy: treat as root.
			// A self-reference is demoted the same way so traversal stays
			// finite.
			f.roots = append(f.roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	f.sortChildren(f.roots)
	stack := append([]*Node(nil), f.roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		f.sortChildren(n.Children)
		stack = append(stack, n.Children...)
	}

	return f
}

func (f *Forest) sortChildren(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return f.coll.CompareString(nodes[i].Record.Name, nodes[j].Record.Name) < 0
	})
}

// Roots returns the root nodes in sorted order. The returned nodes are owned
// by the forest; callers must treat them as read-only.
func (f *Forest) Roots() []*Node { return f.roots }

// Node returns the node for id, if present.
func (f *Forest) Node(id string) (*Node, bool) {
	n, ok := f.index[id]
	return n, ok
}

// SearchTerm returns the active search term, empty when none.
func (f *Forest) SearchTerm() string { return f.searchTerm }

// TypeFilter returns the active organization type constraint, empty when none.
func (f *Forest) TypeFilter() string { return f.typeFilter }

// walk visits every root-reachable node in depth-first preorder together
// with its depth (roots are depth 0).
func (f *Forest) walk(visit func(n *Node, depth int)) {
	type frame struct {
		n     *Node
		depth int
	}
	var stack []frame
	for i := len(f.roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{f.roots[i], 0})
	}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(fr.n, fr.depth)
		for i := len(fr.n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{fr.n.Children[i], fr.depth + 1})
		}
	}
}
