package hierarchy

import "strings"

// SetSearchTerm sets the active search term and recomputes visibility for
// every node. The term is matched case-insensitively as a substring of the
// organization name, short name and slug; the empty term matches everything.
func (f *Forest) SetSearchTerm(term string) {
	f.searchTerm = strings.TrimSpace(term)
	f.applyFilter()
}

// SetTypeFilter sets the active organization type constraint and recomputes
// visibility. The empty string clears the constraint. Type filtering never
// auto-expands.
func (f *Forest) SetTypeFilter(orgType string) {
	f.typeFilter = strings.TrimSpace(orgType)
	f.applyFilter()
}

// applyFilter recomputes Matches bottom-up across the whole forest.
// Visibility is never persisted across filter changes; every run derives it
// fresh from the current term and type. Ancestors of a match under an active
// search are force-expanded so the match stays reachable; filter runs never
// collapse a node.
func (f *Forest) applyFilter() {
	term := strings.ToLower(f.searchTerm)
	for _, root := range f.roots {
		f.filterNode(root, term)
	}
}

func (f *Forest) filterNode(n *Node, term string) bool {
	childMatches := false
	for _, c := range n.Children {
		if f.filterNode(c, term) {
			childMatches = true
		}
	}

	n.Matches = (f.matchesSearch(n, term) && f.matchesType(n)) || childMatches

	if childMatches && term != "" {
		n.Expanded = true
	}
	return n.Matches
}

func (f *Forest) matchesSearch(n *Node, term string) bool {
	if term == "" {
		return true
	}
	rec := n.Record
	for _, s := range []string{rec.Name, rec.ShortName, rec.Slug} {
		if s != "" && strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

func (f *Forest) matchesType(n *Node) bool {
	return f.typeFilter == "" || n.Record.Type == f.typeFilter
}
