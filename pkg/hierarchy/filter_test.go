package hierarchy

import "testing"

func TestSearchMarksMatchAndAncestors(t *testing.T) {
	f := Build(sampleRecords())
	f.SetSearchTerm("union a")

	unionA, _ := f.Node("C")
	if !unionA.Matches {
		t.Fatal("Union A should match")
	}
	unionB, _ := f.Node("B")
	if unionB.Matches {
		t.Fatal("Union B should not match")
	}
	congress, _ := f.Node("A")
	if !congress.Matches {
		t.Fatal("ancestor of a match must be visible")
	}
	if !congress.Expanded {
		t.Fatal("ancestor of a search match must be auto-expanded")
	}
}

func TestClearingSearchRestoresVisibilityKeepsExpansion(t *testing.T) {
	f := Build(sampleRecords())
	f.SetSearchTerm("union a")
	f.SetSearchTerm("")

	f.walk(func(n *Node, _ int) {
		if !n.Matches {
			t.Fatalf("%s should be visible after clearing search", n.Record.ID)
		}
	})
	// Auto-expand is forward-only; clearing does not force a collapse.
	congress, _ := f.Node("A")
	if !congress.Expanded {
		t.Fatal("clearing the search must not collapse the root")
	}
}

func TestFilterIdempotence(t *testing.T) {
	// P4: empty term plus no type filter restores full visibility after any
	// sequence of filter operations.
	f := Build(deepRecords())
	f.SetSearchTerm("local")
	f.SetTypeFilter("congress")
	f.SetSearchTerm("zzz-no-match")
	f.SetSearchTerm("")
	f.SetTypeFilter("")

	if got, want := f.CountVisible(), f.CountAll(); got != want {
		t.Fatalf("visible=%d want %d", got, want)
	}
}

func TestTypeFilterDoesNotAutoExpand(t *testing.T) {
	f := Build(deepRecords())
	f.SetTypeFilter("local")

	leaf, _ := f.Node("leaf")
	if !leaf.Matches {
		t.Fatal("leaf should match type filter")
	}
	root, _ := f.Node("root")
	if !root.Matches {
		t.Fatal("ancestor should stay visible")
	}
	if root.Expanded || func() bool { m, _ := f.Node("mid"); return m.Expanded }() {
		t.Fatal("type-only filtering must not auto-expand")
	}
	other, _ := f.Node("other")
	if other.Matches {
		t.Fatal("non-matching root should be hidden")
	}
}

func TestSearchAndTypeFilterCombine(t *testing.T) {
	records := []Record{
		{ID: "c", Name: "Congress", Type: "congress"},
		{ID: "u1", Name: "Metalworkers", ParentID: "c", Type: "union"},
		{ID: "l1", Name: "Metalworkers Local 12", ParentID: "u1", Type: "local"},
	}
	f := Build(records)
	f.SetSearchTerm("metalworkers")
	f.SetTypeFilter("local")

	l1, _ := f.Node("l1")
	if !l1.Matches {
		t.Fatal("local should satisfy both predicates")
	}
	u1, _ := f.Node("u1")
	if !u1.Matches {
		t.Fatal("ancestor visibility must propagate")
	}
	// u1 matches the term but not the type; it is visible only because of
	// its descendant, and the active search still auto-expands it.
	if !u1.Expanded {
		t.Fatal("ancestor of match must be expanded under active search")
	}
}

func TestSearchMatchesShortNameAndSlug(t *testing.T) {
	records := []Record{
		{ID: "a", Name: "United Food Workers", ShortName: "UFW", Slug: "united-food"},
	}
	cases := []string{"ufw", "UNITED-FOOD", "food work"}
	for _, term := range cases {
		f := Build(records)
		f.SetSearchTerm(term)
		n, _ := f.Node("a")
		if !n.Matches {
			t.Fatalf("term %q should match", term)
		}
	}
}

func TestAncestorVisibilityDeepChain(t *testing.T) {
	// P5/P6 across several levels.
	records := []Record{
		{ID: "1", Name: "Congress"},
		{ID: "2", Name: "Federation", ParentID: "1"},
		{ID: "3", Name: "Region", ParentID: "2"},
		{ID: "4", Name: "District 9", ParentID: "3"},
	}
	f := Build(records)
	f.CollapseAll()
	f.SetSearchTerm("district 9")

	for _, id := range []string{"1", "2", "3"} {
		n, _ := f.Node(id)
		if !n.Matches {
			t.Fatalf("ancestor %s should be visible", id)
		}
		if !n.Expanded {
			t.Fatalf("ancestor %s should be auto-expanded", id)
		}
	}
	leaf, _ := f.Node("4")
	if !leaf.Matches {
		t.Fatal("match itself should be visible")
	}
}

func TestStatsConsistencyUnderFilters(t *testing.T) {
	// P8: visible <= total; equal when no filter is active.
	f := Build(deepRecords())
	if f.CountVisible() != f.CountAll() {
		t.Fatalf("unfiltered visible=%d total=%d", f.CountVisible(), f.CountAll())
	}

	f.SetSearchTerm("federation")
	if f.CountVisible() > f.CountAll() {
		t.Fatalf("visible=%d exceeds total=%d", f.CountVisible(), f.CountAll())
	}

	f.SetSearchTerm("")
	f.SetTypeFilter("")
	if f.CountVisible() != f.CountAll() {
		t.Fatalf("reset visible=%d total=%d", f.CountVisible(), f.CountAll())
	}
}

func TestSumMemberCount(t *testing.T) {
	f := Build(sampleRecords())
	if got := f.SumMemberCount(); got != 200 {
		t.Fatalf("sumMemberCount=%d", got)
	}
}
