// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"slices"
	"strings"
	"testing"
)

func eqString(a, b string) bool { return a == b }

func build(opts ...Option[string]) *Tree[string] {
	// a
	// ├── b
	// │   └── d
	// └── c
	// e
	t := New(eqString, opts...)
	a := t.AddRoot("a")
	b := t.AddChild(a, "b")
	t.AddChild(a, "c")
	t.AddChild(b, "d")
	t.AddRoot("e")
	return t
}

func TestPreOrder(t *testing.T) {
	t.Parallel()

	got := build().PreOrder()
	want := []string{"a", "b", "d", "c", "e"}
	if !slices.Equal(got, want) {
		t.Errorf("PreOrder() = %v, want %v", got, want)
	}
}

func TestWalkPrunesOnlyDescendants(t *testing.T) {
	t.Parallel()

	tr := build()
	var visited []string
	tr.WalkAll(func(_ NodeID, p string, _ int) bool {
		visited = append(visited, p)
		return p != "b"
	})

	want := []string{"a", "b", "c", "e"}
	if !slices.Equal(visited, want) {
		t.Errorf("visited = %v, want %v", visited, want)
	}
}

func TestWalkDepth(t *testing.T) {
	t.Parallel()

	tr := build()
	depths := map[string]int{}
	tr.WalkAll(func(_ NodeID, p string, depth int) bool {
		depths[p] = depth
		return true
	})

	want := map[string]int{"a": 0, "b": 1, "d": 2, "c": 1, "e": 0}
	for k, v := range want {
		if depths[k] != v {
			t.Errorf("depth(%s) = %d, want %d", k, depths[k], v)
		}
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tree *Tree[string]
	}{
		{"scan", build()},
		{"indexed", build(WithIndex(func(s string) string { return s }))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, ok := tt.tree.Find("d")
			if !ok {
				t.Fatal("Find(d) not found")
			}
			if got := tt.tree.Payload(tt.tree.Parent(id)); got != "b" {
				t.Errorf("parent of d = %q, want b", got)
			}
			if _, ok := tt.tree.Find("zz"); ok {
				t.Error("Find(zz) unexpectedly found")
			}
		})
	}
}

func TestFindReturnsFirstMatch(t *testing.T) {
	t.Parallel()

	caseless := func(a, b string) bool { return strings.EqualFold(a, b) }
	tr := New(caseless)
	first := tr.AddRoot("x")
	tr.AddRoot("X")

	id, ok := tr.Find("X")
	if !ok || id != first {
		t.Errorf("Find(X) = %d, %v; want first root %d", id, ok, first)
	}
}

func TestRootsAndChildren(t *testing.T) {
	t.Parallel()

	tr := build()
	roots := tr.Roots()
	if len(roots) != 2 {
		t.Fatalf("len(Roots()) = %d, want 2", len(roots))
	}
	if tr.Parent(roots[0]) != None {
		t.Error("root has a parent")
	}

	var names []string
	for _, c := range tr.Children(roots[0]) {
		names = append(names, tr.Payload(c))
	}
	if !slices.Equal(names, []string{"b", "c"}) {
		t.Errorf("children = %v, want [b c]", names)
	}
	if tr.Len() != 5 {
		t.Errorf("Len() = %d, want 5", tr.Len())
	}
}

func TestAddChildUnknownParentPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	New(eqString).AddChild(NodeID(42), "x")
}
