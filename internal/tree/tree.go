// SPDX-License-Identifier: MPL-2.0

// Package tree provides an ordered forest of payload-carrying nodes. Nodes live
// in an arena and are addressed by NodeID; each node owns the list of its
// children and keeps a plain index back to its parent.
//
// The forest is used for the runtime load-order graph: a parent must be loaded
// before its children, and a pre-order walk yields a valid load order.
package tree

type (
	// NodeID addresses a node inside a Tree. The zero value is not a valid ID.
	NodeID int

	// Equal reports whether two payloads denote the same node.
	Equal[T any] func(a, b T) bool

	// Visitor is called for each node in a pre-order walk. Returning false skips
	// the node's children; sibling subtrees are still visited.
	Visitor[T any] func(id NodeID, payload T, depth int) bool

	// Option configures a Tree.
	Option[T any] func(*Tree[T])

	// Tree is an ordered forest. Roots and children keep insertion order.
	Tree[T any] struct {
		nodes []node[T]
		roots []NodeID
		equal Equal[T]
		// keyFn and index form the optional identity lookup table.
		keyFn func(T) string
		index map[string]NodeID
	}

	node[T any] struct {
		payload  T
		parent   NodeID
		children []NodeID
	}
)

// None is returned by Parent for root nodes and by lookups that found nothing.
const None NodeID = 0

// New creates an empty forest using equal for Find.
func New[T any](equal Equal[T], opts ...Option[T]) *Tree[T] {
	t := &Tree[T]{
		// slot 0 is reserved so that the zero NodeID means "no node"
		nodes: make([]node[T], 1),
		equal: equal,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithIndex maintains a lookup table keyed by keyFn alongside the forest. Find
// consults the table first. keyFn must agree with the equality function: equal
// payloads must produce equal keys.
func WithIndex[T any](keyFn func(T) string) Option[T] {
	return func(t *Tree[T]) {
		t.keyFn = keyFn
		t.index = make(map[string]NodeID)
	}
}

// AddRoot appends a new root holding payload.
func (t *Tree[T]) AddRoot(payload T) NodeID {
	id := t.insert(payload, None)
	t.roots = append(t.roots, id)
	return id
}

// AddChild appends a new child holding payload under parent. It panics if
// parent does not exist.
func (t *Tree[T]) AddChild(parent NodeID, payload T) NodeID {
	t.mustExist(parent)
	id := t.insert(payload, parent)
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	return id
}

// Find returns the first node whose payload equals payload, searching roots
// in insertion order, each depth-first.
func (t *Tree[T]) Find(payload T) (NodeID, bool) {
	if t.index != nil {
		if id, ok := t.index[t.keyFn(payload)]; ok {
			return id, true
		}
	}
	found := None
	t.WalkAll(func(id NodeID, p T, _ int) bool {
		if found != None {
			return false
		}
		if t.equal(p, payload) {
			found = id
			return false
		}
		return true
	})
	return found, found != None
}

// Walk visits id and its descendants depth-first in pre-order.
func (t *Tree[T]) Walk(id NodeID, visit Visitor[T]) {
	t.mustExist(id)
	t.walk(id, 0, visit)
}

// WalkAll walks every root in insertion order.
func (t *Tree[T]) WalkAll(visit Visitor[T]) {
	for _, r := range t.roots {
		t.walk(r, 0, visit)
	}
}

// Roots returns the root IDs in insertion order.
func (t *Tree[T]) Roots() []NodeID {
	out := make([]NodeID, len(t.roots))
	copy(out, t.roots)
	return out
}

// Children returns the child IDs of id in insertion order.
func (t *Tree[T]) Children(id NodeID) []NodeID {
	t.mustExist(id)
	src := t.nodes[id].children
	out := make([]NodeID, len(src))
	copy(out, src)
	return out
}

// Parent returns the parent of id, or None for a root.
func (t *Tree[T]) Parent(id NodeID) NodeID {
	t.mustExist(id)
	return t.nodes[id].parent
}

// Payload returns the payload stored at id.
func (t *Tree[T]) Payload(id NodeID) T {
	t.mustExist(id)
	return t.nodes[id].payload
}

// Len returns the number of nodes in the forest.
func (t *Tree[T]) Len() int { return len(t.nodes) - 1 }

// PreOrder returns every payload in pre-order, roots in insertion order.
func (t *Tree[T]) PreOrder() []T {
	out := make([]T, 0, t.Len())
	t.WalkAll(func(_ NodeID, p T, _ int) bool {
		out = append(out, p)
		return true
	})
	return out
}

func (t *Tree[T]) walk(id NodeID, depth int, visit Visitor[T]) {
	n := t.nodes[id]
	if !visit(id, n.payload, depth) {
		return
	}
	for _, c := range n.children {
		t.walk(c, depth+1, visit)
	}
}

func (t *Tree[T]) insert(payload T, parent NodeID) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node[T]{payload: payload, parent: parent})
	if t.index != nil {
		key := t.keyFn(payload)
		if _, exists := t.index[key]; !exists {
			t.index[key] = id
		}
	}
	return id
}

func (t *Tree[T]) mustExist(id NodeID) {
	if id <= None || int(id) >= len(t.nodes) {
		panic("tree: unknown node id")
	}
}
