// Package fiber encodes a forest as a leftmost-child, right-sibling linked
// structure stored in an arena, and supports non-recursive pre-order
// traversal and filtered reconstruction of the forest.
package fiber

import (
	"fmt"
	"iter"
)

// ID addresses a fiber inside its Tree.
type ID int

// None marks an absent relation.
const None ID = -1

// Node is a value with an ordered list of children. It is the input shape
// accepted by Convert and the output shape of a search.
type Node[T any] struct {
	Value    T          `json:"value"`
	Children []*Node[T] `json:"children,omitempty"`
}

// Fiber is a node value plus its parent, first-child and next-sibling links.
type Fiber[T any] struct {
	Value   T
	Parent  ID
	Child   ID
	Sibling ID
}

// Tree is the arena holding every fiber of a converted forest, in
// pre-order creation order. The root is always ID 0.
type Tree[T any] struct {
	fibers []Fiber[T]
}

// Convert builds a fiber tree from forest. The first top-level node becomes
// the root; further top-level nodes are linked as its siblings.
func Convert[T any](forest []*Node[T]) (*Tree[T], error) {
	if len(forest) == 0 {
		return nil, ErrEmptyTree
	}

	t := &Tree[T]{fibers: make([]Fiber[T], 0, countNodes(forest))}

	// Each frame is one level of the walk: the nodes still to visit, their
	// parent fiber, and the last fiber created at that level.
	type frame struct {
		nodes  []*Node[T]
		parent ID
		prev   ID
	}
	stack := []frame{{nodes: forest, parent: None, prev: None}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if len(top.nodes) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		n := top.nodes[0]
		top.nodes = top.nodes[1:]
		if n == nil {
			continue
		}

		id := ID(len(t.fibers))
		t.fibers = append(t.fibers, Fiber[T]{Value: n.Value, Parent: top.parent, Child: None, Sibling: None})
		if top.prev != None {
			t.fibers[top.prev].Sibling = id
		} else if top.parent != None {
			t.fibers[top.parent].Child = id
		}
		top.prev = id

		if len(n.Children) > 0 {
			stack = append(stack, frame{nodes: n.Children, parent: id, prev: None})
		}
	}

	if len(t.fibers) == 0 {
		return nil, ErrEmptyTree
	}
	return t, nil
}

func countNodes[T any](forest []*Node[T]) int {
	n := 0
	stack := [][]*Node[T]{forest}
	for len(stack) > 0 {
		level := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, node := range level {
			if node == nil {
				continue
			}
			n++
			if len(node.Children) > 0 {
				stack = append(stack, node.Children)
			}
		}
	}
	return n
}

// Root returns the ID of the root fiber.
func (t *Tree[T]) Root() ID {
	return 0
}

// Len returns the number of fibers in the tree.
func (t *Tree[T]) Len() int {
	return len(t.fibers)
}

// Fiber returns a copy of the fiber at id. The tree itself is never exposed
// for mutation. id must be in [0, Len()); None panics.
func (t *Tree[T]) Fiber(id ID) Fiber[T] {
	return t.fibers[id]
}

// Value returns the value carried by the fiber at id, which must be in
// [0, Len()).
func (t *Tree[T]) Value(id ID) T {
	return t.fibers[id].Value
}

// Next returns the fiber that follows id in pre-order, or None when the
// traversal is complete. id must be in [0, Len()).
func (t *Tree[T]) Next(id ID) ID {
	f := &t.fibers[id]
	if f.Child != None {
		return f.Child
	}
	if f.Sibling != None {
		return f.Sibling
	}
	for p := f.Parent; p != None; p = t.fibers[p].Parent {
		if s := t.fibers[p].Sibling; s != None {
			return s
		}
	}
	return None
}

// Walk calls visit for every fiber in pre-order starting at root. root must
// not have a parent, otherwise the walk would climb past it.
func (t *Tree[T]) Walk(root ID, visit func(ID, Fiber[T])) error {
	if root < 0 || int(root) >= len(t.fibers) {
		return fmt.Errorf("walk from %d of %d: %w", root, len(t.fibers), ErrOutOfRange)
	}
	if t.fibers[root].Parent != None {
		return ErrNotRoot
	}
	for id := root; id != None; id = t.Next(id) {
		visit(id, t.fibers[id])
	}
	return nil
}

// All iterates every fiber of the tree in pre-order.
func (t *Tree[T]) All() iter.Seq2[ID, T] {
	return func(yield func(ID, T) bool) {
		for id := t.Root(); id != None; id = t.Next(id) {
			if !yield(id, t.fibers[id].Value) {
				return
			}
		}
	}
}

// Children iterates the direct children of id in sibling order.
func (t *Tree[T]) Children(id ID) iter.Seq[ID] {
	return func(yield func(ID) bool) {
		for c := t.fibers[id].Child; c != None; c = t.fibers[c].Sibling {
			if !yield(c) {
				return
			}
		}
	}
}

// Ancestors returns the parent chain of id, nearest first.
func (t *Tree[T]) Ancestors(id ID) []ID {
	var out []ID
	for p := t.fibers[id].Parent; p != None; p = t.fibers[p].Parent {
		out = append(out, p)
	}
	return out
}

// Depth returns the number of ancestors of id.
func (t *Tree[T]) Depth(id ID) int {
	d := 0
	for p := t.fibers[id].Parent; p != None; p = t.fibers[p].Parent {
		d++
	}
	return d
}

// Forest rebuilds the original nested forest from the tree.
func (t *Tree[T]) Forest() []*Node[T] {
	nodes := make([]*Node[T], len(t.fibers))
	var forest []*Node[T]
	for id := range t.fibers {
		f := &t.fibers[id]
		n := &Node[T]{Value: f.Value}
		nodes[id] = n
		if f.Parent == None {
			forest = append(forest, n)
			continue
		}
		parent := nodes[f.Parent]
		parent.Children = append(parent.Children, n)
	}
	return forest
}
