package fiber

import (
	"maps"
	"slices"
)

// SearchResult is the outcome of a search over a fiber tree.
type SearchResult[T, K any] struct {
	// Tree and Root identify the fiber tree that was searched.
	Tree *Tree[T]
	Root ID

	// Forest is the search tree: every included fiber, nested under its
	// included ancestors, in original sibling order.
	Forest []*Node[K]

	// Matched holds the fibers that satisfied the predicate themselves.
	Matched map[ID]struct{}

	// Added maps every included fiber to its node in Forest.
	Added map[ID]*Node[K]
}

// IsMatched reports whether the fiber at id satisfied the predicate.
func (r *SearchResult[T, K]) IsMatched(id ID) bool {
	_, ok := r.Matched[id]
	return ok
}

// Matches returns the matched fibers in pre-order.
func (r *SearchResult[T, K]) Matches() []ID {
	return slices.Sorted(maps.Keys(r.Matched))
}

// Search keeps the fibers under root that match, sit below a match, or sit
// above a match, and rebuilds them as a forest. Values are copied unchanged.
func Search[T any](t *Tree[T], root ID, match func(T) bool) (*SearchResult[T, T], error) {
	return SearchTransform(t, root, match, func(v T, _, _ bool) T { return v })
}

// SearchTransform is Search with each included value passed through
// transform. isMatch reports whether the fiber itself matched,
// hasMatchedAncestor whether any of its ancestors did.
func SearchTransform[T, K any](t *Tree[T], root ID, match func(T) bool, transform func(value T, isMatch, hasMatchedAncestor bool) K) (*SearchResult[T, K], error) {
	n := t.Len()
	matched := make([]bool, n)
	underMatch := make([]bool, n)
	nodes := make([]*Node[K], n)

	res := &SearchResult[T, K]{
		Tree:    t,
		Root:    root,
		Matched: make(map[ID]struct{}),
		Added:   make(map[ID]*Node[K]),
	}

	// include adds id along with any of its ancestors not yet in the output,
	// outermost first, so a parent node always exists before its children.
	var chain []ID
	include := func(id ID) {
		chain = chain[:0]
		for p := id; p != None && nodes[p] == nil; p = t.fibers[p].Parent {
			chain = append(chain, p)
		}
		for i := len(chain) - 1; i >= 0; i-- {
			c := chain[i]
			f := &t.fibers[c]
			node := &Node[K]{Value: transform(f.Value, matched[c], underMatch[c])}
			nodes[c] = node
			res.Added[c] = node
			if f.Parent == None {
				res.Forest = append(res.Forest, node)
				continue
			}
			parent := nodes[f.Parent]
			parent.Children = append(parent.Children, node)
		}
	}

	err := t.Walk(root, func(id ID, f Fiber[T]) {
		if match(f.Value) {
			matched[id] = true
			res.Matched[id] = struct{}{}
		}
		// Parents are always visited first in pre-order, so their flags are final.
		if f.Parent != None {
			underMatch[id] = matched[f.Parent] || underMatch[f.Parent]
		}
		if matched[id] || underMatch[id] {
			include(id)
		}
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SearchForest converts forest and searches it from its root.
func SearchForest[T any](forest []*Node[T], match func(T) bool) (*SearchResult[T, T], error) {
	t, err := Convert(forest)
	if err != nil {
		return nil, err
	}
	return Search(t, t.Root(), match)
}

// SearchForestTransform converts forest and searches it with transform.
func SearchForestTransform[T, K any](forest []*Node[T], match func(T) bool, transform func(T, bool, bool) K) (*SearchResult[T, K], error) {
	t, err := Convert(forest)
	if err != nil {
		return nil, err
	}
	return SearchTransform(t, t.Root(), match, transform)
}
