package fiber

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID string
}

func leaf(id string) *Node[item] {
	return &Node[item]{Value: item{ID: id}}
}

func branch(id string, children ...*Node[item]) *Node[item] {
	return &Node[item]{Value: item{ID: id}, Children: children}
}

// sampleForest is two top-level trees:
//
//	A
//	├── B
//	└── C
//	    └── D
//	E
//	└── F
func sampleForest() []*Node[item] {
	return []*Node[item]{
		branch("A", leaf("B"), branch("C", leaf("D"))),
		branch("E", leaf("F")),
	}
}

func preOrder(forest []*Node[item]) []string {
	var out []string
	var visit func([]*Node[item])
	visit = func(nodes []*Node[item]) {
		for _, n := range nodes {
			out = append(out, n.Value.ID)
			visit(n.Children)
		}
	}
	visit(forest)
	return out
}

func walkIDs(t *testing.T, tree *Tree[item]) []string {
	t.Helper()
	var out []string
	err := tree.Walk(tree.Root(), func(_ ID, f Fiber[item]) {
		out = append(out, f.Value.ID)
	})
	require.NoError(t, err)
	return out
}

func TestConvert_EmptyForest(t *testing.T) {
	_, err := Convert[item](nil)
	require.ErrorIs(t, err, ErrEmptyTree)

	_, err = Convert([]*Node[item]{})
	require.ErrorIs(t, err, ErrEmptyTree)

	_, err = Convert([]*Node[item]{nil})
	require.ErrorIs(t, err, ErrEmptyTree)
}

func TestConvert_Links(t *testing.T) {
	tree, err := Convert(sampleForest())
	require.NoError(t, err)
	require.Equal(t, 6, tree.Len())

	byID := map[string]ID{}
	for id, v := range tree.All() {
		byID[v.ID] = id
	}

	root := tree.Fiber(tree.Root())
	assert.Equal(t, "A", root.Value.ID)
	assert.Equal(t, None, root.Parent)
	assert.Equal(t, byID["B"], root.Child)
	assert.Equal(t, byID["E"], root.Sibling, "top-level nodes are linked as siblings")

	b := tree.Fiber(byID["B"])
	assert.Equal(t, byID["A"], b.Parent)
	assert.Equal(t, None, b.Child)
	assert.Equal(t, byID["C"], b.Sibling)

	c := tree.Fiber(byID["C"])
	assert.Equal(t, byID["D"], c.Child)
	assert.Equal(t, None, c.Sibling)

	e := tree.Fiber(byID["E"])
	assert.Equal(t, None, e.Parent)
	assert.Equal(t, byID["F"], e.Child)
	assert.Equal(t, None, e.Sibling)
}

func TestConvert_EveryFiberReachesRoot(t *testing.T) {
	tree, err := Convert([]*Node[item]{branch("A", branch("B", branch("C", leaf("D"))), leaf("E"))})
	require.NoError(t, err)

	for id := range tree.All() {
		p := id
		for tree.Fiber(p).Parent != None {
			p = tree.Fiber(p).Parent
		}
		assert.Equal(t, tree.Root(), p)
	}
}

func TestConvert_PreservesCount(t *testing.T) {
	tests := []struct {
		name   string
		forest []*Node[item]
		want   int
	}{
		{"single", []*Node[item]{leaf("A")}, 1},
		{"sample", sampleForest(), 6},
		{"wide", []*Node[item]{branch("R", leaf("1"), leaf("2"), leaf("3"), leaf("4"))}, 5},
		{"deep", []*Node[item]{branch("1", branch("2", branch("3", branch("4", leaf("5")))))}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Convert(tt.forest)
			require.NoError(t, err)
			assert.Len(t, walkIDs(t, tree), tt.want)
		})
	}
}

func TestWalk_PreOrderFidelity(t *testing.T) {
	forest := sampleForest()
	tree, err := Convert(forest)
	require.NoError(t, err)

	assert.Equal(t, preOrder(forest), walkIDs(t, tree))
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}, walkIDs(t, tree))
}

func TestWalk_NonRootFails(t *testing.T) {
	tree, err := Convert(sampleForest())
	require.NoError(t, err)

	child := tree.Fiber(tree.Root()).Child
	called := false
	err = tree.Walk(child, func(ID, Fiber[item]) { called = true })
	require.ErrorIs(t, err, ErrNotRoot)
	assert.False(t, called)
}

func TestWalk_OutOfRange(t *testing.T) {
	tree, err := Convert(sampleForest())
	require.NoError(t, err)

	for _, root := range []ID{None, ID(tree.Len()), ID(tree.Len() + 5)} {
		called := false
		err := tree.Walk(root, func(ID, Fiber[item]) { called = true })
		require.ErrorIs(t, err, ErrOutOfRange, "root %d", root)
		assert.False(t, called)
	}
}

func TestWalk_FromSecondTopLevelNode(t *testing.T) {
	tree, err := Convert(sampleForest())
	require.NoError(t, err)

	second := tree.Fiber(tree.Root()).Sibling
	var got []string
	require.NoError(t, tree.Walk(second, func(_ ID, f Fiber[item]) {
		got = append(got, f.Value.ID)
	}))
	assert.Equal(t, []string{"E", "F"}, got)
}

func TestNext_EndOfTraversal(t *testing.T) {
	tree, err := Convert(sampleForest())
	require.NoError(t, err)

	last := ID(tree.Len() - 1)
	assert.Equal(t, "F", tree.Value(last).ID)
	assert.Equal(t, None, tree.Next(last))

	single, err := Convert([]*Node[item]{leaf("only")})
	require.NoError(t, err)
	assert.Equal(t, None, single.Next(single.Root()))
}

func TestNext_ClimbsToAncestorSibling(t *testing.T) {
	tree, err := Convert(sampleForest())
	require.NoError(t, err)

	// D has no child or sibling; its parent C has no sibling; A's sibling is E.
	var d ID
	for id, v := range tree.All() {
		if v.ID == "D" {
			d = id
		}
	}
	assert.Equal(t, "E", tree.Value(tree.Next(d)).ID)
}

func TestAll_StopsEarly(t *testing.T) {
	tree, err := Convert(sampleForest())
	require.NoError(t, err)

	var got []string
	for _, v := range tree.All() {
		got = append(got, v.ID)
		if v.ID == "C" {
			break
		}
	}
	assert.Equal(t, []string{"A", "B", "C"}, got)
}

func TestChildrenAncestorsDepth(t *testing.T) {
	tree, err := Convert(sampleForest())
	require.NoError(t, err)

	var kids []string
	for c := range tree.Children(tree.Root()) {
		kids = append(kids, tree.Value(c).ID)
	}
	assert.Equal(t, []string{"B", "C"}, kids)

	var d ID
	for id, v := range tree.All() {
		if v.ID == "D" {
			d = id
		}
	}
	var chain []string
	for _, a := range tree.Ancestors(d) {
		chain = append(chain, tree.Value(a).ID)
	}
	assert.Equal(t, []string{"C", "A"}, chain)
	assert.Equal(t, 2, tree.Depth(d))
	assert.Equal(t, 0, tree.Depth(tree.Root()))
	assert.Empty(t, tree.Ancestors(tree.Root()))
}

func TestForest_RoundTrip(t *testing.T) {
	forest := sampleForest()
	tree, err := Convert(forest)
	require.NoError(t, err)

	if diff := cmp.Diff(forest, tree.Forest()); diff != "" {
		t.Errorf("forest mismatch (-want +got):\n%s", diff)
	}
}

func TestConvert_DeepChain(t *testing.T) {
	const depth = 100000
	root := leaf("0")
	cur := root
	for i := 1; i < depth; i++ {
		next := leaf(fmt.Sprint(i))
		cur.Children = []*Node[item]{next}
		cur = next
	}

	tree, err := Convert([]*Node[item]{root})
	require.NoError(t, err)
	require.Equal(t, depth, tree.Len())

	count := 0
	require.NoError(t, tree.Walk(tree.Root(), func(ID, Fiber[item]) { count++ }))
	assert.Equal(t, depth, count)
	assert.Equal(t, depth-1, tree.Depth(ID(depth-1)))
}
