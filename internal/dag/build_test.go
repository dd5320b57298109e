package dag

import (
	"context"
	"math/rand"
	"testing"

	"github.com/specialistvlad/dspgrid/internal/nodetree"
	"github.com/specialistvlad/dspgrid/internal/workgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Scenarios(t *testing.T) {
	testCases := []struct {
		name     string
		tree     func() *nodetree.Node
		expected map[string]canonItem
	}{
		{
			name: "flat synths fuse into one item",
			tree: func() *nodetree.Node { return root(syn("A"), syn("B"), syn("C")) },
			expected: map[string]canonItem{
				"A,B,C": item(0, true),
			},
		},
		{
			name: "nested group between synths",
			tree: func() *nodetree.Node { return root(syn("A"), grp("G", syn("B"), syn("C")), syn("D")) },
			expected: map[string]canonItem{
				"A":   item(0, true, "B,C"),
				"B,C": item(1, false, "D"),
				"D":   item(1, false),
			},
		},
		{
			name: "root level parallel group",
			tree: func() *nodetree.Node { return root(par("P", syn("X"), syn("Y"), syn("Z"))) },
			expected: map[string]canonItem{
				"X": item(0, true),
				"Y": item(0, true),
				"Z": item(0, true),
			},
		},
		{
			name: "parallel group joins into synth",
			tree: func() *nodetree.Node { return root(par("P", syn("X"), syn("Y")), syn("S")) },
			expected: map[string]canonItem{
				"X": item(0, true, "S"),
				"Y": item(0, true, "S"),
				"S": item(2, false),
			},
		},
		{
			name: "empty groups are transparent",
			tree: func() *nodetree.Node { return root(grp("empty1"), syn("A"), grp("empty2", par("P"))) },
			expected: map[string]canonItem{
				"A": item(0, true),
			},
		},
		{
			name: "group ending with a synth after a parallel group",
			tree: func() *nodetree.Node {
				return root(grp("G", par("P", syn("X"), syn("Y")), syn("S")), syn("T"))
			},
			expected: map[string]canonItem{
				"X": item(0, true, "S"),
				"Y": item(0, true, "S"),
				"S": item(2, false, "T"),
				"T": item(1, false),
			},
		},
		{
			name: "parallel group of groups",
			tree: func() *nodetree.Node {
				return root(
					syn("A"),
					par("P",
						grp("G1", syn("B"), syn("C")),
						grp("G2", syn("D"), par("P2", syn("E"), syn("F"))),
						grp("empty"),
					),
					syn("H"),
				)
			},
			expected: map[string]canonItem{
				"A":   item(0, true, "B,C", "D"),
				"B,C": item(1, false, "H"),
				"D":   item(1, false, "E", "F"),
				"E":   item(1, false, "H"),
				"F":   item(1, false, "H"),
				"H":   item(3, false),
			},
		},
		{
			name: "consecutive parallel groups",
			tree: func() *nodetree.Node {
				return root(par("P1", syn("A"), syn("B")), grp("empty"), par("P2", syn("C"), syn("D"), syn("E")))
			},
			expected: map[string]canonItem{
				"A": item(0, true, "C", "D", "E"),
				"B": item(0, true, "C", "D", "E"),
				"C": item(2, false),
				"D": item(2, false),
				"E": item(2, false),
			},
		},
		{
			name: "nested parallel groups flatten their branches",
			tree: func() *nodetree.Node {
				return root(syn("A"), par("P", syn("X"), par("Q", syn("Y"), syn("Z"))), syn("B"))
			},
			expected: map[string]canonItem{
				"A": item(0, true, "X", "Y", "Z"),
				"X": item(1, false, "B"),
				"Y": item(1, false, "B"),
				"Z": item(1, false, "B"),
				"B": item(3, false),
			},
		},
		{
			name: "synths separated by an empty group are not fused",
			tree: func() *nodetree.Node { return root(syn("A"), grp("empty"), syn("B")) },
			expected: map[string]canonItem{
				"A": item(0, true, "B"),
				"B": item(1, false),
			},
		},
		{
			name: "group wrapping only empty groups",
			tree: func() *nodetree.Node {
				return root(syn("A"), grp("W", grp("e1"), par("e2", grp("e3"))), syn("B"))
			},
			expected: map[string]canonItem{
				"A": item(0, true, "B"),
				"B": item(1, false),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := build(t, tc.tree())
			assert.Equal(t, tc.expected, canon(g))
		})
	}
}

func TestBuild_EmptyTree(t *testing.T) {
	for _, r := range []*nodetree.Node{
		root(),
		root(grp("a"), par("b", grp("c"))),
	} {
		g := build(t, r)
		assert.True(t, g.Empty())
		assert.Empty(t, g.Runnable)
	}
}

func TestBuild_FusedMembersKeepOrder(t *testing.T) {
	a, b, c := syn("A"), syn("B"), syn("C")
	g := build(t, root(grp("G", a, b, c)))
	require.Equal(t, 1, g.Len())
	assert.Equal(t, []*nodetree.Node{a, b, c}, g.Items[0].Members)
}

func TestBuild_IsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := root(randomTree(rng, 40))

	first := canon(build(t, r))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, canon(build(t, r)))
	}
}

func TestBuild_ReusesArena(t *testing.T) {
	arena := workgraph.NewArena(0)
	ctx := context.Background()

	g1 := Build(ctx, root(syn("A"), par("P", syn("X"), syn("Y"))), arena)
	require.Equal(t, 3, g1.Len())

	g2 := Build(ctx, root(syn("B")), arena)
	require.NoError(t, workgraph.Check(g2))
	assert.Equal(t, map[string]canonItem{"B": item(0, true)}, canon(g2))
}

func TestBuild_NestedParallelFitsReservation(t *testing.T) {
	r := root(par("P3", par("P2", par("P1", syn("A"), syn("B")), syn("C")), syn("D")))
	require.Equal(t, 2+3+4, r.ParallelHeads())

	arena := workgraph.NewArena(0)
	g := Build(context.Background(), r, arena)
	require.NoError(t, workgraph.Check(g))

	used := 0
	for _, it := range g.Items {
		used += len(it.Successors)
	}
	_, successors := arena.Cap()
	assert.LessOrEqual(t, used, successors)
	// Growing past the reservation would have reallocated to a larger slice.
	assert.Equal(t, r.SynthCount()+r.ParallelHeads(), successors)
}

func TestBuild_RandomTreesFitReservation(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 100; i++ {
		r := root(randomTree(rng, 30))
		arena := workgraph.NewArena(0)
		Build(context.Background(), r, arena)

		items, successors := arena.Cap()
		assert.Equal(t, r.SynthCount(), items)
		assert.Equal(t, r.SynthCount()+r.ParallelHeads(), successors)
	}
}

func TestBuild_RandomTrees(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		r := root(randomTree(rng, 25))
		g := build(t, r)

		synths := nodetree.Synths(r)
		place := placements(g)

		// Coverage: every synth is a member of exactly one item.
		require.Len(t, place, len(synths))
		require.Equal(t, len(synths), g.SynthCount())

		// The happens-before relation of the graph is exactly the order the
		// tree prescribes: no missing and no spurious dependencies.
		reach := reachability(g)
		positions := make(map[*nodetree.Node][]int, len(synths))
		for n, addr := range nodetree.Positions(r) {
			positions[n] = addr.Indices()
		}
		for _, a := range synths {
			for _, b := range synths {
				if a == b {
					continue
				}
				pa, pb := place[a], place[b]
				before := reach[pa.item][pb.item] || (pa.item == pb.item && pa.pos < pb.pos)
				require.Equal(t, mustPrecede(r, positions, a, b), before,
					"tree %d: ordering of %s before %s", i, a.Name, b.Name)
			}
		}
	}
}

func TestBuild_EmptyGroupTransparency(t *testing.T) {
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 100; i++ {
		r := root(randomTree(rng, 20))
		padded := withEmpties(rng, r)

		assert.Equal(t, canon(build(t, r)), canon(build(t, padded)), "tree %d", i)
	}
}

func TestBuild_JoinCountMatchesParallelTails(t *testing.T) {
	p := par("P",
		syn("a"),
		grp("g", syn("b"), par("q", syn("c"), syn("d"))),
		grp("empty"),
	)
	after := syn("after")
	g := build(t, root(p, after))

	place := placements(g)
	assert.Equal(t, int32(p.TailCount()), g.Item(place[after].item).ActivationLimit)
	assert.Equal(t, int32(3), g.Item(place[after].item).ActivationLimit)
}
