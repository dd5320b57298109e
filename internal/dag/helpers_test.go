package dag

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/specialistvlad/dspgrid/internal/nodetree"
	"github.com/specialistvlad/dspgrid/internal/workgraph"
	"github.com/stretchr/testify/require"
)

var nextID int32 = 1000

func syn(name string) *nodetree.Node {
	nextID++
	return nodetree.Synth(nextID, name, "sine")
}

func grp(name string, children ...*nodetree.Node) *nodetree.Node {
	nextID++
	return nodetree.Group(nextID, name, children...)
}

func par(name string, children ...*nodetree.Node) *nodetree.Node {
	nextID++
	return nodetree.Parallel(nextID, name, children...)
}

func root(children ...*nodetree.Node) *nodetree.Node {
	return nodetree.Group(0, "root", children...)
}

// build runs Build and asserts the result satisfies the executor contract.
func build(t *testing.T, r *nodetree.Node) *workgraph.Graph {
	t.Helper()
	require.NoError(t, nodetree.Validate(r))
	g := Build(context.Background(), r, workgraph.NewArena(r.SynthCount()))
	require.NoError(t, workgraph.Check(g))
	return g
}

func key(members []*nodetree.Node) string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return strings.Join(names, ",")
}

// canonItem is an item described by member names, so graphs built from
// different trees sharing synths can be compared.
type canonItem struct {
	Limit      int32
	Successors []string
	Runnable   bool
}

func canon(g *workgraph.Graph) map[string]canonItem {
	runnable := make(map[workgraph.ItemID]bool)
	for _, id := range g.Runnable {
		runnable[id] = true
	}
	out := make(map[string]canonItem, g.Len())
	for _, it := range g.Items {
		succ := make([]string, 0, len(it.Successors))
		for _, s := range it.Successors {
			succ = append(succ, key(g.Item(s).Members))
		}
		slices.Sort(succ)
		out[key(it.Members)] = canonItem{Limit: it.ActivationLimit, Successors: succ, Runnable: runnable[it.ID]}
	}
	return out
}

func item(limit int32, runnable bool, successors ...string) canonItem {
	if successors == nil {
		successors = []string{}
	}
	slices.Sort(successors)
	return canonItem{Limit: limit, Successors: successors, Runnable: runnable}
}

// randomTree builds a tree with at most maxSynths synths, mixing sequential
// groups, parallel groups and empty containers.
func randomTree(rng *rand.Rand, maxSynths int) *nodetree.Node {
	count := 0
	var gen func(depth int) *nodetree.Node
	gen = func(depth int) *nodetree.Node {
		n := rng.Intn(5)
		children := make([]*nodetree.Node, 0, n)
		for i := 0; i < n; i++ {
			switch r := rng.Intn(10); {
			case r < 5 && count < maxSynths:
				count++
				children = append(children, syn(fmt.Sprintf("s%d", count)))
			case depth < 4 && r < 9:
				children = append(children, gen(depth+1))
			default:
				children = append(children, grp("empty"))
			}
		}
		if depth > 0 && rng.Intn(2) == 0 {
			return par("p", children...)
		}
		return grp("g", children...)
	}
	return gen(0)
}

// withEmpties copies the containers of n, inserting empty containers at
// positions that do not split a run of synths. Synths are shared.
func withEmpties(rng *rand.Rand, n *nodetree.Node) *nodetree.Node {
	if n.IsSynth() {
		return n
	}
	src := n.Children()
	var children []*nodetree.Node
	for i := 0; i <= len(src); i++ {
		splitsRun := i > 0 && i < len(src) && src[i-1].IsSynth() && src[i].IsSynth() && n.IsGroup()
		if !splitsRun && rng.Intn(2) == 0 {
			children = append(children, grp("pad", par("pad-inner")))
		}
		if i < len(src) {
			children = append(children, withEmpties(rng, src[i]))
		}
	}
	if n.IsParallel() {
		return nodetree.Parallel(n.ID, n.Name, children...)
	}
	return nodetree.Group(n.ID, n.Name, children...)
}

// reachability returns reach[a][b] == true when item b is transitively
// notified by item a.
func reachability(g *workgraph.Graph) [][]bool {
	reach := make([][]bool, g.Len())
	var visit func(from int, id workgraph.ItemID)
	visit = func(from int, id workgraph.ItemID) {
		for _, s := range g.Item(id).Successors {
			if !reach[from][s] {
				reach[from][s] = true
				visit(from, s)
			}
		}
	}
	for i := range g.Items {
		reach[i] = make([]bool, g.Len())
		visit(i, workgraph.ItemID(i))
	}
	return reach
}

type placement struct {
	item workgraph.ItemID
	pos  int
}

func placements(g *workgraph.Graph) map[*nodetree.Node]placement {
	out := make(map[*nodetree.Node]placement)
	for _, it := range g.Items {
		for pos, m := range it.Members {
			out[m] = placement{item: it.ID, pos: pos}
		}
	}
	return out
}

// mustPrecede reports whether the tree orders a before b: their lowest
// common ancestor is a sequential group and a's branch comes first.
func mustPrecede(r *nodetree.Node, positions map[*nodetree.Node][]int, a, b *nodetree.Node) bool {
	pa, pb := positions[a], positions[b]
	n := r
	for i := 0; ; i++ {
		if pa[i] != pb[i] {
			return n.IsGroup() && pa[i] < pb[i]
		}
		n = n.Children()[pa[i]]
	}
}
