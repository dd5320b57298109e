package dag

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/dspgrid/internal/ctxlog"
	"github.com/specialistvlad/dspgrid/internal/nodetree"
	"github.com/specialistvlad/dspgrid/internal/workgraph"
)

// Build constructs the work graph for the tree rooted at root, using arena
// for storage. The arena is reset first; graphs previously built from it
// become invalid.
//
// root must satisfy nodetree.Validate. Build never fails on such a tree; a
// tree without synths yields an empty graph.
//
// Empty containers contribute no items and do not change the order of the
// items around them, but they do end a fused run: [A, group{}, B] yields
// two items A then B where [A, B] yields one.
func Build(ctx context.Context, root *nodetree.Node, arena *workgraph.Arena) *workgraph.Graph {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting work graph construction.", "root", root.Name, "synths", root.SynthCount())

	arena.ReserveFor(root)
	b := builder{arena: arena}
	if root.HasSynths() {
		b.container(root, nil, 0)
	}

	g := arena.Graph()
	logger.Debug("Build: Work graph construction complete.", "items", g.Len(), "runnable", len(g.Runnable))
	return g
}

// builder holds the state of one Build call.
type builder struct {
	arena *workgraph.Arena
	// scratch collects branch items of parallel groups. Nested parallel
	// groups push above their parent's region and truncate back on return.
	scratch []workgraph.ItemID
}

// container dispatches on the container kind and returns the items that
// whatever precedes the container must notify.
func (b *builder) container(n *nodetree.Node, successors []workgraph.ItemID, limit int32) []workgraph.ItemID {
	switch n.Kind() {
	case nodetree.KindGroup:
		return b.group(n, successors, limit)
	case nodetree.KindParallel:
		return b.parallel(n, successors, limit)
	default:
		panic(fmt.Sprintf("dag: %s is not a container", n))
	}
}

func (b *builder) group(g *nodetree.Node, successors []workgraph.ItemID, previousLimit int32) []workgraph.ItemID {
	children := g.Children()

	for i := len(children) - 1; i >= 0; i-- {
		child := children[i]

		switch {
		case child.IsSynth():
			end := i + 1
			for i > 0 && children[i-1].IsSynth() {
				i--
			}
			limit := prevActivation(children, i, previousLimit)
			id := b.arena.NewItem(children[i:end], successors, limit)
			successors = b.arena.Single(id)

		case child.HasSynths():
			limit := prevActivation(children, i, previousLimit)
			successors = b.container(child, successors, limit)
		}
	}
	return successors
}

func (b *builder) parallel(p *nodetree.Node, successors []workgraph.ItemID, limit int32) []workgraph.ItemID {
	children := p.Children()
	mark := len(b.scratch)

	for i, child := range children {
		switch {
		case child.IsSynth():
			id := b.arena.NewItem(children[i:i+1], successors, limit)
			b.scratch = append(b.scratch, id)

		case child.HasSynths():
			heads := b.container(child, successors, limit)
			b.scratch = append(b.scratch, heads...)
		}
	}

	set := b.arena.SuccessorSet(b.scratch[mark:])
	b.scratch = b.scratch[:mark]
	return set
}

// prevActivation returns the activation limit for the unit starting at pos:
// the tail count of the closest non-empty sibling before it, or
// previousLimit when there is none.
func prevActivation(children []*nodetree.Node, pos int, previousLimit int32) int32 {
	for _, n := range slices.Backward(children[:pos]) {
		if tail := n.TailCount(); tail != 0 {
			return int32(tail)
		}
	}
	return previousLimit
}
