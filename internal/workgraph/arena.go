package workgraph

import "github.com/specialistvlad/dspgrid/internal/nodetree"

// Arena holds the storage of one graph. ReserveFor sizes it for the worst
// case of a given tree, and the arena is reused by calling Reset before the
// next build.
//
// A Graph returned by Graph stays valid until the next Reset. The arena is
// not safe for concurrent use.
type Arena struct {
	items      []Item
	members    []*nodetree.Node
	successors []ItemID
	runnable   []ItemID
}

// NewArena creates an arena reserved for a tree with synthCount synths.
func NewArena(synthCount int) *Arena {
	a := &Arena{}
	a.Reserve(synthCount)
	return a
}

// Reserve grows the arena for synthCount synths and a successor budget of
// two slots per synth. Trees with deeply nested parallel groups can exceed
// that budget, in which case successor storage grows during the build; use
// ReserveFor when the tree is known. Existing contents are discarded.
func (a *Arena) Reserve(synthCount int) {
	a.reserve(synthCount, 2*synthCount)
}

// ReserveFor grows the arena so the tree rooted at root builds without
// further allocation. Every item takes at most one single-successor slot
// and each parallel group stores the set of items it starts with, so the
// successor bound is SynthCount plus ParallelHeads. Existing contents are
// discarded.
func (a *Arena) ReserveFor(root *nodetree.Node) {
	a.reserve(root.SynthCount(), root.SynthCount()+root.ParallelHeads())
}

func (a *Arena) reserve(items, successors int) {
	if cap(a.items) < items {
		a.items = make([]Item, 0, items)
		a.members = make([]*nodetree.Node, 0, items)
		a.runnable = make([]ItemID, 0, items)
	}
	if cap(a.successors) < successors {
		a.successors = make([]ItemID, 0, successors)
	}
	a.Reset()
}

// Cap reports the reserved item and successor capacity.
func (a *Arena) Cap() (items, successors int) {
	return cap(a.items), cap(a.successors)
}

// Reset empties the arena, invalidating graphs built from it.
func (a *Arena) Reset() {
	clear(a.items[:cap(a.items)])
	clear(a.members[:cap(a.members)])
	a.items = a.items[:0]
	a.members = a.members[:0]
	a.successors = a.successors[:0]
	a.runnable = a.runnable[:0]
}

// NewItem appends an item whose members are a copy of run. Successors must
// come from SuccessorSet, Single, or be nil.
func (a *Arena) NewItem(run []*nodetree.Node, successors []ItemID, limit int32) ItemID {
	start := len(a.members)
	a.members = append(a.members, run...)

	id := ItemID(len(a.items))
	a.items = append(a.items, Item{
		ID:              id,
		Members:         a.members[start:len(a.members):len(a.members)],
		ActivationLimit: limit,
		Successors:      successors,
	})
	if limit == 0 {
		a.runnable = append(a.runnable, id)
	}
	return id
}

// Single returns a one-element successor set.
func (a *Arena) Single(id ItemID) []ItemID {
	start := len(a.successors)
	a.successors = append(a.successors, id)
	return a.successors[start : start+1 : start+1]
}

// SuccessorSet copies ids into the arena and returns the stored set.
func (a *Arena) SuccessorSet(ids []ItemID) []ItemID {
	if len(ids) == 0 {
		return nil
	}
	start := len(a.successors)
	a.successors = append(a.successors, ids...)
	end := len(a.successors)
	return a.successors[start:end:end]
}

// Graph returns the graph assembled so far.
func (a *Arena) Graph() *Graph {
	return &Graph{Items: a.items, Runnable: a.runnable}
}
