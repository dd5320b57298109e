package workgraph

import "github.com/specialistvlad/dspgrid/internal/nodetree"

// ItemID is the index of an Item in Graph.Items.
type ItemID int32

// Item is a run of synths that execute back to back on one worker.
type Item struct {
	ID ItemID
	// Members is the ordered, non-empty fused run.
	Members []*nodetree.Node
	// ActivationLimit is the number of completions to wait for before the
	// item may run. Zero means runnable at block start.
	ActivationLimit int32
	// Successors are notified when the item finishes. The slice may be
	// shared with other items and must not be modified.
	Successors []ItemID
}

// Graph is the complete set of items for one topology.
type Graph struct {
	Items []Item
	// Runnable lists the items with ActivationLimit == 0, in build order.
	Runnable []ItemID
}

// Len is the number of items.
func (g *Graph) Len() int { return len(g.Items) }

// Item returns the item with the given id.
func (g *Graph) Item(id ItemID) *Item { return &g.Items[id] }

// SynthCount is the total number of members over all items.
func (g *Graph) SynthCount() int {
	n := 0
	for i := range g.Items {
		n += len(g.Items[i].Members)
	}
	return n
}

// Empty reports whether the graph has no work.
func (g *Graph) Empty() bool { return len(g.Items) == 0 }
