package engine

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/dspgrid/internal/nodeid"
	"github.com/specialistvlad/dspgrid/internal/nodetree"
	"github.com/specialistvlad/dspgrid/internal/workgraph"
)

var (
	// ErrNoTree is returned by lookups before the first SetTree.
	ErrNoTree = errors.New("no tree installed")
	// ErrNotFound is returned when a position names no node.
	ErrNotFound = errors.New("no node at position")
)

// Location is the answer to a position lookup.
type Location struct {
	Address nodeid.Address
	Node    *nodetree.Node
	// Item is the work item running Node when it is a synth, or -1.
	Item workgraph.ItemID
}

// Find resolves a position such as "root.voices[1].lead[0]" in the
// installed tree.
func (e *Engine) Find(path string) (Location, error) {
	addr, err := nodeid.Parse(path)
	if err != nil {
		return Location{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tree == nil {
		return Location{}, ErrNoTree
	}

	n, err := nodetree.Find(e.tree, addr)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	loc := Location{Address: addr, Node: n, Item: -1}
	if n.IsSynth() {
		for i := range e.graph.Items {
			for _, m := range e.graph.Items[i].Members {
				if m == n {
					loc.Item = e.graph.Items[i].ID
				}
			}
		}
	}
	return loc, nil
}
