package nodetree

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/dspgrid/internal/nodeid"
)

// ErrMalformedTree is returned by Validate for trees the scheduler cannot
// accept.
var ErrMalformedTree = errors.New("malformed node tree")

// WalkFunc is called for every node in pre-order. Returning false skips the
// node's children.
type WalkFunc func(addr nodeid.Address, n *Node) bool

// Walk visits root and its descendants depth first, in stored order.
func Walk(root *Node, fn WalkFunc) {
	walk(nodeid.Root(root.Name), root, fn)
}

func walk(addr nodeid.Address, n *Node, fn WalkFunc) {
	if !fn(addr, n) {
		return
	}
	for i, c := range n.All() {
		walk(addr.Child(c.Name, i), c, fn)
	}
}

// Positions maps every node under root to its address.
func Positions(root *Node) map[*Node]nodeid.Address {
	out := make(map[*Node]nodeid.Address)
	Walk(root, func(addr nodeid.Address, n *Node) bool {
		out[n] = addr
		return true
	})
	return out
}

// Synths returns the synths under root in tree order.
func Synths(root *Node) []*Node {
	out := make([]*Node, 0, root.SynthCount())
	Walk(root, func(_ nodeid.Address, n *Node) bool {
		if n.IsSynth() {
			out = append(out, n)
		}
		return n.HasSynths()
	})
	return out
}

// Find resolves an address produced by Walk back to its node.
func Find(root *Node, addr nodeid.Address) (*Node, error) {
	if len(addr.Path) == 0 || addr.Path[0].Name != root.Name || addr.Path[0].HasIndex() {
		return nil, fmt.Errorf("address %q does not start at root %q", addr.String(), root.Name)
	}

	n := root
	for _, seg := range addr.Path[1:] {
		if seg.Index < 0 || seg.Index >= n.Len() {
			return nil, fmt.Errorf("address %q: index %d out of range for %s", addr.String(), seg.Index, n)
		}
		n = n.children[seg.Index]
		if n.Name != seg.Name {
			return nil, fmt.Errorf("address %q: expected %q at index %d, found %q", addr.String(), seg.Name, seg.Index, n.Name)
		}
	}
	return n, nil
}

// Validate checks the preconditions the graph builder relies on: the root is
// a sequential group, no node is reachable twice (which also rules out
// cycles), and synth ids are unique.
func Validate(root *Node) error {
	if root == nil {
		return fmt.Errorf("%w: nil root", ErrMalformedTree)
	}
	if !root.IsGroup() {
		return fmt.Errorf("%w: root must be a group, got %s", ErrMalformedTree, root.Kind())
	}

	seen := make(map[*Node]nodeid.Address)
	ids := make(map[int32]nodeid.Address)

	var visit func(addr nodeid.Address, n *Node) error
	visit = func(addr nodeid.Address, n *Node) error {
		if prev, ok := seen[n]; ok {
			return fmt.Errorf("%w: node %q reachable at both %s and %s", ErrMalformedTree, n.Name, prev.String(), addr.String())
		}
		seen[n] = addr

		if n.IsSynth() {
			if prev, ok := ids[n.ID]; ok {
				return fmt.Errorf("%w: synth id %d used at both %s and %s", ErrMalformedTree, n.ID, prev.String(), addr.String())
			}
			ids[n.ID] = addr
			return nil
		}

		for i, c := range n.All() {
			if err := visit(addr.Child(c.Name, i), c); err != nil {
				return err
			}
		}
		return nil
	}

	return visit(nodeid.Root(root.Name), root)
}
