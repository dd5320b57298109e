package nodetree

import (
	"fmt"
	"iter"
	"slices"
)

// Kind tags the variant a Node holds.
type Kind uint8

const (
	// KindSynth is a leaf node.
	KindSynth Kind = iota
	// KindGroup is a container with sequential semantics.
	KindGroup
	// KindParallel is a container with independent semantics.
	KindParallel
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindSynth:
		return "synth"
	case KindGroup:
		return "group"
	case KindParallel:
		return "parallel_group"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Node is a synth, a group or a parallel group.
type Node struct {
	// ID is the node's identity. Synth ids are what tests and diagnostics
	// compare; the scheduler only relies on pointer identity.
	ID int32
	// Name is the human-readable name from the configuration.
	Name string
	// Def names the unit a synth runs. Empty for containers.
	Def string
	// Params are the numeric controls of a synth. Nil for containers.
	Params map[string]float64

	kind     Kind
	children []*Node

	synthCount    int
	tailCount     int
	headCount     int
	parallelHeads int
}

// Synth creates a leaf node.
func Synth(id int32, name, def string) *Node {
	return &Node{ID: id, Name: name, Def: def, kind: KindSynth, synthCount: 1, tailCount: 1, headCount: 1}
}

// SynthWithParams creates a leaf node carrying unit parameters.
func SynthWithParams(id int32, name, def string, params map[string]float64) *Node {
	n := Synth(id, name, def)
	n.Params = params
	return n
}

// Group creates a sequential container. The children slice is copied.
func Group(id int32, name string, children ...*Node) *Node {
	return newContainer(KindGroup, id, name, children)
}

// Parallel creates a parallel container. The children slice is copied.
func Parallel(id int32, name string, children ...*Node) *Node {
	return newContainer(KindParallel, id, name, children)
}

func newContainer(kind Kind, id int32, name string, children []*Node) *Node {
	n := &Node{ID: id, Name: name, kind: kind, children: slices.Clone(children)}
	for _, c := range n.children {
		n.synthCount += c.synthCount
		n.parallelHeads += c.parallelHeads
	}

	switch kind {
	case KindGroup:
		// The last non-empty child is what finishes last, the first one is
		// what starts first.
		for _, c := range slices.Backward(n.children) {
			if c.tailCount != 0 {
				n.tailCount = c.tailCount
				break
			}
		}
		for _, c := range n.children {
			if c.headCount != 0 {
				n.headCount = c.headCount
				break
			}
		}
	case KindParallel:
		for _, c := range n.children {
			n.tailCount += c.tailCount
			n.headCount += c.headCount
		}
		n.parallelHeads += n.headCount
	}
	return n
}

// Kind returns the variant tag.
func (n *Node) Kind() Kind { return n.kind }

// IsSynth reports whether n is a leaf.
func (n *Node) IsSynth() bool { return n.kind == KindSynth }

// IsGroup reports whether n is a sequential container.
func (n *Node) IsGroup() bool { return n.kind == KindGroup }

// IsParallel reports whether n is a parallel container.
func (n *Node) IsParallel() bool { return n.kind == KindParallel }

// IsContainer reports whether n is a group of either kind.
func (n *Node) IsContainer() bool { return n.kind != KindSynth }

// HasSynths reports whether n is or transitively contains a synth.
func (n *Node) HasSynths() bool { return n.synthCount > 0 }

// SynthCount is the number of synths in n's subtree, n included.
func (n *Node) SynthCount() int { return n.synthCount }

// TailCount is the number of work items that finish last when n's subtree
// runs: 1 for a synth, the tail count of the last non-empty child for a
// group, the sum over children for a parallel group, 0 when empty.
func (n *Node) TailCount() int { return n.tailCount }

// HeadCount is the number of work items that start first when n's subtree
// runs: 1 for a synth, the head count of the first non-empty child for a
// group, the sum over children for a parallel group, 0 when empty.
func (n *Node) HeadCount() int { return n.headCount }

// ParallelHeads is the sum of HeadCount over every parallel group in n's
// subtree, n included. It is the number of successor slots the parallel
// groups of the subtree hand out.
func (n *Node) ParallelHeads() int { return n.parallelHeads }

// Children returns the children in stored order. The slice must not be
// modified.
func (n *Node) Children() []*Node { return n.children }

// Len is the number of direct children.
func (n *Node) Len() int { return len(n.children) }

// All iterates over the children in stored order.
func (n *Node) All() iter.Seq2[int, *Node] {
	return slices.All(n.children)
}

// Backward iterates over the children from last to first.
func (n *Node) Backward() iter.Seq2[int, *Node] {
	return slices.Backward(n.children)
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	if n.IsSynth() {
		return fmt.Sprintf("synth %q (%d, %s)", n.Name, n.ID, n.Def)
	}
	return fmt.Sprintf("%s %q (%d, %d children)", n.kind, n.Name, n.ID, len(n.children))
}
