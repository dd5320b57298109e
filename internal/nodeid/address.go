package nodeid

import (
	"slices"
	"strconv"
	"strings"
)

// Root returns the address of a tree's root group.
func Root(name string) Address {
	return Address{Path: []Segment{RootSegment(name)}}
}

// Child returns the address of the index-th child of a. The receiver is not
// modified; the returned address owns its path.
func (a Address) Child(name string, index int) Address {
	path := make([]Segment, len(a.Path), len(a.Path)+1)
	copy(path, a.Path)
	return Address{Path: append(path, ChildSegment(name, index))}
}

// Depth is the number of segments below the root.
func (a Address) Depth() int {
	if len(a.Path) == 0 {
		return 0
	}
	return len(a.Path) - 1
}

// Indices returns the sibling indices from the root down, skipping the root.
func (a Address) Indices() []int {
	out := make([]int, 0, a.Depth())
	for _, s := range a.Path {
		if s.HasIndex() {
			out = append(out, s.Index)
		}
	}
	return out
}

// String serializes the Address into its canonical path string representation.
func (a Address) String() string {
	var sb strings.Builder
	for i, segment := range a.Path {
		if i > 0 {
			sb.WriteRune('.')
		}
		sb.WriteString(segment.Name)
		if segment.HasIndex() {
			sb.WriteRune('[')
			sb.WriteString(strconv.Itoa(segment.Index))
			sb.WriteRune(']')
		}
	}
	return sb.String()
}

// Equal reports whether both addresses name the same position.
func (a Address) Equal(other Address) bool {
	return slices.Equal(a.Path, other.Path)
}
