package nodeid

// Segment is a single component of an address path, e.g. `name[index]`.
type Segment struct {
	Name  string
	Index int // -1 for the root segment, which has no sibling index.
}

// RootSegment creates the leading segment of an address.
func RootSegment(name string) Segment {
	return Segment{Name: name, Index: -1}
}

// ChildSegment creates a segment for the child at the given sibling index.
func ChildSegment(name string, index int) Segment {
	return Segment{Name: name, Index: index}
}

// HasIndex returns true if the segment has a sibling index.
func (s Segment) HasIndex() bool {
	return s.Index != -1
}

// Address is the structured position of a node in a tree.
type Address struct {
	Path []Segment
}
