// Package workgraph is the output of the graph builder: a set of fused work
// items, each carrying a static activation limit and the items it notifies on
// completion, plus the items that are runnable at the start of every block.
//
// Items are addressed by ItemID, an index into the graph's item slice, so
// successor lists are plain index slices. All slices live in an Arena
// supplied by the caller and reused across rebuilds.
//
// A Graph is immutable once built. The executor keeps its own per-block
// counters and never writes to the graph.
package workgraph
