// Package dag turns a node tree into a work graph.
//
// Build walks the tree once per topology change. Sequential groups are
// walked from the last child to the first, so that every item is created
// after the items it must notify. Two values are threaded through the
// recursion: the successor set of "whatever runs next", and the activation
// limit inherited by the first schedulable unit of a container.
//
// Runs of adjacent synths inside one sequential group are fused into a single
// item. Synths directly inside a parallel group each get their own item, since
// they must stay independently schedulable. Empty containers are skipped, so
// dependency chains route around them.
//
// The activation limit of a unit is the tail count of the closest preceding
// non-empty sibling (1 for a synth run), or the inherited limit when there is
// none. The tail count is the number of items that finish last inside that
// sibling, which is exactly the number of items that will notify the unit.
package dag
