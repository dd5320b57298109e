// Package engine ties a node tree to its work graph, unit bank and
// executor.
//
// SetTree is the only way to change topology. It rebuilds everything a
// block needs off to the side and swaps it in under the same lock block
// processing takes, so a block always runs against one consistent graph.
// Graphs are built into two alternating arenas: the graph in use is never
// the one being rebuilt, and a failed rebuild leaves it untouched.
package engine
