// Package nodeid defines the positional address of a node inside a node
// tree. An address is the path of names from the root group down to the
// node, each non-root segment carrying the node's index among its siblings:
//
//	root.voices[1].chain[0].lead[2]
//
// Addresses are used for diagnostics only. The scheduler never looks nodes
// up by address.
package nodeid
