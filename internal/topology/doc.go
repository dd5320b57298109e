// Package topology describes a built work graph in terms of the tree it was
// built from, renders the description as HCL or JSON, and publishes it to
// a socket.io endpoint.
package topology
