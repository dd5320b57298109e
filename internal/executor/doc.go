// Package executor replays a work graph once per audio block.
//
// At the start of every block each item's counter is reset to its activation
// limit and the graph's runnable items are queued. Workers pop ready items,
// process the members back to back, then decrement the counter of every
// successor; the decrement that reaches zero queues the successor. The
// graph itself is never written.
package executor
