package workgraph

import (
	"errors"
	"fmt"
)

// ErrInvalidGraph is returned by Check for graphs an executor cannot replay.
var ErrInvalidGraph = errors.New("invalid work graph")

// Check verifies the properties the executor depends on:
//   - every item has members and every successor id is in range;
//   - no item lists the same successor twice or itself;
//   - each item's ActivationLimit equals the number of items notifying it,
//     so every item is activated exactly once per block;
//   - Runnable is exactly the set of items with limit zero;
//   - the successor relation is acyclic.
func Check(g *Graph) error {
	n := len(g.Items)
	indegree := make([]int32, n)

	for i := range g.Items {
		it := &g.Items[i]
		if it.ID != ItemID(i) {
			return fmt.Errorf("%w: item at index %d has id %d", ErrInvalidGraph, i, it.ID)
		}
		if len(it.Members) == 0 {
			return fmt.Errorf("%w: item %d has no members", ErrInvalidGraph, i)
		}
		seen := make(map[ItemID]struct{}, len(it.Successors))
		for _, s := range it.Successors {
			if s < 0 || int(s) >= n {
				return fmt.Errorf("%w: item %d names unknown successor %d", ErrInvalidGraph, i, s)
			}
			if s == it.ID {
				return fmt.Errorf("%w: item %d is its own successor", ErrInvalidGraph, i)
			}
			if _, dup := seen[s]; dup {
				return fmt.Errorf("%w: item %d names successor %d twice", ErrInvalidGraph, i, s)
			}
			seen[s] = struct{}{}
			indegree[s]++
		}
	}

	runnable := make(map[ItemID]struct{}, len(g.Runnable))
	for _, id := range g.Runnable {
		if id < 0 || int(id) >= n {
			return fmt.Errorf("%w: unknown runnable item %d", ErrInvalidGraph, id)
		}
		if _, dup := runnable[id]; dup {
			return fmt.Errorf("%w: item %d listed as runnable twice", ErrInvalidGraph, id)
		}
		runnable[id] = struct{}{}
	}

	for i := range g.Items {
		it := &g.Items[i]
		if it.ActivationLimit != indegree[i] {
			return fmt.Errorf("%w: item %d waits for %d completions but %d items notify it",
				ErrInvalidGraph, i, it.ActivationLimit, indegree[i])
		}
		_, listed := runnable[it.ID]
		if (it.ActivationLimit == 0) != listed {
			return fmt.Errorf("%w: item %d has limit %d but runnable=%t", ErrInvalidGraph, i, it.ActivationLimit, listed)
		}
	}

	// Kahn's algorithm: with limits equal to in-degrees, a replay from the
	// runnable set reaches every item iff the relation is acyclic.
	remaining := make([]int32, n)
	copy(remaining, indegree)
	queue := make([]ItemID, 0, n)
	queue = append(queue, g.Runnable...)
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, s := range g.Items[id].Successors {
			remaining[s]--
			if remaining[s] == 0 {
				queue = append(queue, s)
			}
		}
	}
	if visited != n {
		return fmt.Errorf("%w: %d of %d items unreachable, successor relation has a cycle", ErrInvalidGraph, n-visited, n)
	}
	return nil
}
