// Package nodetree is the hierarchical description of audio work: synths
// (leaves) arranged in sequential groups and parallel groups under a root
// group.
//
// # Kinds
//
// A Node is a tagged variant over three kinds:
//
//   - KindSynth: one schedulable DSP computation.
//   - KindGroup: children run in order; child i finishes before child i+1
//     starts whenever both contain synths.
//   - KindParallel: children are independent; they all start once the group's
//     predecessors finish, and nothing after the group starts until every
//     synth-carrying branch has finished.
//
// A container is "empty" when it transitively holds no synth. Empty
// containers stay in the tree but are transparent to scheduling.
//
// # Immutability
//
// Nodes are built bottom-up by the constructors and never change afterwards.
// This lets every container cache its synth count and tail count, so the
// graph builder's queries are O(1). A topology change produces a new tree.
package nodetree
