// Package reorder computes the sequence that results from a legal drop.
//
// Reorder is deterministic and side-effect free: the input slice is never
// mutated and the result is always a fresh slice. The dragged entry is
// removed first and the target is located in the remaining sequence, so the
// dragged entry always lands immediately before the target.
//
// Example, dragging A onto C in [A:0 B:1 C:2]:
//
//	remove A        -> [B C]
//	C is at index 1 in [B C]
//	insert A at 1   -> [B A C]
//	renumber        -> [B:0 A:1 C:2]
//
// Ids that are no longer present (stale drags) leave the input untouched.
package reorder
