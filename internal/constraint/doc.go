// Package constraint decides whether a candidate drop is legal.
//
// CanDrop is a pure function of the surface's ConstraintConfig and the two
// items involved. Checks run in a fixed order and the first failing check
// wins:
//
//  1. Self-drop (dragged.ID == target.ID) is always illegal.
//  2. A non-empty AllowedDropKinds must contain the target's kind, and the
//     dragged item's kind as well.
//  3. A CustomPredicate, when present, is authoritative.
//  4. Otherwise the drop is legal.
//
// AllowCrossGroup, MinItems and MaxItems are intentionally not consulted.
package constraint
