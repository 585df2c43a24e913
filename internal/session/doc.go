// Package session implements the drag session state machine.
//
// A Session tracks one in-progress drag gesture on one reorderable surface.
// It is created idle, mutated only through the four entry points, and
// returns to idle on every EndDrag, legal drop, invalid drop or malformed
// payload:
//
//	Idle --StartDrag--> Active(hover=none) --DragOver--> Active(hover=target)
//	Active --Drop/EndDrag--> Idle
//
// The entry points are synchronous and never panic or return errors; every
// input leads to either a no-op or a reset. Side effects are reported
// through an injected Listener:
//
//   - DragStarted / DragEnded: lifecycle notifications
//   - Reordered: exactly once per legal drop, with the renumbered sequence
//   - InvalidDrop: self-drop or failed constraint check, store unchanged
//   - Dropped: after Reordered
//   - Malformed: transfer payload could not be decoded (no other callback)
//
// A Session is not safe for concurrent use. Callers that receive events
// from several goroutines serialize them through internal/engine, which
// owns exactly one Session per surface.
package session
