package engine

import "github.com/roach88/reorder/internal/model"

// EventType selects what an Event asks of a surface's session.
type EventType int

const (
	// EventStart begins a drag of ItemID.
	EventStart EventType = iota + 1
	// EventOver hovers the active drag over TargetID.
	EventOver
	// EventDrop drops the active drag on TargetID with Payload.
	EventDrop
	// EventEnd cancels the active drag.
	EventEnd
	// EventSnapshot reads the surface's items and session state.
	EventSnapshot
	// EventReload discards the cached surface so the next event rereads
	// it from the store.
	EventReload
)

// String returns the name used in logs.
func (t EventType) String() string {
	switch t {
	case EventStart:
		return "start"
	case EventOver:
		return "over"
	case EventDrop:
		return "drop"
	case EventEnd:
		return "end"
	case EventSnapshot:
		return "snapshot"
	case EventReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Event is one request for a surface's drag session.
//
// ItemID is read by EventStart, TargetID by EventOver and EventDrop,
// Payload by EventDrop. Point is the pointer position for start and over.
// A non-empty Gesture makes EventEnd end the drag only while that gesture
// is the live one.
type Event struct {
	Type     EventType
	Surface  string
	ItemID   string
	TargetID string
	Point    model.Point
	Payload  []byte
	Gesture  string

	reply chan response // Set by Submit; nil for fire-and-forget Enqueue
}
