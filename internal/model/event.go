package model

// EventType names a drag event log record.
type EventType string

const (
	EventStart EventType = "start"
	EventOver  EventType = "over"
	EventDrop  EventType = "drop"
	EventEnd   EventType = "end"
)

// Valid reports whether t is one of the four record types.
func (t EventType) Valid() bool {
	switch t {
	case EventStart, EventOver, EventDrop, EventEnd:
		return true
	default:
		return false
	}
}

// DragEvent is one record of a surface's drag event log.
//
// Seq comes from the engine's logical clock; records are ordered by Seq,
// never by wall time. Detail carries the drop effect for over events and the
// rejection reason or stale side for drop events.
type DragEvent struct {
	Seq              int64     `json:"seq"`
	SurfaceID        string    `json:"surface_id"`
	Gesture          string    `json:"gesture,omitempty"`
	Type             EventType `json:"type"`
	Outcome          string    `json:"outcome,omitempty"`
	DraggedID        string    `json:"dragged_id,omitempty"`
	TargetID         string    `json:"target_id,omitempty"`
	Detail           string    `json:"detail,omitempty"`
	OrderFingerprint string    `json:"order_fingerprint,omitempty"`
}
