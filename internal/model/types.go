package model

import "encoding/json"

// DraggableItem is one entry of a reorderable list.
//
// Items are owned by the caller (the item store). The engine reads them and
// emits renumbered copies; it never mutates an item in place.
type DraggableItem struct {
	ID            string          `json:"id"`
	Position      int             `json:"position"`
	Kind          Kind            `json:"kind"`
	ParentGroupID string          `json:"parent_group_id,omitempty"` // "" means no parent group
	Payload       json.RawMessage `json:"payload,omitempty"`         // Opaque to the engine
}

// Point is a pointer coordinate in surface space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DragSession is a read-only snapshot of a drag session.
//
// Hover and the pointer fields are only meaningful while Active is true.
// An idle session has every field at its zero value.
type DragSession struct {
	Active         bool           `json:"active"`
	Gesture        string         `json:"gesture,omitempty"`
	Dragged        *DraggableItem `json:"dragged,omitempty"`
	Hover          *DraggableItem `json:"hover,omitempty"`
	PointerStart   *Point         `json:"pointer_start,omitempty"`
	PointerCurrent *Point         `json:"pointer_current,omitempty"`
}

// Surface is one reorderable list together with its drop constraints.
// At most one drag session is live per surface.
type Surface struct {
	ID     string           `json:"id"`
	Config ConstraintConfig `json:"config"`
	Items  []DraggableItem  `json:"items"`
}

// IDs returns the item ids in sequence order.
func IDs(items []DraggableItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// Find returns the index of the item with the given id, or -1.
func Find(items []DraggableItem, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy of the sequence. Payload bytes are shared.
func Clone(items []DraggableItem) []DraggableItem {
	if items == nil {
		return nil
	}
	out := make([]DraggableItem, len(items))
	copy(out, items)
	return out
}
