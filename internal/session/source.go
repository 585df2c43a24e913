package session

import "github.com/roach88/reorder/internal/model"

// ItemSource exposes the authoritative item sequence of a surface. The
// session reads it on every drop and never writes to it.
type ItemSource interface {
	Items() []model.DraggableItem
}

// StaticSource is an ItemSource over a fixed slice.
type StaticSource []model.DraggableItem

// Items returns the slice itself.
func (s StaticSource) Items() []model.DraggableItem {
	return s
}

// SourceFunc adapts a function to ItemSource.
type SourceFunc func() []model.DraggableItem

// Items calls f.
func (f SourceFunc) Items() []model.DraggableItem {
	return f()
}
