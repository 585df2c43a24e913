package session

import "github.com/roach88/reorder/internal/model"

// Listener receives session side effects. Callbacks run synchronously on the
// goroutine that called the entry point.
type Listener interface {
	DragStarted(item model.DraggableItem)
	DragEnded(item model.DraggableItem)
	Reordered(newOrder []model.DraggableItem)
	InvalidDrop(dragged, target model.DraggableItem)
	Dropped(dragged, target model.DraggableItem)
	Malformed(payload []byte, err error)
}

// ListenerFuncs adapts optional functions to the Listener interface.
// Nil fields are skipped.
type ListenerFuncs struct {
	OnDragStart   func(item model.DraggableItem)
	OnDragEnd     func(item model.DraggableItem)
	OnReorder     func(newOrder []model.DraggableItem)
	OnInvalidDrop func(dragged, target model.DraggableItem)
	OnDropped     func(dragged, target model.DraggableItem)
	OnMalformed   func(payload []byte, err error)
}

var _ Listener = ListenerFuncs{}

func (f ListenerFuncs) DragStarted(item model.DraggableItem) {
	if f.OnDragStart != nil {
		f.OnDragStart(item)
	}
}

func (f ListenerFuncs) DragEnded(item model.DraggableItem) {
	if f.OnDragEnd != nil {
		f.OnDragEnd(item)
	}
}

func (f ListenerFuncs) Reordered(newOrder []model.DraggableItem) {
	if f.OnReorder != nil {
		f.OnReorder(newOrder)
	}
}

func (f ListenerFuncs) InvalidDrop(dragged, target model.DraggableItem) {
	if f.OnInvalidDrop != nil {
		f.OnInvalidDrop(dragged, target)
	}
}

func (f ListenerFuncs) Dropped(dragged, target model.DraggableItem) {
	if f.OnDropped != nil {
		f.OnDropped(dragged, target)
	}
}

func (f ListenerFuncs) Malformed(payload []byte, err error) {
	if f.OnMalformed != nil {
		f.OnMalformed(payload, err)
	}
}

// NopListener discards every notification.
type NopListener struct{}

func (NopListener) DragStarted(model.DraggableItem) {}
func (NopListener) DragEnded(model.DraggableItem) {}
func (NopListener) Reordered([]model.DraggableItem) {}
func (NopListener) InvalidDrop(model.DraggableItem, model.DraggableItem) {}
func (NopListener) Dropped(model.DraggableItem, model.DraggableItem) {}
func (NopListener) Malformed([]byte, error) {}
