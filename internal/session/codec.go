package session

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/reorder/internal/model"
)

// TransferCodec serializes the dragged item's identity into the drag
// transfer channel and back.
type TransferCodec interface {
	// Encode produces the transfer payload for item.
	Encode(item model.DraggableItem) ([]byte, error)

	// Decode recovers the dragged item. Failures wrap ErrMalformedPayload.
	Decode(payload []byte, src ItemSource) (model.DraggableItem, error)
}

// Codec names accepted by CodecByName.
const (
	CodecItem = "item"
	CodecID   = "id"
)

// CodecByName returns the codec registered under name.
func CodecByName(name string) (TransferCodec, error) {
	switch name {
	case CodecItem, "":
		return ItemCodec{}, nil
	case CodecID:
		return IDCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown transfer codec %q: must be %q or %q", name, CodecItem, CodecID)
	}
}

// ItemCodec transfers the whole item, payload included, as JSON.
type ItemCodec struct{}

// Encode marshals item as JSON.
func (ItemCodec) Encode(item model.DraggableItem) ([]byte, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode drag payload: %w", err)
	}
	return data, nil
}

// Decode unmarshals a JSON item. An item without an id is malformed.
func (ItemCodec) Decode(payload []byte, _ ItemSource) (model.DraggableItem, error) {
	var item model.DraggableItem
	if err := json.Unmarshal(payload, &item); err != nil {
		return model.DraggableItem{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if item.ID == "" {
		return model.DraggableItem{}, fmt.Errorf("%w: missing id", ErrMalformedPayload)
	}
	return item, nil
}

// IDCodec transfers only the item id and resolves the full item from the
// item source on drop. An id that is no longer present decodes to a bare
// item carrying just that id, which Drop reports as stale before any
// constraint is checked.
type IDCodec struct{}

type idEnvelope struct {
	ID string `json:"id"`
}

// Encode marshals {"id": item.ID}.
func (IDCodec) Encode(item model.DraggableItem) ([]byte, error) {
	data, err := json.Marshal(idEnvelope{ID: item.ID})
	if err != nil {
		return nil, fmt.Errorf("encode drag payload: %w", err)
	}
	return data, nil
}

// Decode parses the envelope and looks the id up in src.
func (IDCodec) Decode(payload []byte, src ItemSource) (model.DraggableItem, error) {
	var env idEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return model.DraggableItem{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if env.ID == "" {
		return model.DraggableItem{}, fmt.Errorf("%w: missing id", ErrMalformedPayload)
	}
	if src != nil {
		items := src.Items()
		if i := model.Find(items, env.ID); i >= 0 {
			return items[i], nil
		}
	}
	return model.DraggableItem{ID: env.ID}, nil
}
