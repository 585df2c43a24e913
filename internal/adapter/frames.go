package adapter

import (
	"sync"

	"golang.org/x/net/websocket"

	"github.com/roach88/reorder/internal/model"
)

// Frame types.
const (
	TypeDragStart    = "drag.start"
	TypeDragOver     = "drag.over"
	TypeDragDrop     = "drag.drop"
	TypeDragEnd      = "drag.end"
	TypeSurfaceItems = "surface.items"

	TypeDragAck    = "drag.ack"
	TypeDropResult = "drop.result"
	TypeError      = "error"
)

// Transport error codes. Engine failures use the engine's own codes.
const (
	CodeInvalidArgument   = "INVALID_ARGUMENT"
	CodeResourceExhausted = "RESOURCE_EXHAUSTED"
	CodeUnavailable       = "UNAVAILABLE"
	CodeInternal          = "INTERNAL"
)

// Frame is a client request.
type Frame struct {
	Type      string  `json:"type"`
	RequestID string  `json:"request_id,omitempty"`
	Surface   string  `json:"surface"`
	ItemID    string  `json:"item_id,omitempty"`
	TargetID  string  `json:"target_id,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`

	// Payload is the transfer payload as text, the way a DataTransfer
	// carries it. It need not be valid JSON.
	Payload *string `json:"payload,omitempty"`
}

func (f Frame) point() model.Point {
	return model.Point{X: f.X, Y: f.Y}
}

// ReplyFrame is a server reply.
type ReplyFrame struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Surface   string `json:"surface,omitempty"`
	Gesture   string `json:"gesture,omitempty"`

	// drag.ack
	Started    *bool  `json:"started,omitempty"`
	DropEffect string `json:"drop_effect,omitempty"`
	Ended      *bool  `json:"ended,omitempty"`
	Payload    string `json:"payload,omitempty"`

	// drop.result
	Outcome string `json:"outcome,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Stale   string `json:"stale,omitempty"`

	// drop.result and surface.items
	Items []model.DraggableItem `json:"items,omitempty"`

	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// peer serializes writes to one connection.
type peer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newPeer(conn *websocket.Conn) *peer {
	return &peer{conn: conn}
}

func (p *peer) writeFrame(frame ReplyFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return websocket.JSON.Send(p.conn, frame)
}

func (p *peer) writeError(requestID, code, message string) error {
	return p.writeFrame(ReplyFrame{
		Type:      TypeError,
		RequestID: requestID,
		Error:     &ErrorBody{Code: code, Message: message},
	})
}

func boolPtr(b bool) *bool { return &b }
