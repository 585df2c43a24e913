package adapter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"

	"github.com/roach88/reorder/internal/engine"
	"github.com/roach88/reorder/internal/model"
	"github.com/roach88/reorder/internal/reorder"
	"github.com/roach88/reorder/internal/session"
)

const (
	maxPayloadBytes        = 16 * 1024
	maxFramesPerSecond     = 120 // sustained; bursts up to one second's worth
	maxDecodeErrorsPerConn = 3
)

// Driver is the part of the engine the adapter calls.
type Driver interface {
	StartDrag(ctx context.Context, surface, itemID string, pos model.Point) (engine.Reply, error)
	DragOver(ctx context.Context, surface, targetID string, pos model.Point) (engine.Reply, error)
	Drop(ctx context.Context, surface, targetID string, payload []byte) (engine.Reply, error)
	EndDrag(ctx context.Context, surface string) (engine.Reply, error)
	EndGesture(ctx context.Context, surface, gesture string) (engine.Reply, error)
	Snapshot(ctx context.Context, surface string) (engine.Reply, error)
}

// NewHandler returns the adapter routes: /up for health and /ws for the
// drag protocol.
func NewHandler(driver Driver, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		handleConn(conn, driver, logger)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})

	return mux
}

// connState is one connection's view of the gestures it started.
type connState struct {
	driver Driver
	peer   *peer
	logger *slog.Logger

	// gestures maps surface to the gesture this connection started there.
	gestures map[string]string
	// payloads maps surface to the transfer payload of that gesture.
	payloads map[string][]byte
}

func handleConn(conn *websocket.Conn, driver Driver, logger *slog.Logger) {
	defer func() {
		_ = conn.Close()
	}()

	ctx := context.Background()
	if req := conn.Request(); req != nil {
		ctx = req.Context()
	}

	cs := &connState{
		driver:   driver,
		peer:     newPeer(conn),
		logger:   logger.With("remote", remoteAddr(conn)),
		gestures: make(map[string]string),
		payloads: make(map[string][]byte),
	}
	defer cs.abandonGestures()

	cs.logger.Debug("connection opened")

	limiter := rate.NewLimiter(rate.Limit(maxFramesPerSecond), maxFramesPerSecond)
	decodeErrors := 0

	for {
		var frame Frame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			if errors.Is(err, io.EOF) {
				cs.logger.Debug("connection closed")
				return
			}
			decodeErrors++
			cs.logger.Warn("invalid frame", "error", err, "decode_errors", decodeErrors)
			_ = cs.peer.writeError("", CodeInvalidArgument, "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if frame.Payload != nil && len(*frame.Payload) > maxPayloadBytes {
			_ = cs.peer.writeError(frame.RequestID, CodeInvalidArgument, "payload too large")
			continue
		}

		if !limiter.Allow() {
			_ = cs.peer.writeError(frame.RequestID, CodeResourceExhausted, "rate limit exceeded")
			return
		}

		if err := cs.handleFrame(ctx, frame); err != nil {
			cs.logger.Debug("write failed", "error", err)
			return
		}
	}
}

// handleFrame answers one request. The returned error is a write failure.
func (cs *connState) handleFrame(ctx context.Context, frame Frame) error {
	if strings.TrimSpace(frame.Surface) == "" {
		return cs.peer.writeError(frame.RequestID, CodeInvalidArgument, "surface is required")
	}

	switch frame.Type {
	case TypeDragStart:
		return cs.handleStart(ctx, frame)
	case TypeDragOver:
		return cs.handleOver(ctx, frame)
	case TypeDragDrop:
		return cs.handleDrop(ctx, frame)
	case TypeDragEnd:
		return cs.handleEnd(ctx, frame)
	case TypeSurfaceItems:
		return cs.handleItems(ctx, frame)
	default:
		return cs.peer.writeError(frame.RequestID, CodeInvalidArgument, "unsupported frame type")
	}
}

func (cs *connState) handleStart(ctx context.Context, frame Frame) error {
	if frame.ItemID == "" {
		return cs.peer.writeError(frame.RequestID, CodeInvalidArgument, "item_id is required")
	}

	reply, err := cs.driver.StartDrag(ctx, frame.Surface, frame.ItemID, frame.point())
	if err != nil {
		return cs.writeEngineError(frame, err)
	}
	if reply.Started {
		cs.gestures[frame.Surface] = reply.Gesture
		cs.payloads[frame.Surface] = reply.Payload
	}

	return cs.peer.writeFrame(ReplyFrame{
		Type:      TypeDragAck,
		RequestID: frame.RequestID,
		Surface:   frame.Surface,
		Gesture:   reply.Gesture,
		Started:   boolPtr(reply.Started),
		Payload:   string(reply.Payload),
	})
}

func (cs *connState) handleOver(ctx context.Context, frame Frame) error {
	if frame.TargetID == "" {
		return cs.peer.writeError(frame.RequestID, CodeInvalidArgument, "target_id is required")
	}

	reply, err := cs.driver.DragOver(ctx, frame.Surface, frame.TargetID, frame.point())
	if err != nil {
		return cs.writeEngineError(frame, err)
	}

	return cs.peer.writeFrame(ReplyFrame{
		Type:       TypeDragAck,
		RequestID:  frame.RequestID,
		Surface:    frame.Surface,
		Gesture:    reply.Gesture,
		DropEffect: reply.Legality.DropEffect(),
	})
}

func (cs *connState) handleDrop(ctx context.Context, frame Frame) error {
	if frame.TargetID == "" {
		return cs.peer.writeError(frame.RequestID, CodeInvalidArgument, "target_id is required")
	}

	payload := cs.payloads[frame.Surface]
	if frame.Payload != nil {
		payload = []byte(*frame.Payload)
	}

	reply, err := cs.driver.Drop(ctx, frame.Surface, frame.TargetID, payload)
	if err != nil {
		return cs.writeEngineError(frame, err)
	}

	res := reply.Drop
	if reply.Gesture != "" && cs.gestures[frame.Surface] == reply.Gesture {
		delete(cs.gestures, frame.Surface)
		delete(cs.payloads, frame.Surface)
	}
	if res.Outcome == session.OutcomeMalformedPayload {
		cs.logger.Warn("malformed transfer payload",
			"surface", frame.Surface,
			"request_id", frame.RequestID,
			"bytes", len(payload),
		)
	}

	out := ReplyFrame{
		Type:      TypeDropResult,
		RequestID: frame.RequestID,
		Surface:   frame.Surface,
		Gesture:   reply.Gesture,
		Outcome:   string(res.Outcome),
		Reason:    string(res.Reason),
		Items:     reply.Items,
	}
	if res.Stale != reorder.StaleNone {
		out.Stale = res.Stale.String()
	}
	return cs.peer.writeFrame(out)
}

func (cs *connState) handleEnd(ctx context.Context, frame Frame) error {
	reply, err := cs.driver.EndDrag(ctx, frame.Surface)
	if err != nil {
		return cs.writeEngineError(frame, err)
	}
	if cs.gestures[frame.Surface] == reply.Gesture {
		delete(cs.gestures, frame.Surface)
		delete(cs.payloads, frame.Surface)
	}

	return cs.peer.writeFrame(ReplyFrame{
		Type:      TypeDragAck,
		RequestID: frame.RequestID,
		Surface:   frame.Surface,
		Gesture:   reply.Gesture,
		Ended:     boolPtr(reply.Ended),
	})
}

func (cs *connState) handleItems(ctx context.Context, frame Frame) error {
	reply, err := cs.driver.Snapshot(ctx, frame.Surface)
	if err != nil {
		return cs.writeEngineError(frame, err)
	}

	items := reply.Items
	if items == nil {
		items = []model.DraggableItem{}
	}
	return cs.peer.writeFrame(ReplyFrame{
		Type:      TypeSurfaceItems,
		RequestID: frame.RequestID,
		Surface:   frame.Surface,
		Gesture:   reply.Session.Gesture,
		Items:     items,
	})
}

func (cs *connState) writeEngineError(frame Frame, err error) error {
	code := string(engine.CodeOf(err))
	switch {
	case code != "":
	case errors.Is(err, engine.ErrStopped), errors.Is(err, context.Canceled):
		code = CodeUnavailable
	default:
		code = CodeInternal
	}
	cs.logger.Info("request failed",
		"type", frame.Type,
		"surface", frame.Surface,
		"request_id", frame.RequestID,
		"code", code,
		"error", err,
	)
	return cs.peer.writeError(frame.RequestID, code, err.Error())
}

// abandonGestures ends every gesture this connection started that is still
// the live gesture of its surface.
func (cs *connState) abandonGestures() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for surface, gesture := range cs.gestures {
		reply, err := cs.driver.EndGesture(ctx, surface, gesture)
		if err != nil {
			cs.logger.Warn("abandon gesture: end failed", "surface", surface, "error", err)
			continue
		}
		if reply.Ended {
			cs.logger.Info("gesture abandoned on disconnect", "surface", surface, "gesture", gesture)
		}
	}
}

func remoteAddr(conn *websocket.Conn) string {
	if req := conn.Request(); req != nil {
		return req.RemoteAddr
	}
	return ""
}
