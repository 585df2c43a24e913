// Package adapter exposes the engine to browser clients over WebSocket.
//
// A client sends one JSON frame per pointer event:
//
//	{"type":"drag.start","request_id":"r1","surface":"board","item_id":"A","x":10,"y":4}
//	{"type":"drag.over","request_id":"r2","surface":"board","target_id":"C","x":10,"y":90}
//	{"type":"drag.drop","request_id":"r3","surface":"board","target_id":"C","payload":"..."}
//	{"type":"drag.end","request_id":"r4","surface":"board"}
//	{"type":"surface.items","request_id":"r5","surface":"board"}
//
// and receives exactly one reply frame per request: drag.ack for start,
// over and end (over carries drop_effect "move" or "none"), drop.result for
// drop, surface.items for a read, or error.
//
// The payload of a drag.start reply is the transfer payload; clients hand it
// back unchanged on drag.drop. A drop without a payload reuses the payload of
// the connection's last start on that surface.
//
// When a connection closes while one of its gestures is still live, the
// adapter ends that gesture.
package adapter
