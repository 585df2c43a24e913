// Package engine hosts drag sessions behind a single-writer event loop.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// The engine owns one session.Session per surface and processes every event
// in a single goroutine. This ensures:
// - At most one live gesture per surface
// - Store writes never race a concurrent drop
// - The drag log order equals the processing order
//
// Event Processing Flow:
// 1. Adapters enqueue events (start, over, drop, end) for a surface
// 2. Engine.Run() dequeues events one at a time
// 3. The surface is loaded from the store on first use and cached
// 4. The event is applied to the surface's session
// 5. A reordered drop is persisted with store.ReplaceItems
// 6. A drag log record stamped by the logical Clock is appended
//
// Submit waits for the Reply; Enqueue is fire-and-forget.
//
// Logical Clock:
// Drag log records are stamped with a monotonic seq from Clock.Next().
// Wall-clock time is never used for ordering.
package engine
