// Package store provides SQLite-backed persistence for reorderable surfaces.
//
// The store is the caller side of the reorder engine: it owns the
// authoritative item sequence of every surface and adopts the orders the
// engine emits. The session and reorder packages never import it.
//
// Tables:
//   - surfaces: one row per surface with its JSON constraint config
//   - items: the item sequence, one row per item, dense positions from 0
//   - drag_events: append-only drag log stamped with the logical clock
//
// # Ordering
//
// Item reads are ORDER BY position ASC; drag log reads are ORDER BY seq ASC.
// Order writes replace a surface's items in one transaction, so readers
// never see a half-applied reorder.
//
// # Schema upgrades
//
// PRAGMA user_version records the last applied migration. Open runs any
// newer ones, so databases written by older builds are upgraded in place.
// Connections run in WAL mode with foreign keys enforced.
package store
