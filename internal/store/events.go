package store

import (
	"context"
	"fmt"

	"github.com/roach88/reorder/internal/model"
)

// AppendEvent writes one drag log record. Seq must be unique; records are
// append-only and a duplicate seq is an error.
func (s *Store) AppendEvent(ctx context.Context, ev model.DragEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drag_events
		(seq, surface_id, gesture, type, outcome, dragged_id, target_id, detail, order_fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.Seq,
		ev.SurfaceID,
		ev.Gesture,
		string(ev.Type),
		ev.Outcome,
		ev.DraggedID,
		ev.TargetID,
		ev.Detail,
		ev.OrderFingerprint,
	)
	if err != nil {
		return fmt.Errorf("append event seq=%d: %w", ev.Seq, err)
	}
	return nil
}

// ReadEvents returns a surface's drag log ordered by seq.
// Returns an empty slice (not nil) if the surface has no records.
func (s *Store) ReadEvents(ctx context.Context, surfaceID string) ([]model.DragEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, surface_id, gesture, type, outcome, dragged_id, target_id, detail, order_fingerprint
		FROM drag_events
		WHERE surface_id = ?
		ORDER BY seq ASC
	`, surfaceID)
	if err != nil {
		return nil, fmt.Errorf("read events %s: %w", surfaceID, err)
	}
	defer rows.Close()

	events := []model.DragEvent{}
	for rows.Next() {
		var (
			ev  model.DragEvent
			typ string
		)
		if err := rows.Scan(&ev.Seq, &ev.SurfaceID, &ev.Gesture, &typ, &ev.Outcome,
			&ev.DraggedID, &ev.TargetID, &ev.Detail, &ev.OrderFingerprint); err != nil {
			return nil, fmt.Errorf("read events %s: scan: %w", surfaceID, err)
		}
		ev.Type = model.EventType(typ)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events %s: iterate: %w", surfaceID, err)
	}
	return events, nil
}

// LastSeq returns the highest logged seq, or 0 for an empty log.
// The engine resumes its clock from this value.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM drag_events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}
