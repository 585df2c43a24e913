package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/reorder/internal/model"
	"github.com/roach88/reorder/internal/reorder"
)

// ReadItems returns a surface's items ordered by position.
// Returns an empty slice (not nil) for a surface without items.
func (s *Store) ReadItems(ctx context.Context, surfaceID string) ([]model.DraggableItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, position, kind, parent_group_id, payload
		FROM items
		WHERE surface_id = ?
		ORDER BY position ASC, id COLLATE BINARY ASC
	`, surfaceID)
	if err != nil {
		return nil, fmt.Errorf("read items %s: %w", surfaceID, err)
	}
	defer rows.Close()

	items := []model.DraggableItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("read items %s: %w", surfaceID, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read items %s: iterate: %w", surfaceID, err)
	}
	return items, nil
}

// ReplaceItems adopts a new order for an existing surface and bumps its
// version. The write is atomic: on any error the previous order is kept.
// Returns the new surface version.
func (s *Store) ReplaceItems(ctx context.Context, surfaceID string, items []model.DraggableItem) (int64, error) {
	var version int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT version FROM surfaces WHERE id = ?`, surfaceID).Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSurfaceNotFound
		}
		if err != nil {
			return err
		}
		if err := replaceItemsTx(ctx, tx, surfaceID, items); err != nil {
			return err
		}
		version++
		if _, err := tx.ExecContext(ctx, `UPDATE surfaces SET version = ? WHERE id = ?`, version, surfaceID); err != nil {
			return fmt.Errorf("bump version: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("replace items %s: %w", surfaceID, err)
	}
	return version, nil
}

// replaceItemsTx deletes every item of the surface and inserts items.
func replaceItemsTx(ctx context.Context, tx *sql.Tx, surfaceID string, items []model.DraggableItem) error {
	if err := reorder.CheckDense(items); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE surface_id = ?`, surfaceID); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (surface_id, id, position, kind, parent_group_id, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		var payload any
		if len(it.Payload) > 0 {
			payload = string(it.Payload)
		}
		if _, err := stmt.ExecContext(ctx, surfaceID, it.ID, it.Position, it.Kind.String(), it.ParentGroupID, payload); err != nil {
			return fmt.Errorf("insert item %s: %w", it.ID, err)
		}
	}
	return nil
}

func scanItem(rows *sql.Rows) (model.DraggableItem, error) {
	var (
		it      model.DraggableItem
		kind    string
		payload sql.NullString
	)
	if err := rows.Scan(&it.ID, &it.Position, &kind, &it.ParentGroupID, &payload); err != nil {
		return model.DraggableItem{}, fmt.Errorf("scan item: %w", err)
	}

	k, err := model.ParseKind(kind)
	if err != nil {
		return model.DraggableItem{}, fmt.Errorf("scan item %s: %w", it.ID, err)
	}
	it.Kind = k

	if payload.Valid {
		it.Payload = json.RawMessage(payload.String)
	}
	return it, nil
}
