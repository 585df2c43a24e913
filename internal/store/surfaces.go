package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/reorder/internal/model"
)

// PutSurface creates or replaces a surface, its constraint config and its
// items in a single transaction. Items must satisfy the store invariant.
func (s *Store) PutSurface(ctx context.Context, surface model.Surface) error {
	if surface.ID == "" {
		return fmt.Errorf("put surface: empty id")
	}
	cfgJSON, err := marshalConfig(surface.Config)
	if err != nil {
		return fmt.Errorf("put surface %s: %w", surface.ID, err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO surfaces (id, config, version)
			VALUES (?, ?, 0)
			ON CONFLICT(id) DO UPDATE SET config = excluded.config
		`, surface.ID, cfgJSON)
		if err != nil {
			return err
		}
		return replaceItemsTx(ctx, tx, surface.ID, surface.Items)
	})
	if err != nil {
		return fmt.Errorf("put surface %s: %w", surface.ID, err)
	}
	return nil
}

// ReadSurface loads a surface with its config and items.
// The config's CustomPredicate is left nil; PredicateName carries the
// registered predicate to resolve.
func (s *Store) ReadSurface(ctx context.Context, id string) (model.Surface, error) {
	var cfgJSON string
	err := s.db.QueryRowContext(ctx, `SELECT config FROM surfaces WHERE id = ?`, id).Scan(&cfgJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Surface{}, fmt.Errorf("read surface %s: %w", id, ErrSurfaceNotFound)
	}
	if err != nil {
		return model.Surface{}, fmt.Errorf("read surface %s: %w", id, err)
	}

	cfg, err := unmarshalConfig(cfgJSON)
	if err != nil {
		return model.Surface{}, fmt.Errorf("read surface %s: %w", id, err)
	}

	items, err := s.ReadItems(ctx, id)
	if err != nil {
		return model.Surface{}, err
	}

	return model.Surface{ID: id, Config: cfg, Items: items}, nil
}

// ListSurfaces returns all surface ids in ascending order.
func (s *Store) ListSurfaces(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM surfaces ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("list surfaces: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list surfaces: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list surfaces: iterate: %w", err)
	}
	return ids, nil
}

// SurfaceVersion returns the number of order writes applied to a surface.
func (s *Store) SurfaceVersion(ctx context.Context, id string) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM surfaces WHERE id = ?`, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("surface version %s: %w", id, ErrSurfaceNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("surface version %s: %w", id, err)
	}
	return version, nil
}

// DeleteSurface removes a surface and its items. The drag log is kept.
func (s *Store) DeleteSurface(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM surfaces WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete surface %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete surface %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete surface %s: %w", id, ErrSurfaceNotFound)
	}
	return nil
}

func marshalConfig(cfg model.ConstraintConfig) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

func unmarshalConfig(data string) (model.ConstraintConfig, error) {
	var cfg model.ConstraintConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return model.ConstraintConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
