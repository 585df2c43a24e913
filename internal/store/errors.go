package store

import "errors"

var (
	// ErrSurfaceNotFound is returned when a surface id has no row.
	ErrSurfaceNotFound = errors.New("surface not found")

	// ErrInvalidOrder is returned when a sequence violates the store
	// invariant (dense positions, unique ids, valid kinds).
	ErrInvalidOrder = errors.New("invalid item order")
)
