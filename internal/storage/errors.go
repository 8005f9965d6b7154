package storage

import "errors"

// Error definitions.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert collides with an existing id.
	ErrDuplicate = errors.New("record already exists")
)
