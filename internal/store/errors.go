package store

import "errors"

// Sentinel errors returned by store operations.
var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a key that already exists.
	ErrAlreadyExists = errors.New("already exists")
)
