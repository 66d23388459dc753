package storage

import "errors"

// Common storage errors
var (
	// ErrInvalidCounter indicates that a counter of zero was saved
	ErrInvalidCounter = errors.New("invalid counter")

	// ErrDatabaseNotFound indicates that the database has no stored state
	ErrDatabaseNotFound = errors.New("database not found")
)
