package storage

import "errors"

// Common client storage errors
var (
	// ErrNamespaceNotFound indicates that the namespace does not exist
	ErrNamespaceNotFound = errors.New("namespace not found")

	// ErrMetadataNotFound indicates that no metadata is stored under the key
	ErrMetadataNotFound = errors.New("metadata not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
