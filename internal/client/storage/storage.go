// Package storage persists the values of persistent databases.
package storage

import (
	"context"

	"github.com/iudanet/syncstore/internal/models"
)

//go:generate moq -out backend_mock.go . Backend

// Backend is a durable namespace → value store.
type Backend interface {
	MetadataStorage

	// CreateNamespace creates an empty namespace; existing namespaces are kept
	CreateNamespace(ctx context.Context, namespace string) error

	// DeleteNamespace drops the namespace with its values.
	// Returns ErrNamespaceNotFound if it does not exist.
	DeleteNamespace(ctx context.Context, namespace string) error

	// Exists reports whether the namespace exists
	Exists(ctx context.Context, namespace string) (bool, error)

	// SaveValues upserts values in one transaction, creating the namespace if needed
	SaveValues(ctx context.Context, namespace string, values []models.StoredValue) error

	// LoadAll returns the values of the namespace ordered by id; a missing namespace is empty
	LoadAll(ctx context.Context, namespace string) ([]models.StoredValue, error)

	// Close releases the backend
	Close() error
}
