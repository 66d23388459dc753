package database

import (
	"context"
	"errors"

	"github.com/iudanet/syncstore/internal/models"
	"github.com/iudanet/syncstore/pkg/api"
)

var (
	// ErrNotConnected indicates that a write was applied locally but could not be sent
	ErrNotConnected = errors.New("not connected")

	// ErrTimeout indicates that the server did not answer in time
	ErrTimeout = errors.New("request timed out")

	// ErrTypeMismatch indicates that a value was requested with a type other than the one it holds
	ErrTypeMismatch = errors.New("value type mismatch")

	// ErrDatabaseDeleted indicates that the database was deleted
	ErrDatabaseDeleted = errors.New("database deleted")
)

//go:generate moq -out sender_mock.go . Sender

// Sender delivers protocol messages to the server on behalf of a database.
type Sender interface {
	// Connected reports whether the transport is currently usable
	Connected() bool

	// Send writes a one-way message
	Send(msg api.Message) error

	// Request sends msg and calls callback exactly once, with nil if no reply arrived in time
	Request(msg api.Message, callback func(api.Message)) error
}

//go:generate moq -out persister_mock.go . Persister

// Persister stores values of persistent databases.
type Persister interface {
	// Save schedules a value for asynchronous, batched storage
	Save(namespace, valueID string, data []byte, typ string, syncRequired bool)

	// Exists reports whether the namespace is stored
	Exists(ctx context.Context, namespace string) (bool, error)

	// CreateNamespace creates an empty namespace
	CreateNamespace(ctx context.Context, namespace string) error

	// LoadAll returns every stored value of the namespace
	LoadAll(ctx context.Context, namespace string) ([]models.StoredValue, error)

	// DeleteNamespace drops the namespace with all its values
	DeleteNamespace(ctx context.Context, namespace string) error
}

// Resolver finds a live database by id. Values keep only the id of their
// database and resolve it on every call.
type Resolver interface {
	Lookup(id string) (*Database, bool)
}
