// Package storage defines the durable state of the arbitrator.
package storage

import "context"

//go:generate moq -out storage_mock.go . CounterStorage

// CounterStorage keeps the authoritative counters and elected hosts across restarts.
type CounterStorage interface {
	// SaveCounter records the next counter of a value; a lower counter never replaces a higher one
	SaveCounter(ctx context.Context, databaseID, valueID string, next uint32) error

	// LoadCounters returns the next counter of every value, grouped by database
	LoadCounters(ctx context.Context) (map[string]map[string]uint32, error)

	// SaveHost records the host peer of a database
	SaveHost(ctx context.Context, databaseID, peerID string) error

	// LoadHosts returns the host peer of every database
	LoadHosts(ctx context.Context) (map[string]string, error)

	// DeleteDatabase removes the counters and the host of a database
	DeleteDatabase(ctx context.Context, databaseID string) error
}
