package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/syncstore/internal/server/storage"
)

var _ storage.CounterStorage = (*Storage)(nil)

// SaveCounter upserts the next counter of a value, keeping the highest one.
func (s *Storage) SaveCounter(ctx context.Context, databaseID, valueID string, next uint32) error {
	if next == 0 {
		return storage.ErrInvalidCounter
	}
	query := `
		INSERT INTO counters (database_id, value_id, next_counter, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (database_id, value_id) DO UPDATE SET
			next_counter = MAX(next_counter, excluded.next_counter),
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, databaseID, valueID, next, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save counter: %w", err)
	}
	return nil
}

// LoadCounters returns every stored counter grouped by database.
func (s *Storage) LoadCounters(ctx context.Context) (map[string]map[string]uint32, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT database_id, value_id, next_counter FROM counters`)
	if err != nil {
		return nil, fmt.Errorf("failed to query counters: %w", err)
	}
	defer rows.Close()

	counters := make(map[string]map[string]uint32)
	for rows.Next() {
		var databaseID, valueID string
		var next uint32
		if err := rows.Scan(&databaseID, &valueID, &next); err != nil {
			return nil, fmt.Errorf("failed to scan counter: %w", err)
		}
		if counters[databaseID] == nil {
			counters[databaseID] = make(map[string]uint32)
		}
		counters[databaseID][valueID] = next
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return counters, nil
}

// SaveHost records the host peer of a database.
func (s *Storage) SaveHost(ctx context.Context, databaseID, peerID string) error {
	query := `INSERT OR REPLACE INTO hosts (database_id, peer_id, elected_at) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, databaseID, peerID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save host: %w", err)
	}
	return nil
}

// LoadHosts returns the host peer of every database.
func (s *Storage) LoadHosts(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT database_id, peer_id FROM hosts`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hosts: %w", err)
	}
	defer rows.Close()

	hosts := make(map[string]string)
	for rows.Next() {
		var databaseID, peerID string
		if err := rows.Scan(&databaseID, &peerID); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts[databaseID] = peerID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return hosts, nil
}

// DeleteDatabase removes the counters and the host of a database.
func (s *Storage) DeleteDatabase(ctx context.Context, databaseID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM counters WHERE database_id = ?`, databaseID)
	if err != nil {
		return fmt.Errorf("failed to delete counters: %w", err)
	}
	counters, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	res, err = tx.ExecContext(ctx, `DELETE FROM hosts WHERE database_id = ?`, databaseID)
	if err != nil {
		return fmt.Errorf("failed to delete host: %w", err)
	}
	hosts, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	if counters == 0 && hosts == 0 {
		return storage.ErrDatabaseNotFound
	}
	return nil
}
