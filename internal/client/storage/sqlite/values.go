package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/syncstore/internal/client/storage"
	"github.com/iudanet/syncstore/internal/models"
)

// tableName is derived from the namespace row id, so namespace names never
// reach the SQL text
func tableName(id int64) string {
	return fmt.Sprintf("ns_%d", id)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func namespaceID(ctx context.Context, q querier, namespace string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM namespaces WHERE name = ?`, namespace).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrNamespaceNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query namespace: %w", err)
	}
	return id, nil
}

// ensureNamespace returns the id of the namespace, creating its table if needed
func ensureNamespace(ctx context.Context, q querier, namespace string) (int64, error) {
	id, err := namespaceID(ctx, q, namespace)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, storage.ErrNamespaceNotFound) {
		return 0, err
	}

	res, err := q.ExecContext(ctx, `INSERT INTO namespaces (name, created_at) VALUES (?, ?)`, namespace, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to register namespace: %w", err)
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, fmt.Errorf("failed to get namespace id: %w", err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			value_id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			data BLOB NOT NULL,
			sync_required INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL
		)`, tableName(id))
	if _, err := q.ExecContext(ctx, query); err != nil {
		return 0, fmt.Errorf("failed to create namespace table: %w", err)
	}
	return id, nil
}

// CreateNamespace creates the namespace table
func (s *Storage) CreateNamespace(ctx context.Context, namespace string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := ensureNamespace(ctx, tx, namespace); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteNamespace drops the namespace table
func (s *Storage) DeleteNamespace(ctx context.Context, namespace string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := namespaceID(ctx, tx, namespace)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, tableName(id))); err != nil {
		return fmt.Errorf("failed to drop namespace table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM namespaces WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to unregister namespace: %w", err)
	}
	return tx.Commit()
}

// Exists reports whether the namespace is registered
func (s *Storage) Exists(ctx context.Context, namespace string) (bool, error) {
	_, err := namespaceID(ctx, s.db, namespace)
	switch {
	case errors.Is(err, storage.ErrNamespaceNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// SaveValues upserts values in one transaction
func (s *Storage) SaveValues(ctx context.Context, namespace string, values []models.StoredValue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := ensureNamespace(ctx, tx, namespace)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (value_id, type, data, sync_required, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (value_id) DO UPDATE SET
			type = excluded.type,
			data = excluded.data,
			sync_required = excluded.sync_required,
			updated_at = excluded.updated_at
	`, tableName(id))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, v := range values {
		data := v.Data
		if data == nil {
			data = []byte{}
		}
		if _, err := stmt.ExecContext(ctx, v.ValueID, v.Type, data, v.SyncRequired, v.UpdatedAt.UTC()); err != nil {
			return fmt.Errorf("failed to save value %s: %w", v.ValueID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadAll returns the values of the namespace ordered by id
func (s *Storage) LoadAll(ctx context.Context, namespace string) ([]models.StoredValue, error) {
	id, err := namespaceID(ctx, s.db, namespace)
	if errors.Is(err, storage.ErrNamespaceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT value_id, type, data, sync_required, updated_at FROM %s ORDER BY value_id`, tableName(id))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query values: %w", err)
	}
	defer rows.Close()

	var values []models.StoredValue
	for rows.Next() {
		var v models.StoredValue
		if err := rows.Scan(&v.ValueID, &v.Type, &v.Data, &v.SyncRequired, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return values, nil
}

// SaveMetadata stores value under key
func (s *Storage) SaveMetadata(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	query := `INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to save metadata %s: %w", key, err)
	}
	return nil
}

// GetMetadata returns the value stored under key
func (s *Storage) GetMetadata(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrMetadataNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata %s: %w", key, err)
	}
	return value, nil
}
