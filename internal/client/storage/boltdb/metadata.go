package boltdb

import (
	"context"
	"fmt"
	"slices"

	"go.etcd.io/bbolt"

	"github.com/iudanet/syncstore/internal/client/storage"
)

// SaveMetadata stores value under key
func (s *Storage) SaveMetadata(ctx context.Context, key string, value []byte) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketMetadata).Put([]byte(key), value); err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
		return nil
	})
}

// GetMetadata returns the value stored under key
func (s *Storage) GetMetadata(ctx context.Context, key string) ([]byte, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMetadata).Get([]byte(key))
		if data == nil {
			return storage.ErrMetadataNotFound
		}
		// Срез валиден только внутри транзакции
		value = slices.Clone(data)
		return nil
	})
	return value, err
}
