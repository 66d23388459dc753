package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/syncstore/internal/client/storage"
	"github.com/iudanet/syncstore/internal/models"
)

// CreateNamespace creates an empty namespace bucket
func (s *Storage) CreateNamespace(ctx context.Context, namespace string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.Bucket(bucketNamespaces).CreateBucketIfNotExists([]byte(namespace)); err != nil {
			return fmt.Errorf("failed to create namespace: %w", err)
		}
		return nil
	})
}

// DeleteNamespace drops the namespace bucket
func (s *Storage) DeleteNamespace(ctx context.Context, namespace string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		err := tx.Bucket(bucketNamespaces).DeleteBucket([]byte(namespace))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return storage.ErrNamespaceNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to delete namespace: %w", err)
		}
		return nil
	})
}

// Exists reports whether the namespace bucket exists
func (s *Storage) Exists(ctx context.Context, namespace string) (bool, error) {
	if s.db == nil {
		return false, storage.ErrStorageClosed
	}
	var exists bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(bucketNamespaces).Bucket([]byte(namespace)) != nil
		return nil
	})
	return exists, err
}

// SaveValues stores values as JSON keyed by value id
func (s *Storage) SaveValues(ctx context.Context, namespace string, values []models.StoredValue) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.Bucket(bucketNamespaces).CreateBucketIfNotExists([]byte(namespace))
		if err != nil {
			return fmt.Errorf("failed to create namespace: %w", err)
		}

		for _, v := range values {
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("failed to marshal value %s: %w", v.ValueID, err)
			}
			if err := bucket.Put([]byte(v.ValueID), data); err != nil {
				return fmt.Errorf("failed to save value %s: %w", v.ValueID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// LoadAll returns the values of the namespace ordered by id
func (s *Storage) LoadAll(ctx context.Context, namespace string) ([]models.StoredValue, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var values []models.StoredValue
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketNamespaces).Bucket([]byte(namespace))
		if bucket == nil {
			return nil
		}

		// Ключи в bbolt отсортированы
		return bucket.ForEach(func(k, data []byte) error {
			var v models.StoredValue
			if err := json.Unmarshal(data, &v); err != nil {
				return fmt.Errorf("failed to unmarshal value %s: %w", k, err)
			}
			values = append(values, v)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load namespace: %w", err)
	}
	return values, nil
}
