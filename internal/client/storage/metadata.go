package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/syncstore/internal/crypto"
	"github.com/iudanet/syncstore/internal/models"
)

// MetadataStorage defines interface for storing client metadata
type MetadataStorage interface {
	// SaveMetadata stores value under key
	SaveMetadata(ctx context.Context, key string, value []byte) error

	// GetMetadata returns the value stored under key or ErrMetadataNotFound
	GetMetadata(ctx context.Context, key string) ([]byte, error)
}

const (
	keyPeerIdentity = "peer_identity"
	keyStorageSalt  = "storage_salt"
)

// SavePeerIdentity remembers the peer id and ticket issued by the server
func SavePeerIdentity(ctx context.Context, m MetadataStorage, id models.PeerIdentity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to marshal peer identity: %w", err)
	}
	if err := m.SaveMetadata(ctx, keyPeerIdentity, data); err != nil {
		return fmt.Errorf("failed to save peer identity: %w", err)
	}
	return nil
}

// GetPeerIdentity returns the stored identity; a zero identity if none was saved
func GetPeerIdentity(ctx context.Context, m MetadataStorage) (models.PeerIdentity, error) {
	var id models.PeerIdentity
	data, err := m.GetMetadata(ctx, keyPeerIdentity)
	if errors.Is(err, ErrMetadataNotFound) {
		return id, nil
	}
	if err != nil {
		return id, fmt.Errorf("failed to get peer identity: %w", err)
	}
	if err := json.Unmarshal(data, &id); err != nil {
		return id, fmt.Errorf("failed to unmarshal peer identity: %w", err)
	}
	return id, nil
}

// StorageKey derives the key sealing persisted values from passphrase. The
// salt is generated on first use and kept in the metadata.
func StorageKey(ctx context.Context, m MetadataStorage, passphrase string) ([]byte, error) {
	salt, err := m.GetMetadata(ctx, keyStorageSalt)
	if errors.Is(err, ErrMetadataNotFound) {
		if salt, err = crypto.GenerateSalt(); err != nil {
			return nil, err
		}
		if err := m.SaveMetadata(ctx, keyStorageSalt, salt); err != nil {
			return nil, fmt.Errorf("failed to save storage salt: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get storage salt: %w", err)
	}
	return crypto.DeriveStorageKey(passphrase, salt)
}
