package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/syncstore/internal/client/storage"
	"github.com/iudanet/syncstore/internal/models"
)

func createTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNew_Success(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "testdb.db")

	store, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, store.Close())
	}()

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	err = store.db.View(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketNamespaces, bucketMetadata} {
			if tx.Bucket(b) == nil {
				return os.ErrNotExist
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "db"))
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestClose(t *testing.T) {
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "testdb.db"))
	require.NoError(t, err)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "повторное закрытие безопасно")

	_, err = store.LoadAll(context.Background(), "ns")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, store.SaveMetadata(context.Background(), "k", nil), storage.ErrStorageClosed)
}

func TestNamespaces(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	exists, err := store.Exists(ctx, "game")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.CreateNamespace(ctx, "game"))
	require.NoError(t, store.CreateNamespace(ctx, "game"), "создание идемпотентно")

	exists, err = store.Exists(ctx, "game")
	require.NoError(t, err)
	assert.True(t, exists)

	values, err := store.LoadAll(ctx, "game")
	require.NoError(t, err)
	assert.Empty(t, values)

	require.NoError(t, store.DeleteNamespace(ctx, "game"))
	assert.ErrorIs(t, store.DeleteNamespace(ctx, "game"), storage.ErrNamespaceNotFound)
}

func TestSaveValues_LoadAll(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveValues(ctx, "game", []models.StoredValue{
		{ValueID: "score", Type: "int", Data: []byte("1"), UpdatedAt: at},
		{ValueID: "name", Type: "string", Data: []byte("bob"), SyncRequired: true, UpdatedAt: at},
	}))
	require.NoError(t, store.SaveValues(ctx, "game", []models.StoredValue{
		{ValueID: "score", Type: "int", Data: []byte("2"), UpdatedAt: at},
	}))
	require.NoError(t, store.SaveValues(ctx, "other", []models.StoredValue{
		{ValueID: "score", Type: "int", Data: []byte("9"), UpdatedAt: at},
	}))

	values, err := store.LoadAll(ctx, "game")
	require.NoError(t, err)
	assert.Equal(t, []models.StoredValue{
		{ValueID: "name", Type: "string", Data: []byte("bob"), SyncRequired: true, UpdatedAt: at},
		{ValueID: "score", Type: "int", Data: []byte("2"), UpdatedAt: at},
	}, values)

	require.NoError(t, store.DeleteNamespace(ctx, "game"))
	values, err = store.LoadAll(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, values, 1, "удаление не затрагивает другие пространства")
}

func TestMetadata(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.GetMetadata(ctx, "peer_identity")
	assert.ErrorIs(t, err, storage.ErrMetadataNotFound)

	require.NoError(t, store.SaveMetadata(ctx, "peer_identity", []byte(`{"peer_id":"p"}`)))
	value, err := store.GetMetadata(ctx, "peer_identity")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"peer_id":"p"}`), value)

	// Идентичность пира через хелперы пакета storage
	require.NoError(t, storage.SavePeerIdentity(ctx, store, models.PeerIdentity{PeerID: "p1", Ticket: "t1"}))
	id, err := storage.GetPeerIdentity(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, models.PeerIdentity{PeerID: "p1", Ticket: "t1"}, id)
}
