package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/syncstore/internal/client/storage"
	"github.com/iudanet/syncstore/internal/models"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	// Используем in-memory database для тестов
	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorage_Namespaces(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	exists, err := s.Exists(ctx, "lobby/room-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.CreateNamespace(ctx, "lobby/room-1"))
	require.NoError(t, s.CreateNamespace(ctx, "lobby/room-1"))

	exists, err = s.Exists(ctx, "lobby/room-1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.DeleteNamespace(ctx, "lobby/room-1"))
	assert.ErrorIs(t, s.DeleteNamespace(ctx, "lobby/room-1"), storage.ErrNamespaceNotFound)

	exists, err = s.Exists(ctx, "lobby/room-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStorage_SaveValues(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveValues(ctx, "game", []models.StoredValue{
		{ValueID: "score", Type: "int", Data: []byte("1"), UpdatedAt: at},
		{ValueID: "name", Type: "string", Data: []byte(`"bob"`), SyncRequired: true, UpdatedAt: at},
	}))
	require.NoError(t, s.SaveValues(ctx, "game", []models.StoredValue{
		{ValueID: "score", Type: "int", Data: []byte("2"), UpdatedAt: at.Add(time.Minute)},
	}))

	values, err := s.LoadAll(ctx, "game")
	require.NoError(t, err)
	require.Len(t, values, 2)

	assert.Equal(t, "name", values[0].ValueID)
	assert.Equal(t, []byte(`"bob"`), values[0].Data)
	assert.True(t, values[0].SyncRequired)
	assert.True(t, values[0].UpdatedAt.Equal(at))

	assert.Equal(t, "score", values[1].ValueID)
	assert.Equal(t, "int", values[1].Type)
	assert.Equal(t, []byte("2"), values[1].Data)
	assert.False(t, values[1].SyncRequired)
	assert.True(t, values[1].UpdatedAt.Equal(at.Add(time.Minute)))

	missing, err := s.LoadAll(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestStorage_RecreatedNamespaceIsEmpty(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	require.NoError(t, s.SaveValues(ctx, "game", []models.StoredValue{{ValueID: "a", Type: "int", Data: []byte("1")}}))
	require.NoError(t, s.DeleteNamespace(ctx, "game"))
	require.NoError(t, s.CreateNamespace(ctx, "game"))

	values, err := s.LoadAll(ctx, "game")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestStorage_Metadata(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	_, err := s.GetMetadata(ctx, "peer_identity")
	assert.ErrorIs(t, err, storage.ErrMetadataNotFound)

	require.NoError(t, s.SaveMetadata(ctx, "peer_identity", []byte("v1")))
	require.NoError(t, s.SaveMetadata(ctx, "peer_identity", []byte("v2")))
	value, err := s.GetMetadata(ctx, "peer_identity")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), value)
}

func TestStorage_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "client.db")

	s, err := New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.SaveValues(ctx, "game", []models.StoredValue{{ValueID: "a", Type: "int", Data: []byte("7")}}))
	require.NoError(t, s.Close())

	s, err = New(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	values, err := s.LoadAll(ctx, "game")
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, []byte("7"), values[0].Data)
}
