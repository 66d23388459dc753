package storage_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/syncstore/internal/client/database"
	"github.com/iudanet/syncstore/internal/client/storage"
	"github.com/iudanet/syncstore/internal/client/storage/boltdb"
	"github.com/iudanet/syncstore/internal/models"
)

// hour keeps the flush loop out of the way; tests flush explicitly
const hour = time.Hour

func openBolt(t *testing.T, path string) *boltdb.Storage {
	t.Helper()
	backend, err := boltdb.New(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func newPersister(t *testing.T, backend storage.Backend, key []byte) *storage.Persister {
	t.Helper()
	p := storage.NewPersister(backend, storage.PersisterOptions{Key: key, FlushInterval: hour})
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestPersister_CoalescesWrites(t *testing.T) {
	ctx := context.Background()
	var (
		mu      sync.Mutex
		batches [][]models.StoredValue
	)
	backend := &storage.BackendMock{
		SaveValuesFunc: func(_ context.Context, _ string, values []models.StoredValue) error {
			mu.Lock()
			defer mu.Unlock()
			batches = append(batches, values)
			return nil
		},
	}
	p := newPersister(t, backend, nil)

	for i := range 5 {
		p.Save("game", "score", []byte{byte('0' + i)}, "int", false)
	}
	p.Save("game", "name", []byte(`"bob"`), "string", true)
	require.NoError(t, p.Flush(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 2)
	assert.Equal(t, "name", batches[0][0].ValueID)
	assert.True(t, batches[0][0].SyncRequired)
	assert.Equal(t, "score", batches[0][1].ValueID)
	assert.Equal(t, []byte("4"), batches[0][1].Data)
}

func TestPersister_SaveCopiesData(t *testing.T) {
	ctx := context.Background()
	p := newPersister(t, openBolt(t, filepath.Join(t.TempDir(), "values.db")), nil)

	data := []byte("1")
	p.Save("game", "score", data, "int", false)
	data[0] = '9'

	values, err := p.LoadAll(ctx, "game")
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, []byte("1"), values[0].Data)
}

func TestPersister_RequeuesFailedBatch(t *testing.T) {
	ctx := context.Background()
	fail := true
	var saved []models.StoredValue
	backend := &storage.BackendMock{
		SaveValuesFunc: func(_ context.Context, _ string, values []models.StoredValue) error {
			if fail {
				return errors.New("disk full")
			}
			saved = append(saved, values...)
			return nil
		},
	}
	p := newPersister(t, backend, nil)

	p.Save("game", "score", []byte("1"), "int", false)
	p.Save("game", "name", []byte(`"a"`), "string", false)
	err := p.Flush(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game")

	// более новая запись не должна быть перезаписана старой
	p.Save("game", "score", []byte("2"), "int", false)
	fail = false
	require.NoError(t, p.Flush(ctx))

	require.Len(t, saved, 2)
	assert.Equal(t, "name", saved[0].ValueID)
	assert.Equal(t, "score", saved[1].ValueID)
	assert.Equal(t, []byte("2"), saved[1].Data)
	assert.Len(t, backend.SaveValuesCalls(), 2)
}

func TestPersister_SealsValues(t *testing.T) {
	ctx := context.Background()
	backend := openBolt(t, filepath.Join(t.TempDir(), "values.db"))
	key, err := storage.StorageKey(ctx, backend, "correct horse")
	require.NoError(t, err)
	p := newPersister(t, backend, key)

	p.Save("game", "secret", []byte(`"treasure"`), "string", false)
	require.NoError(t, p.Flush(ctx))

	raw, err := backend.LoadAll(ctx, "game")
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.False(t, bytes.Contains(raw[0].Data, []byte("treasure")))

	values, err := p.LoadAll(ctx, "game")
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, []byte(`"treasure"`), values[0].Data)

	wrongKey, err := storage.StorageKey(ctx, backend, "wrong")
	require.NoError(t, err)
	other := newPersister(t, backend, wrongKey)
	_, err = other.LoadAll(ctx, "game")
	assert.Error(t, err)
}

func TestPersister_DeleteNamespace(t *testing.T) {
	ctx := context.Background()
	backend := openBolt(t, filepath.Join(t.TempDir(), "values.db"))
	p := newPersister(t, backend, nil)

	require.NoError(t, p.DeleteNamespace(ctx, "never-stored"))

	p.Save("game", "score", []byte("1"), "int", false)
	require.NoError(t, p.Flush(ctx))
	p.Save("game", "score", []byte("2"), "int", false)

	exists, err := p.Exists(ctx, "game")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, p.DeleteNamespace(ctx, "game"))
	require.NoError(t, p.Flush(ctx))

	exists, err = p.Exists(ctx, "game")
	require.NoError(t, err)
	assert.False(t, exists)
	values, err := p.LoadAll(ctx, "game")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestPersister_CloseFlushes(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "values.db")
	backend := openBolt(t, path)

	p := storage.NewPersister(backend, storage.PersisterOptions{FlushInterval: hour})
	p.Save("game", "score", []byte("3"), "int", false)
	require.NoError(t, p.Close(ctx))
	require.NoError(t, p.Close(ctx))

	values, err := backend.LoadAll(ctx, "game")
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, []byte("3"), values[0].Data)
	require.NoError(t, backend.Close())
}

func TestStorageKey_SaltIsKept(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "values.db")

	backend := openBolt(t, path)
	first, err := storage.StorageKey(ctx, backend, "pass")
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	backend = openBolt(t, path)
	defer func() { _ = backend.Close() }()
	second, err := storage.StorageKey(ctx, backend, "pass")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := storage.StorageKey(ctx, backend, "other")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestPeerIdentity(t *testing.T) {
	ctx := context.Background()
	backend := openBolt(t, filepath.Join(t.TempDir(), "values.db"))
	defer func() { _ = backend.Close() }()

	id, err := storage.GetPeerIdentity(ctx, backend)
	require.NoError(t, err)
	assert.Equal(t, models.PeerIdentity{}, id)

	want := models.PeerIdentity{PeerID: "peer-1", Ticket: "ticket"}
	require.NoError(t, storage.SavePeerIdentity(ctx, backend, want))
	id, err = storage.GetPeerIdentity(ctx, backend)
	require.NoError(t, err)
	assert.Equal(t, want, id)
}

// A persistent database reopened over the same file sees the value written
// before every restart.
func TestPersister_DatabaseSurvivesRestarts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "values.db")

	for i := range 10 {
		backend := openBolt(t, path)
		key, err := storage.StorageKey(ctx, backend, "pass")
		require.NoError(t, err)
		p := storage.NewPersister(backend, storage.PersisterOptions{Key: key, FlushInterval: hour})

		db := database.New("game", database.Options{Persister: p, Persistent: true})
		n, err := db.Load(ctx)
		require.NoError(t, err)
		if i == 0 {
			assert.Zero(t, n)
			exists, err := p.Exists(ctx, "game")
			require.NoError(t, err)
			assert.True(t, exists)
		} else {
			assert.Equal(t, 1, n)
		}

		v, err := database.Get[int](db, "counter")
		require.NoError(t, err)
		require.Equal(t, i, v.Get())
		require.NoError(t, v.Set(i+1))

		want := []byte{byte('0' + i + 1)}
		if i+1 == 10 {
			want = []byte("10")
		}
		require.Eventually(t, func() bool {
			values, err := p.LoadAll(ctx, "game")
			return err == nil && len(values) == 1 && bytes.Equal(values[0].Data, want)
		}, time.Second, 5*time.Millisecond)

		require.NoError(t, p.Close(ctx))
		require.NoError(t, backend.Close())
	}
}
