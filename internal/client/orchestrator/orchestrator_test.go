package orchestrator_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/syncstore/internal/callback"
	"github.com/iudanet/syncstore/internal/client/database"
	"github.com/iudanet/syncstore/internal/client/orchestrator"
	"github.com/iudanet/syncstore/internal/client/storage"
	"github.com/iudanet/syncstore/internal/client/storage/boltdb"
	"github.com/iudanet/syncstore/internal/server"
	"github.com/iudanet/syncstore/internal/server/arbitrator"
	"github.com/iudanet/syncstore/internal/server/ticket"
	"github.com/iudanet/syncstore/internal/validation"
	"github.com/iudanet/syncstore/pkg/api"
)

const (
	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startServer(t *testing.T) string {
	t.Helper()
	logger := discardLogger()
	arb := arbitrator.New(nil, nil, arbitrator.DefaultConfig(), logger)
	srv := server.New(arb, ticket.NewService([]byte("test-secret"), time.Hour), server.Options{RequestTimeout: 2 * time.Second}, logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(waitFor):
			t.Error("server did not stop")
		}
	})
	return ln.Addr().String()
}

func newPeer(t *testing.T, opts orchestrator.Options) *orchestrator.Orchestrator {
	t.Helper()
	opts.Logger = discardLogger()
	opts.RequestTimeout = 2 * time.Second
	o := orchestrator.New(opts)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func connectedPeer(t *testing.T, addr string) *orchestrator.Orchestrator {
	t.Helper()
	o := newPeer(t, orchestrator.Options{})
	require.NoError(t, o.Connect(context.Background(), addr))
	return o
}

func openValue[T any](t *testing.T, o *orchestrator.Orchestrator, dbID, valueID string) *database.Value[T] {
	t.Helper()
	d, err := o.Database(context.Background(), dbID)
	require.NoError(t, err)
	v, err := database.Get[T](d, valueID)
	require.NoError(t, err)
	return v
}

func TestDatabase_InvalidID(t *testing.T) {
	o := newPeer(t, orchestrator.Options{})

	_, err := o.Database(context.Background(), "bad id!")
	assert.ErrorIs(t, err, validation.ErrInvalidID)
	assert.Empty(t, o.Databases())
}

func TestDatabase_SameInstance(t *testing.T) {
	o := newPeer(t, orchestrator.Options{})

	first, err := o.Database(context.Background(), "game")
	require.NoError(t, err)
	second, err := o.Database(context.Background(), "game")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.True(t, first.Synchronised())
	assert.False(t, first.Persistent())
	assert.Equal(t, []string{"game"}, o.Databases())
}

func TestDatabase_PersistentCreatesNamespace(t *testing.T) {
	ctx := context.Background()
	backend, err := boltdb.New(ctx, filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	p := storage.NewPersister(backend, storage.PersisterOptions{FlushInterval: time.Hour})
	t.Cleanup(func() { _ = p.Close(ctx) })
	o := newPeer(t, orchestrator.Options{Persister: p, Metadata: backend})

	d, err := o.Database(ctx, "game")
	require.NoError(t, err)
	assert.True(t, d.Persistent())

	exists, err := backend.Exists(ctx, "game")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDelete_Offline(t *testing.T) {
	ctx := context.Background()
	o := newPeer(t, orchestrator.Options{})

	_, err := o.Database(ctx, "game")
	require.NoError(t, err)

	err = o.Delete(ctx, "game")
	assert.ErrorIs(t, err, database.ErrNotConnected)
	_, ok := o.Lookup("game")
	assert.False(t, ok)
}

func TestCall_NotConnected(t *testing.T) {
	o := newPeer(t, orchestrator.Options{})

	_, err := o.Call(context.Background(), api.HostRequest{DatabaseID: "game"})
	assert.ErrorIs(t, err, database.ErrNotConnected)
	assert.ErrorIs(t, o.Request(api.HostRequest{DatabaseID: "game"}, func(api.Message) {}), database.ErrNotConnected)
}

func TestConnect_KeepsPeerIdentity(t *testing.T) {
	ctx := context.Background()
	addr := startServer(t)
	backend, err := boltdb.New(ctx, filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	o := newPeer(t, orchestrator.Options{Metadata: backend})
	require.NoError(t, o.Connect(ctx, addr))
	peerID := o.PeerID()
	require.NotEmpty(t, peerID)
	assert.NotEmpty(t, o.SessionID())
	assert.ErrorIs(t, o.Connect(ctx, addr), orchestrator.ErrAlreadyConnected)

	require.NoError(t, o.Close())
	require.Eventually(t, func() bool { return !o.Connected() }, waitFor, tick)

	restarted := newPeer(t, orchestrator.Options{Metadata: backend})
	require.NoError(t, restarted.Connect(ctx, addr))
	assert.Equal(t, peerID, restarted.PeerID())

	stored, err := storage.GetPeerIdentity(ctx, backend)
	require.NoError(t, err)
	assert.Equal(t, peerID, stored.PeerID)
	assert.NotEmpty(t, stored.Ticket)
}

func TestRun_Reconnects(t *testing.T) {
	addr := startServer(t)
	o := newPeer(t, orchestrator.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx, addr, 20*time.Millisecond) }()

	require.Eventually(t, o.Connected, waitFor, tick)
	peerID, sessionID := o.PeerID(), o.SessionID()

	// Обрыв соединения: Run подключается заново с тем же peer id
	require.NoError(t, o.Close())
	require.Eventually(t, func() bool { return o.Connected() && o.SessionID() != sessionID }, waitFor, tick)
	assert.Equal(t, peerID, o.PeerID())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(waitFor):
		t.Fatal("Run did not stop")
	}
	assert.Eventually(t, func() bool { return !o.Connected() }, waitFor, tick)
}

func TestObserve(t *testing.T) {
	addr := startServer(t)
	writer := connectedPeer(t, addr)
	watcher := connectedPeer(t, addr)

	seen := make(chan api.SetValueMessage, 4)
	require.True(t, orchestrator.Observe(watcher, "watch", func(m api.SetValueMessage) error {
		seen <- m
		return nil
	}, callback.Options{Unique: true}))
	assert.False(t, orchestrator.Observe(watcher, "watch", func(api.SetValueMessage) error { return nil }, callback.Options{Unique: true}))

	require.NoError(t, openValue[string](t, writer, "chat", "topic").Set("hello"))

	select {
	case m := <-seen:
		assert.Equal(t, "chat", m.DatabaseID)
		assert.Equal(t, "topic", m.ValueID)
		assert.Equal(t, uint32(1), m.Counter)
	case <-time.After(waitFor):
		t.Fatal("observer was not called")
	}
	assert.Equal(t, 1, watcher.RemoveObservers(api.KindSetValueMessage, ""))
}

func TestDelete_Propagates(t *testing.T) {
	ctx := context.Background()
	addr := startServer(t)
	owner := connectedPeer(t, addr)
	other := connectedPeer(t, addr)

	v := openValue[int](t, owner, "game", "score")
	openValue[int](t, other, "game", "score")
	require.NoError(t, v.Set(3))
	require.Eventually(t, func() bool {
		return openValue[int](t, other, "game", "score").Get() == 3
	}, waitFor, tick)

	require.NoError(t, owner.Delete(ctx, "game"))
	_, ok := owner.Lookup("game")
	assert.False(t, ok)
	require.Eventually(t, func() bool {
		_, ok := other.Lookup("game")
		return !ok
	}, waitFor, tick)

	assert.ErrorIs(t, v.Set(4), database.ErrDatabaseDeleted)
}

// Ten peers see a value written by one of them.
func TestSwarm_Convergence(t *testing.T) {
	addr := startServer(t)

	peers := make([]*orchestrator.Orchestrator, 10)
	for i := range peers {
		peers[i] = connectedPeer(t, addr)
		openValue[int](t, peers[i], "game", "x")
	}

	require.NoError(t, openValue[int](t, peers[0], "game", "x").Set(12))

	for i, p := range peers {
		require.Eventually(t, func() bool {
			return openValue[int](t, p, "game", "x").Get() == 12
		}, waitFor, tick, "peer %d", i)
	}
}

// Concurrent increments from three peers are all applied.
func TestSwarm_ConcurrentModify(t *testing.T) {
	addr := startServer(t)

	peers := make([]*orchestrator.Orchestrator, 3)
	values := make([]*database.Value[int], 3)
	for i := range peers {
		peers[i] = connectedPeer(t, addr)
		values[i] = openValue[int](t, peers[i], "game", "n")
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, v := range values {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			assert.NoError(t, v.Modify(func(n int) int { return n + 1 }))
		}()
	}
	close(start)
	wg.Wait()

	for i, v := range values {
		require.Eventually(t, func() bool { return v.Get() == 3 }, waitFor, tick, "peer %d", i)
	}
}

// Each of three concurrent safe modifications runs its function exactly once.
func TestSwarm_ConcurrentSafeModify(t *testing.T) {
	addr := startServer(t)

	peers := make([]*orchestrator.Orchestrator, 3)
	values := make([]*database.Value[int], 3)
	for i := range peers {
		peers[i] = connectedPeer(t, addr)
		values[i] = openValue[int](t, peers[i], "game", "n")
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		calls int
		seen  []int
	)
	for _, v := range values {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), waitFor)
			defer cancel()
			got, err := v.SafeModify(ctx, func(n int) int {
				mu.Lock()
				calls++
				mu.Unlock()
				return n + 1
			})
			assert.NoError(t, err)
			mu.Lock()
			seen = append(seen, got)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, calls)
	assert.ElementsMatch(t, []int{1, 2, 3}, seen)
	for i, v := range values {
		require.Eventually(t, func() bool { return v.Get() == 3 }, waitFor, tick, "peer %d", i)
	}
}

// A value written while offline survives a restart and reaches the other
// peers once the writer is back.
func TestSwarm_OfflineWritePushedOnReconnect(t *testing.T) {
	ctx := context.Background()
	addr := startServer(t)
	path := filepath.Join(t.TempDir(), "client.db")

	online := connectedPeer(t, addr)
	openValue[string](t, online, "game", "v")

	backend, err := boltdb.New(ctx, path)
	require.NoError(t, err)
	p := storage.NewPersister(backend, storage.PersisterOptions{FlushInterval: time.Hour})
	offline := newPeer(t, orchestrator.Options{Persister: p, Metadata: backend})

	err = openValue[string](t, offline, "game", "v").Set("v1")
	require.ErrorIs(t, err, database.ErrNotConnected)
	require.Eventually(t, func() bool {
		values, err := p.LoadAll(ctx, "game")
		return err == nil && len(values) == 1 && values[0].SyncRequired
	}, waitFor, tick)
	require.NoError(t, p.Close(ctx))
	require.NoError(t, backend.Close())

	backend, err = boltdb.New(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	p = storage.NewPersister(backend, storage.PersisterOptions{FlushInterval: time.Hour})
	t.Cleanup(func() { _ = p.Close(ctx) })

	restarted := newPeer(t, orchestrator.Options{Persister: p, Metadata: backend})
	d, err := restarted.Database(ctx, "game")
	require.NoError(t, err)
	assert.Equal(t, []string{"v"}, d.NeedsSync())
	require.NoError(t, restarted.Connect(ctx, addr))

	require.Eventually(t, func() bool {
		return openValue[string](t, online, "game", "v").Get() == "v1"
	}, waitFor, tick)
	require.Eventually(t, func() bool { return len(d.NeedsSync()) == 0 }, waitFor, tick)
	assert.Equal(t, "v1", openValue[string](t, restarted, "game", "v").Get())
}

// A peer joining a busy swarm receives only the newest value of each id.
func TestSwarm_NewPeerCatchUp(t *testing.T) {
	addr := startServer(t)

	peers := make([]*orchestrator.Orchestrator, 5)
	for i := range peers {
		peers[i] = connectedPeer(t, addr)
		openValue[int](t, peers[i], "game", "x")
		openValue[string](t, peers[i], "game", "y")
	}
	for i, p := range peers {
		require.NoError(t, openValue[int](t, p, "game", "x").Set(i+1))
		for j, q := range peers {
			require.Eventually(t, func() bool {
				return openValue[int](t, q, "game", "x").Get() == i+1
			}, waitFor, tick, "peer %d after write %d", j, i)
		}
	}
	require.NoError(t, openValue[string](t, peers[2], "game", "y").Set("late"))
	for _, q := range peers {
		require.Eventually(t, func() bool {
			return openValue[string](t, q, "game", "y").Get() == "late"
		}, waitFor, tick)
	}

	newcomer := newPeer(t, orchestrator.Options{})
	x := openValue[int](t, newcomer, "game", "x")
	var (
		mu       sync.Mutex
		observed []int
	)
	added, err := x.AddCallback("record", func(n int) error {
		mu.Lock()
		defer mu.Unlock()
		observed = append(observed, n)
		return nil
	}, callback.Options{})
	require.NoError(t, err)
	require.True(t, added)

	require.NoError(t, newcomer.Connect(context.Background(), addr))

	require.Eventually(t, func() bool { return x.Get() == 5 }, waitFor, tick)
	require.Eventually(t, func() bool {
		return openValue[string](t, newcomer, "game", "y").Get() == "late"
	}, waitFor, tick)
	newcomer.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{5}, observed)
}
