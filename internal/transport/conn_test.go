package transport

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/syncstore/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pipe создает пару соединенных Conn поверх net.Pipe
func pipe(t *testing.T, serverHandler Handler) (client, server *Conn) {
	t.Helper()
	a, b := net.Pipe()
	client = NewConn(a, Options{Logger: testLogger(), Timeout: time.Second})
	server = NewConn(b, Options{Logger: testLogger(), Handler: serverHandler, Timeout: time.Second})
	client.Start()
	server.Start()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return client, server
}

func TestConn_CallReply(t *testing.T) {
	client, _ := pipe(t, func(c *Conn, msg api.Message, requestID uint16) {
		req, ok := msg.(api.SetValueRequest)
		if !ok {
			return
		}
		_ = c.Reply(requestID, api.SetValueReply{ExpectedCounter: req.Counter + 1})
	})

	reply, err := client.Call(context.Background(), api.SetValueRequest{DatabaseID: "db", ValueID: "x", Counter: 4})
	require.NoError(t, err)
	assert.Equal(t, api.SetValueReply{ExpectedCounter: 5}, reply)
}

func TestConn_SendOneWay(t *testing.T) {
	received := make(chan api.Message, 1)
	client, _ := pipe(t, func(_ *Conn, msg api.Message, requestID uint16) {
		assert.Zero(t, requestID)
		received <- msg
	})

	msg := api.DeleteDatabaseMessage{DatabaseID: "db"}
	require.NoError(t, client.Send(msg))

	select {
	case got := <-received:
		assert.Equal(t, msg, got)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestConn_RequestTimeout(t *testing.T) {
	client, _ := pipe(t, func(*Conn, api.Message, uint16) {})

	done := make(chan api.Message, 1)
	var calls atomic.Int32
	err := client.Request(api.LockValueRequest{DatabaseID: "db", ValueID: "x", Counter: 1}, 50*time.Millisecond,
		func(reply api.Message) {
			calls.Add(1)
			done <- reply
		})
	require.NoError(t, err)

	select {
	case reply := <-done:
		assert.Nil(t, reply)
	case <-time.After(time.Second):
		t.Fatal("timeout callback not invoked")
	}

	// Запись удаляется ровно один раз
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestConn_CallTimeout(t *testing.T) {
	client, _ := pipe(t, func(*Conn, api.Message, uint16) {})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Call(ctx, api.HostRequest{DatabaseID: "db"})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestConn_CloseFailsPending(t *testing.T) {
	client, _ := pipe(t, func(*Conn, api.Message, uint16) {})

	done := make(chan api.Message, 1)
	require.NoError(t, client.Request(api.HostRequest{DatabaseID: "db"}, time.Minute, func(reply api.Message) {
		done <- reply
	}))

	require.NoError(t, client.Close())

	select {
	case reply := <-done:
		assert.Nil(t, reply)
	case <-time.After(time.Second):
		t.Fatal("pending request not failed on close")
	}

	assert.ErrorIs(t, client.Send(api.DeleteDatabaseMessage{DatabaseID: "db"}), ErrClosed)
}

func TestConn_OnCloseWhenPeerGoesAway(t *testing.T) {
	a, b := net.Pipe()
	closed := make(chan struct{})
	c := NewConn(a, Options{Logger: testLogger(), OnClose: func(*Conn, error) { close(closed) }})
	c.Start()

	require.NoError(t, b.Close())

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("OnClose not called")
	}
	<-c.Done()
}

func TestConn_UnmatchedReplyIgnored(t *testing.T) {
	client, server := pipe(t, func(*Conn, api.Message, uint16) {})

	// Ответ без запроса не должен ломать соединение
	require.NoError(t, server.Reply(999, api.SetValueReply{ExpectedCounter: 1}))
	time.Sleep(20 * time.Millisecond)

	select {
	case <-client.Done():
		t.Fatal("connection closed on unmatched reply")
	default:
	}
}

func TestConn_CloseWritesQueuedFrames(t *testing.T) {
	const count = 20
	received := make(chan api.Message, count)
	client, _ := pipe(t, func(_ *Conn, msg api.Message, _ uint16) {
		received <- msg
	})

	for i := range count {
		require.NoError(t, client.Send(api.SetValueMessage{DatabaseID: "db", ValueID: "x", Counter: uint32(i + 1)}))
	}
	require.NoError(t, client.Close())

	for i := range count {
		select {
		case got := <-received:
			assert.Equal(t, uint32(i+1), got.(api.SetValueMessage).Counter)
		case <-time.After(time.Second):
			t.Fatalf("message %d not delivered", i+1)
		}
	}
	assert.ErrorIs(t, client.Send(api.DeleteDatabaseMessage{DatabaseID: "db"}), ErrClosed)
}

func TestConn_QueueFullClosesInsteadOfBlocking(t *testing.T) {
	a, b := net.Pipe()
	t.Cleanup(func() { _ = b.Close() })
	c := NewConn(a, Options{Logger: testLogger(), QueueSize: 4})
	c.Start()
	t.Cleanup(func() { _ = c.Close() })

	// b никогда не читает: писатель застревает на первом кадре
	sent := make(chan error, 1)
	go func() {
		for i := range 100 {
			if err := c.Send(api.SetValueMessage{DatabaseID: "db", ValueID: "x", Counter: uint32(i + 1)}); err != nil {
				sent <- err
				return
			}
		}
		sent <- nil
	}()

	select {
	case err := <-sent:
		assert.ErrorIs(t, err, ErrQueueFull)
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a peer that does not read")
	}

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("connection not closed")
	}
	assert.ErrorIs(t, c.Err(), ErrQueueFull)
	assert.ErrorIs(t, c.Send(api.DeleteDatabaseMessage{DatabaseID: "db"}), ErrClosed)
}
