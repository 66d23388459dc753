package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/syncstore/internal/client/iocli"
	"github.com/iudanet/syncstore/internal/server"
	"github.com/iudanet/syncstore/internal/server/arbitrator"
	"github.com/iudanet/syncstore/internal/server/ticket"
)

func startServer(t *testing.T) string {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	arb := arbitrator.New(nil, nil, arbitrator.DefaultConfig(), logger)
	srv := server.New(arb, ticket.NewService([]byte("test-secret"), time.Hour), server.Options{}, logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String()
}

// console captures output and replays input lines
type console struct {
	out   bytes.Buffer
	lines []string
	mu    sync.Mutex
}

func (c *console) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.String()
}

func (c *console) io() *iocli.IOMock {
	return &iocli.IOMock{
		PrintlnFunc: func(a ...any) {
			c.mu.Lock()
			defer c.mu.Unlock()
			fmt.Fprintln(&c.out, a...)
		},
		PrintfFunc: func(format string, a ...any) {
			c.mu.Lock()
			defer c.mu.Unlock()
			fmt.Fprintf(&c.out, format, a...)
		},
		WriteFunc: func(p []byte) (int, error) {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.out.Write(p)
		},
		ReadInputFunc: func(string) (string, error) {
			c.mu.Lock()
			defer c.mu.Unlock()
			if len(c.lines) == 0 {
				return "", io.EOF
			}
			line := c.lines[0]
			c.lines = c.lines[1:]
			return line, nil
		},
		ReadPasswordFunc: func(string) (string, error) { return "from-prompt", nil },
		InteractiveFunc:  func() bool { return false },
	}
}

func execute(t *testing.T, ctx context.Context, con *console, args ...string) error {
	t.Helper()
	cmd := NewRootCommand("test", con.io())
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(ctx)
}

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	addr := startServer(t)
	t.Setenv(PassphraseEnv, "secret")
	storage := filepath.Join(t.TempDir(), "client.db")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "auto int", args: []string{"set", "game", "score", "5"}, want: "game/score = 5"},
		{name: "get int", args: []string{"get", "game", "score"}, want: "5 (int)"},
		{name: "explicit string", args: []string{"set", "-t", "string", "game", "name", "42"}, want: "game/name = 42"},
		{name: "get string", args: []string{"get", "game", "name"}, want: `"42" (string)`},
		{name: "known type wins", args: []string{"set", "game", "score", "6"}, want: "game/score = 6"},
		{name: "json", args: []string{"set", "-t", "json", "game", "cfg", `{"a":1}`}, want: `game/cfg = {"a":1}`},
		{name: "get json", args: []string{"get", "game", "cfg"}, want: `{"a":1} (json.RawMessage)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			con := &console{}
			require.NoError(t, execute(t, ctx, con, append([]string{"--server", addr, "--storage", storage}, tt.args...)...))
			assert.Contains(t, con.String(), tt.want)
		})
	}
}

func TestGet_FromOtherPeer(t *testing.T) {
	ctx := context.Background()
	addr := startServer(t)

	writer := &console{}
	require.NoError(t, execute(t, ctx, writer, "--server", addr, "--storage", filepath.Join(t.TempDir(), "a.db"), "set", "game", "level", "7"))

	reader := &console{}
	require.NoError(t, execute(t, ctx, reader, "--server", addr, "--backend", "sqlite", "--storage", filepath.Join(t.TempDir(), "b.db"), "get", "game", "level"))
	assert.Contains(t, reader.String(), "7 (int)")
}

func TestSet_Offline(t *testing.T) {
	ctx := context.Background()
	storage := filepath.Join(t.TempDir(), "client.db")
	// на этом порту никто не слушает
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	con := &console{}
	require.NoError(t, execute(t, ctx, con, "--server", addr, "--storage", storage, "set", "game", "score", "9"))
	assert.Contains(t, con.String(), "Server unavailable")
	assert.Contains(t, con.String(), "Stored locally")

	con = &console{}
	require.NoError(t, execute(t, ctx, con, "--server", addr, "--storage", storage, "get", "game", "score"))
	assert.Contains(t, con.String(), "9 (int)")
}

func TestCommandErrors(t *testing.T) {
	ctx := context.Background()
	addr := startServer(t)
	storage := filepath.Join(t.TempDir(), "client.db")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing args", args: []string{"get", "game"}, wantErr: "accepts 2 arg(s)"},
		{name: "unknown type", args: []string{"set", "-t", "color", "game", "x", "red"}, wantErr: "unknown value type"},
		{name: "bad int", args: []string{"set", "-t", "int", "game", "x", "red"}, wantErr: "invalid syntax"},
		{name: "bad json", args: []string{"set", "-t", "json", "game", "x", "{"}, wantErr: "invalid JSON"},
		{name: "invalid id", args: []string{"get", "bad id", "x"}, wantErr: "invalid identifier"},
		{name: "missing value", args: []string{"get", "game", "nothing"}, wantErr: "value not found"},
		{name: "bad backend", args: []string{"--backend", "redis", "get", "game", "x"}, wantErr: "storage-backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, ctx, &console{}, append([]string{"--server", addr, "--storage", storage}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	addr := startServer(t)
	storage := filepath.Join(t.TempDir(), "client.db")

	require.NoError(t, execute(t, ctx, &console{}, "--server", addr, "--storage", storage, "set", "game", "score", "1"))

	con := &console{}
	require.NoError(t, execute(t, ctx, con, "--server", addr, "--storage", storage, "delete", "game"))
	assert.Contains(t, con.String(), "Database game deleted")

	err := execute(t, ctx, &console{}, "--server", addr, "--storage", storage, "get", "game", "score")
	assert.ErrorIs(t, err, ErrValueNotFound)
}

func TestConsole(t *testing.T) {
	ctx := context.Background()
	addr := startServer(t)

	con := &console{lines: []string{
		"",
		"set game score 3",
		"get game score",
		"set game flag true",
		"get game flag",
		"dbs",
		"status",
		"get game",
		"bogus",
		"quit",
		"get game score",
	}}
	require.NoError(t, execute(t, ctx, con, "--server", addr, "--storage", filepath.Join(t.TempDir(), "client.db"), "console"))

	out := con.String()
	assert.Contains(t, out, "game/score = 3")
	assert.Contains(t, out, "3 (int)")
	assert.Contains(t, out, "true (bool)")
	assert.Contains(t, out, "game\n")
	assert.Contains(t, out, "Status: connected")
	assert.Contains(t, out, "usage: get <db> <value>")
	assert.Contains(t, out, "unknown command bogus")
	// после quit команды не выполняются
	assert.Equal(t, 1, bytes.Count([]byte(out), []byte("3 (int)")))
}

func TestWatch(t *testing.T) {
	addr := startServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	watcher := &console{}
	done := make(chan error, 1)
	go func() {
		done <- execute(t, ctx, watcher, "--server", addr, "--storage", filepath.Join(t.TempDir(), "w.db"), "watch", "game", "score")
	}()
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(watcher.String()), []byte("Watching game/score"))
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, execute(t, context.Background(), &console{}, "--server", addr, "--storage", filepath.Join(t.TempDir(), "s.db"), "set", "game", "score", "5"))
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(watcher.String()), []byte("game/score #1 = 5"))
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "12", want: TypeInt},
		{text: "-3", want: TypeInt},
		{text: "1.5", want: TypeFloat},
		{text: "true", want: TypeBool},
		{text: "t", want: TypeString},
		{text: "hello", want: TypeString},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, detectType(tt.text))
		})
	}
}

func TestGetPassphrase(t *testing.T) {
	con := &console{}

	got, err := getPassphrase(con.io(), "", false)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = getPassphrase(con.io(), "", true)
	require.NoError(t, err)
	assert.Equal(t, "from-prompt", got)

	got, err = getPassphrase(con.io(), "from-config", true)
	require.NoError(t, err)
	assert.Equal(t, "from-config", got)

	t.Setenv(PassphraseEnv, "from-env")
	got, err = getPassphrase(con.io(), "from-config", true)
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
}
