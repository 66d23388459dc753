// Package cli implements the syncstore client commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/iudanet/syncstore/internal/client/iocli"
	"github.com/iudanet/syncstore/internal/client/orchestrator"
	"github.com/iudanet/syncstore/internal/client/storage"
	"github.com/iudanet/syncstore/internal/client/storage/boltdb"
	"github.com/iudanet/syncstore/internal/client/storage/sqlite"
	"github.com/iudanet/syncstore/internal/config"
)

// PassphraseEnv overrides the passphrase of the configuration file.
const PassphraseEnv = "SYNCSTORE_PASSPHRASE"

// ErrValueNotFound is returned when a value has never been written.
var ErrValueNotFound = errors.New("value not found")

// reconnectInterval is the pause between connection attempts of long-running commands
const reconnectInterval = 2 * time.Second

// Options tunes the commands.
type Options struct {
	ServerAddr string
	// Settle is how long one-shot commands wait for values sent on connect
	Settle  time.Duration
	Timeout time.Duration
}

type Cli struct {
	io      iocli.IO
	orch    *orchestrator.Orchestrator
	logger  *slog.Logger
	closers []func(context.Context) error
	stopRun func()
	opts    Options
	settled bool
}

// New creates commands over an existing orchestrator.
func New(orch *orchestrator.Orchestrator, io iocli.IO, logger *slog.Logger, opts Options) *Cli {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Cli{io: io, orch: orch, logger: logger, opts: opts}
}

// Open builds the client described by cfg: the local storage, the optional
// value sealing and the orchestrator. askPassphrase prompts for the
// passphrase when neither the environment nor cfg provides one.
func Open(ctx context.Context, cfg *config.Client, io iocli.IO, logger *slog.Logger, askPassphrase bool) (*Cli, error) {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	passphrase, err := getPassphrase(io, cfg.Passphrase, askPassphrase)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	var key []byte
	if passphrase != "" {
		if key, err = storage.StorageKey(ctx, backend, passphrase); err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("failed to derive storage key: %w", err)
		}
	}

	persister := storage.NewPersister(backend, storage.PersisterOptions{
		Logger:        logger,
		Key:           key,
		FlushInterval: cfg.FlushInterval,
	})
	orch := orchestrator.New(orchestrator.Options{
		Logger:         logger,
		Persister:      persister,
		Metadata:       backend,
		Workers:        int64(cfg.Workers),
		RequestTimeout: cfg.RequestTimeout,
		DiscoverWait:   cfg.DiscoverWait,
		MaxPayload:     cfg.MaxPayload,
	})

	c := New(orch, io, logger, Options{
		ServerAddr: cfg.ServerAddr,
		Settle:     cfg.SettleTime,
		Timeout:    cfg.RequestTimeout,
	})
	c.closers = append(c.closers,
		persister.Close,
		func(context.Context) error { return backend.Close() },
	)
	return c, nil
}

func openBackend(ctx context.Context, cfg *config.Client) (storage.Backend, error) {
	switch cfg.StorageBackend {
	case "sqlite":
		return sqlite.New(ctx, cfg.StoragePath)
	default:
		return boltdb.New(ctx, cfg.StoragePath)
	}
}

// getPassphrase reads the passphrase with priority:
// 1. Environment variable SYNCSTORE_PASSPHRASE
// 2. Configuration file
// 3. Interactive prompt, when asked for
func getPassphrase(io iocli.IO, configured string, ask bool) (string, error) {
	if env := os.Getenv(PassphraseEnv); env != "" {
		return env, nil
	}
	if configured != "" {
		return configured, nil
	}
	if !ask {
		return "", nil
	}
	passphrase, err := io.ReadPassword("Passphrase: ")
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if passphrase == "" {
		return "", errors.New("passphrase cannot be empty")
	}
	return passphrase, nil
}

// Orchestrator returns the orchestrator the commands run on.
func (c *Cli) Orchestrator() *orchestrator.Orchestrator {
	return c.orch
}

// connect joins the server. Without a server the commands work on the
// local copy and writes wait for the next connection.
func (c *Cli) connect(ctx context.Context) {
	if c.orch.Connected() {
		return
	}
	if err := c.orch.Connect(ctx, c.opts.ServerAddr); err != nil {
		c.logger.Warn("working offline", "error", err)
		c.io.Println("Server unavailable, working offline")
	}
}

// keepConnected reconnects in the background until Close
func (c *Cli) keepConnected(ctx context.Context) {
	if c.stopRun != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.orch.Run(ctx, c.opts.ServerAddr, reconnectInterval)
	}()
	c.stopRun = func() {
		cancel()
		<-done
	}
}

// settle waits once for the values the server forwards right after connecting
func (c *Cli) settle(ctx context.Context) {
	if c.settled || !c.orch.Connected() || c.opts.Settle <= 0 {
		return
	}
	c.settled = true
	select {
	case <-ctx.Done():
	case <-time.After(c.opts.Settle):
	}
}

// Close disconnects and writes every pending value to the local storage.
func (c *Cli) Close(ctx context.Context) error {
	if c.stopRun != nil {
		c.stopRun()
		c.stopRun = nil
	}
	errs := []error{c.orch.Close()}
	c.orch.Wait()
	for _, closeFn := range c.closers {
		errs = append(errs, closeFn(ctx))
	}
	return errors.Join(errs...)
}
