// Package orchestrator owns the databases of a client process, keeps the
// connection to the server and routes inbound messages to the database they
// belong to.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/iudanet/syncstore/internal/callback"
	"github.com/iudanet/syncstore/internal/client/database"
	"github.com/iudanet/syncstore/internal/client/storage"
	"github.com/iudanet/syncstore/internal/models"
	"github.com/iudanet/syncstore/internal/transport"
	"github.com/iudanet/syncstore/internal/validation"
	"github.com/iudanet/syncstore/internal/workqueue"
	"github.com/iudanet/syncstore/pkg/api"
)

var (
	// ErrAlreadyConnected is returned by Connect while a connection is open
	ErrAlreadyConnected = errors.New("already connected")

	// ErrUnexpectedReply indicates that the server answered with another message kind
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// Options configures an orchestrator.
type Options struct {
	Logger *slog.Logger
	// Persister stores values of persistent databases; nil disables persistence
	Persister database.Persister
	// Metadata keeps the peer identity between runs; nil keeps it in memory only
	Metadata storage.MetadataStorage

	Workers        int64
	RequestTimeout time.Duration
	DiscoverWait   time.Duration
	MaxPayload     int
}

// Orchestrator is the client side of the protocol. It is the explicit
// context values use to find their database and the connection.
type Orchestrator struct {
	logger    *slog.Logger
	persister database.Persister
	metadata  storage.MetadataStorage
	pool      *workqueue.Pool
	observers *callback.Registry[api.Kind]
	sender    *sender

	databases map[string]*database.Database
	conn      *transport.Conn
	identity  models.PeerIdentity
	sessionID string
	opts      Options
	ready     bool
	mu        sync.Mutex
	createMu  sync.Mutex // создание и загрузка баз
}

// New creates a disconnected orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = transport.DefaultTimeout
	}
	if opts.DiscoverWait <= 0 {
		opts.DiscoverWait = 3 * time.Second
	}
	o := &Orchestrator{
		logger:    opts.Logger,
		persister: opts.Persister,
		metadata:  opts.Metadata,
		pool:      workqueue.NewPool(opts.Workers, opts.Logger),
		observers: callback.NewRegistry[api.Kind](opts.Logger),
		databases: make(map[string]*database.Database),
		opts:      opts,
	}
	o.sender = &sender{o: o}
	return o
}

// Lookup returns the live database id.
func (o *Orchestrator) Lookup(id string) (*database.Database, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	d, ok := o.databases[id]
	return d, ok
}

// Databases returns the ids of the open databases.
func (o *Orchestrator) Databases() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Sorted(maps.Keys(o.databases))
}

// Database returns the database id, creating it on first reference. New
// databases are synchronised, and persistent when a persister is set; their
// stored values are loaded before the database is returned.
func (o *Orchestrator) Database(ctx context.Context, id string) (*database.Database, error) {
	if err := validation.ValidateDatabaseID(id); err != nil {
		return nil, err
	}
	d, created, err := o.open(ctx, id)
	if err != nil {
		return nil, err
	}
	if created && o.Connected() {
		o.requestHost(d)
	}
	return d, nil
}

func (o *Orchestrator) open(ctx context.Context, id string) (*database.Database, bool, error) {
	if d, ok := o.Lookup(id); ok {
		return d, false, nil
	}

	o.createMu.Lock()
	defer o.createMu.Unlock()
	if d, ok := o.Lookup(id); ok {
		return d, false, nil
	}

	d := database.New(id, database.Options{
		Sender:       o.sender,
		Persister:    o.persister,
		Resolver:     o,
		Pool:         o.pool,
		Logger:       o.logger,
		Synchronised: true,
		Persistent:   o.persister != nil,
	})
	if _, err := d.Load(ctx); err != nil {
		return nil, false, err
	}

	o.mu.Lock()
	o.databases[id] = d
	o.mu.Unlock()
	o.logger.Debug("database opened", "database_id", id)
	return d, true, nil
}

// Delete destroys the database id locally and asks the server to delete it on
// every peer. The local copy is removed even when the server cannot be told;
// ErrNotConnected is returned then.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	if err := validation.ValidateDatabaseID(id); err != nil {
		return err
	}

	d, known := o.Lookup(id)
	var sendErr error
	if !known || d.Synchronised() {
		sendErr = o.sender.Send(api.DeleteDatabaseMessage{DatabaseID: id})
	}
	if err := o.destroy(ctx, id); err != nil {
		return err
	}
	if sendErr != nil {
		return fmt.Errorf("failed to delete database %s on the server: %w", id, sendErr)
	}
	return nil
}

func (o *Orchestrator) destroy(ctx context.Context, id string) error {
	o.mu.Lock()
	d, ok := o.databases[id]
	delete(o.databases, id)
	o.mu.Unlock()

	if ok {
		return d.Destroy(ctx)
	}
	// База не открыта, но ее значения могли остаться на диске
	if o.persister != nil {
		if err := o.persister.DeleteNamespace(ctx, id); err != nil {
			return fmt.Errorf("failed to delete namespace %s: %w", id, err)
		}
	}
	return nil
}

// Observe registers fn for every inbound message of type T.
func Observe[T api.Message](o *Orchestrator, name string, fn func(T) error, opts callback.Options) bool {
	var zero T
	return callback.Add(o.observers, zero.Kind(), name, fn, opts)
}

// RemoveObservers removes the observers named name for kind; an empty name
// removes all of them.
func (o *Orchestrator) RemoveObservers(kind api.Kind, name string) int {
	return o.observers.Remove(kind, name)
}

// PeerID returns the identity the server gave this peer; empty before the
// first hello.
func (o *Orchestrator) PeerID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.identity.PeerID
}

// SessionID returns the id of the current session.
func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// Connected reports whether the handshake with the server has completed and
// the connection is still open.
func (o *Orchestrator) Connected() bool {
	return o.current() != nil
}

func (o *Orchestrator) current() *transport.Conn {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.ready {
		return nil
	}
	return o.conn
}

// Request sends msg and calls fn exactly once, with nil if no reply arrived in time.
func (o *Orchestrator) Request(msg api.Message, fn func(api.Message)) error {
	return o.sender.Request(msg, fn)
}

// Call sends msg and waits for the reply.
func (o *Orchestrator) Call(ctx context.Context, msg api.Message) (api.Message, error) {
	c := o.current()
	if c == nil {
		return nil, database.ErrNotConnected
	}
	reply, err := c.Call(ctx, msg)
	if errors.Is(err, transport.ErrTimeout) {
		return nil, fmt.Errorf("%w: %w", database.ErrTimeout, err)
	}
	return reply, err
}

// Close closes the connection. Databases stay usable offline.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	c := o.conn
	o.mu.Unlock()
	if c != nil {
		return c.Close()
	}
	return nil
}

// Wait blocks until every queued side effect of every database has run.
func (o *Orchestrator) Wait() {
	o.pool.Wait()
}

// sender is the database view of the current connection
type sender struct {
	o *Orchestrator
}

func (s *sender) Connected() bool {
	return s.o.Connected()
}

func (s *sender) Send(msg api.Message) error {
	c := s.o.current()
	if c == nil {
		return database.ErrNotConnected
	}
	if err := c.Send(msg); err != nil {
		return fmt.Errorf("%w: %w", database.ErrNotConnected, err)
	}
	return nil
}

func (s *sender) Request(msg api.Message, fn func(api.Message)) error {
	c := s.o.current()
	if c == nil {
		return database.ErrNotConnected
	}
	if err := c.Request(msg, s.o.opts.RequestTimeout, fn); err != nil {
		return fmt.Errorf("%w: %w", database.ErrNotConnected, err)
	}
	return nil
}
