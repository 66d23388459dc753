package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/syncstore/internal/client/database"
	"github.com/iudanet/syncstore/internal/client/storage"
	"github.com/iudanet/syncstore/internal/discovery"
	"github.com/iudanet/syncstore/internal/transport"
	"github.com/iudanet/syncstore/internal/validation"
	"github.com/iudanet/syncstore/pkg/api"
)

// Connect dials the server at addr and says hello with the stored peer
// identity. An empty addr is looked up over mDNS. Once connected every
// synchronised database asks who hosts it and pushes its offline writes.
func (o *Orchestrator) Connect(ctx context.Context, addr string) error {
	if addr == "" {
		found, err := o.discover(ctx)
		if err != nil {
			return err
		}
		addr = found
	}

	o.mu.Lock()
	busy := o.conn != nil
	o.mu.Unlock()
	if busy {
		return ErrAlreadyConnected
	}

	if err := o.loadIdentity(ctx); err != nil {
		return err
	}

	conn, err := transport.Dial(ctx, addr, transport.Options{
		Logger:     o.logger,
		Handler:    o.handle,
		OnClose:    o.closed,
		MaxPayload: o.opts.MaxPayload,
		Timeout:    o.opts.RequestTimeout,
	})
	if err != nil {
		return err
	}

	o.mu.Lock()
	if o.conn != nil {
		o.mu.Unlock()
		_ = conn.Close()
		return ErrAlreadyConnected
	}
	o.conn = conn
	identity := o.identity
	o.mu.Unlock()

	reply, err := conn.Call(ctx, api.HelloRequest{PeerID: identity.PeerID, Ticket: identity.Ticket})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to say hello: %w", err)
	}
	hello, ok := reply.(api.HelloReply)
	if !ok {
		_ = conn.Close()
		return fmt.Errorf("%w to hello: %s", ErrUnexpectedReply, reply.Kind())
	}

	o.mu.Lock()
	if o.conn != conn {
		// соединение закрылось во время рукопожатия
		o.mu.Unlock()
		return fmt.Errorf("failed to say hello: %w", transport.ErrClosed)
	}
	o.identity.PeerID = hello.PeerID
	o.identity.Ticket = hello.Ticket
	identity = o.identity
	o.sessionID = hello.SessionID
	o.ready = true
	dbs := o.snapshot()
	o.mu.Unlock()

	if o.metadata != nil {
		if err := storage.SavePeerIdentity(ctx, o.metadata, identity); err != nil {
			o.logger.Warn("failed to store peer identity", "error", err)
		}
	}
	o.logger.Info("connected", "addr", addr, "peer_id", hello.PeerID, "session_id", hello.SessionID)

	for _, d := range dbs {
		if d.Synchronised() {
			o.requestHost(d)
		}
	}
	return nil
}

// Run keeps the orchestrator connected until ctx is done, retrying every
// retry after a failed attempt or a lost connection.
func (o *Orchestrator) Run(ctx context.Context, addr string, retry time.Duration) error {
	if retry <= 0 {
		retry = time.Second
	}
	for {
		if err := o.Connect(ctx, addr); err != nil && !errors.Is(err, ErrAlreadyConnected) {
			o.logger.Warn("failed to connect", "addr", addr, "error", err)
		}

		o.mu.Lock()
		c := o.conn
		o.mu.Unlock()
		if c != nil {
			select {
			case <-ctx.Done():
				_ = o.Close()
				return ctx.Err()
			case <-c.Done():
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry):
		}
	}
}

func (o *Orchestrator) discover(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.DiscoverWait)
	defer cancel()
	addr, err := discovery.Browse(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to discover server: %w", err)
	}
	o.logger.Info("server discovered", "addr", addr)
	return addr, nil
}

func (o *Orchestrator) loadIdentity(ctx context.Context) error {
	o.mu.Lock()
	known := o.identity.PeerID != ""
	o.mu.Unlock()
	if known || o.metadata == nil {
		return nil
	}

	identity, err := storage.GetPeerIdentity(ctx, o.metadata)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.identity = identity
	o.mu.Unlock()
	return nil
}

// snapshot must be called with o.mu held
func (o *Orchestrator) snapshot() []*database.Database {
	dbs := make([]*database.Database, 0, len(o.databases))
	for _, d := range o.databases {
		dbs = append(dbs, d)
	}
	return dbs
}

func (o *Orchestrator) requestHost(d *database.Database) {
	id := d.ID()
	err := o.sender.Request(api.HostRequest{DatabaseID: id}, func(reply api.Message) {
		host, ok := reply.(api.HostReply)
		if !ok {
			o.logger.Warn("host request timed out", "database_id", id)
			return
		}
		d.HostResolved(host, host.HostPeerID == o.PeerID())
	})
	if err != nil {
		o.logger.Warn("failed to request host", "database_id", id, "error", err)
	}
}

// handle runs on the read loop of the connection
func (o *Orchestrator) handle(c *transport.Conn, msg api.Message, requestID uint16) {
	o.observers.InvokeValue(msg.Kind(), msg)
	ctx := context.Background()

	switch m := msg.(type) {
	case api.SetValueMessage:
		if err := validate(m.DatabaseID, m.ValueID); err != nil {
			o.logger.Warn("dropping update", "error", err)
			return
		}
		d, created, err := o.open(ctx, m.DatabaseID)
		if err != nil {
			o.logger.Error("failed to open database", "database_id", m.DatabaseID, "error", err)
			return
		}
		d.ApplyRemote(m)
		if created && o.Connected() {
			o.requestHost(d)
		}

	case api.GetValueRequest:
		reply := api.GetValueReply{Values: []api.SetValueMessage{}}
		if d, ok := o.Lookup(m.DatabaseID); ok && d.Synchronised() {
			reply = d.AnswerGetValue(m)
		}
		if err := c.Reply(requestID, reply); err != nil {
			o.logger.Warn("failed to answer value request", "database_id", m.DatabaseID, "error", err)
		}

	case api.DeleteDatabaseMessage:
		if err := validation.ValidateDatabaseID(m.DatabaseID); err != nil {
			o.logger.Warn("dropping deletion", "error", err)
			return
		}
		if err := o.destroy(ctx, m.DatabaseID); err != nil {
			o.logger.Error("failed to delete database", "database_id", m.DatabaseID, "error", err)
		}

	default:
		o.logger.Debug("ignoring message", "kind", msg.Kind())
	}
}

func (o *Orchestrator) closed(c *transport.Conn, err error) {
	o.mu.Lock()
	if o.conn != c {
		o.mu.Unlock()
		return
	}
	wasReady := o.ready
	o.conn = nil
	o.ready = false
	o.sessionID = ""
	dbs := o.snapshot()
	o.mu.Unlock()

	if !wasReady {
		return
	}
	if err != nil {
		o.logger.Warn("disconnected", "error", err)
	} else {
		o.logger.Info("disconnected")
	}
	for _, d := range dbs {
		d.Disconnected()
	}
}

func validate(databaseID, valueID string) error {
	if err := validation.ValidateDatabaseID(databaseID); err != nil {
		return err
	}
	return validation.ValidateValueID(valueID)
}
