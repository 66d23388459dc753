// Package server accepts peer connections and wires them to the arbitrator.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/syncstore/internal/server/arbitrator"
	"github.com/iudanet/syncstore/internal/server/ticket"
	"github.com/iudanet/syncstore/internal/transport"
	"github.com/iudanet/syncstore/pkg/api"
)

// Options configures the server.
type Options struct {
	// HelloTimeout closes connections that do not say hello in time
	HelloTimeout   time.Duration
	RequestTimeout time.Duration
	MaxPayload     int
	// QueueSize bounds the frames queued for one peer; a peer that falls
	// further behind is disconnected
	QueueSize int
}

// Server accepts connections, authenticates peers with tickets and forwards
// their messages to the arbitrator.
type Server struct {
	arb      *arbitrator.Arbitrator
	tickets  *ticket.Service
	logger   *slog.Logger
	sessions map[*transport.Conn]*session
	conns    map[*transport.Conn]struct{}
	opts     Options
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// New creates a server.
func New(arb *arbitrator.Arbitrator, tickets *ticket.Service, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.HelloTimeout <= 0 {
		opts.HelloTimeout = 10 * time.Second
	}
	return &Server{
		arb:      arb,
		tickets:  tickets,
		logger:   logger,
		sessions: make(map[*transport.Conn]*session),
		conns:    make(map[*transport.Conn]struct{}),
		opts:     opts,
	}
}

// Serve accepts connections on ln until ctx is done. It closes ln and every
// open connection before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("server listening", "addr", ln.Addr().String())

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	defer func() {
		s.mu.Lock()
		open := make([]*transport.Conn, 0, len(s.conns))
		for c := range s.conns {
			open = append(open, c)
		}
		s.mu.Unlock()
		for _, c := range open {
			_ = c.Close()
		}
		s.wg.Wait()
	}()

	for {
		raw, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("failed to accept connection", "error", err)
			return err
		}

		c := transport.NewConn(raw, transport.Options{
			Logger:     s.logger,
			Handler:    func(c *transport.Conn, msg api.Message, requestID uint16) { s.handle(ctx, c, msg, requestID) },
			OnClose:    func(c *transport.Conn, err error) { s.closed(ctx, c) },
			MaxPayload: s.opts.MaxPayload,
			QueueSize:  s.opts.QueueSize,
			Timeout:    s.opts.RequestTimeout,
		})
		s.mu.Lock()
		s.conns[c] = struct{}{}
		s.mu.Unlock()

		c.Start()
		s.watchHello(c)
	}
}

// watchHello closes c if it has not completed the handshake in time
func (s *Server) watchHello(c *transport.Conn) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(s.opts.HelloTimeout)
		defer timer.Stop()
		select {
		case <-c.Done():
		case <-timer.C:
			if s.session(c) == nil {
				s.logger.Warn("closing connection without hello", "remote_addr", c.RemoteAddr().String())
				_ = c.Close()
			}
		}
	}()
}

func (s *Server) session(c *transport.Conn) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[c]
}

func (s *Server) handle(ctx context.Context, c *transport.Conn, msg api.Message, requestID uint16) {
	sess := s.session(c)
	if sess != nil {
		s.arb.Handle(ctx, sess, msg, requestID)
		return
	}

	hello, ok := msg.(api.HelloRequest)
	if !ok {
		s.logger.Warn("message before hello", "remote_addr", c.RemoteAddr().String(), "kind", msg.Kind())
		_ = c.Close()
		return
	}
	s.hello(ctx, c, hello, requestID)
}

func (s *Server) hello(ctx context.Context, c *transport.Conn, req api.HelloRequest, requestID uint16) {
	peerID := ""
	if req.Ticket != "" {
		verified, err := s.tickets.Verify(req.Ticket)
		switch {
		case err != nil:
			s.logger.Warn("rejected ticket", "remote_addr", c.RemoteAddr().String(), "error", err)
		case req.PeerID != "" && req.PeerID != verified:
			s.logger.Warn("ticket issued for another peer", "peer_id", req.PeerID)
		default:
			peerID = verified
		}
	}
	if peerID == "" {
		peerID = uuid.NewString()
	}

	tkt, err := s.tickets.Issue(peerID)
	if err != nil {
		s.logger.Error("failed to issue ticket", "peer_id", peerID, "error", err)
		_ = c.Close()
		return
	}

	sess := &session{conn: c, id: uuid.NewString(), peerID: peerID}
	s.mu.Lock()
	s.sessions[c] = sess
	s.mu.Unlock()

	s.arb.Join(sess)
	if err := c.Reply(requestID, api.HelloReply{SessionID: sess.id, PeerID: peerID, Ticket: tkt}); err != nil {
		s.logger.Warn("failed to answer hello", "session_id", sess.id, "error", err)
		return
	}

	// Догоняющая синхронизация ждёт ответов других пиров, поэтому не в цикле чтения
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.arb.CatchUp(ctx, sess)
	}()
}

func (s *Server) closed(ctx context.Context, c *transport.Conn) {
	s.mu.Lock()
	sess, ok := s.sessions[c]
	delete(s.sessions, c)
	delete(s.conns, c)
	s.mu.Unlock()

	if ok {
		s.arb.Leave(context.WithoutCancel(ctx), sess.id)
	}
}
