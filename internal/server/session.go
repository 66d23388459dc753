package server

import (
	"context"

	"github.com/iudanet/syncstore/internal/transport"
	"github.com/iudanet/syncstore/pkg/api"
)

// session adapts a connection to arbitrator.Session
type session struct {
	conn   *transport.Conn
	id     string
	peerID string
}

func (s *session) ID() string     { return s.id }
func (s *session) PeerID() string { return s.peerID }

func (s *session) Send(msg api.Message) error {
	return s.conn.Send(msg)
}

func (s *session) Reply(requestID uint16, msg api.Message) error {
	return s.conn.Reply(requestID, msg)
}

func (s *session) Call(ctx context.Context, msg api.Message) (api.Message, error) {
	return s.conn.Call(ctx, msg)
}
