package arbitrator

import (
	"context"

	"github.com/iudanet/syncstore/pkg/api"
)

//go:generate moq -out session_mock.go . Session

// Session is one connected peer as seen by the arbitrator.
type Session interface {
	// ID identifies the connection
	ID() string

	// PeerID identifies the peer across reconnects
	PeerID() string

	// Send writes a one-way message
	Send(msg api.Message) error

	// Reply answers a request of the peer
	Reply(requestID uint16, msg api.Message) error

	// Call sends a request to the peer and waits for its reply
	Call(ctx context.Context, msg api.Message) (api.Message, error)
}
