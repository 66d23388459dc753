package api

import (
	"encoding/json"
	"fmt"
)

// Kind определяет тип сообщения в конверте
type Kind string

// Типы сообщений протокола синхронизации
const (
	KindHelloRequest          Kind = "hello_request"
	KindHelloReply            Kind = "hello_reply"
	KindSetValueRequest       Kind = "set_value_request"
	KindSetValueReply         Kind = "set_value_reply"
	KindSetValueMessage       Kind = "set_value_message"
	KindLockValueRequest      Kind = "lock_value_request"
	KindLockValueReply        Kind = "lock_value_reply"
	KindGetValueRequest       Kind = "get_value_request"
	KindGetValueReply         Kind = "get_value_reply"
	KindDeleteDatabaseMessage Kind = "delete_database_message"
	KindHostRequest           Kind = "host_request"
	KindHostReply             Kind = "host_reply"
)

// IsReply reports whether messages of this kind answer an earlier request.
func (k Kind) IsReply() bool {
	switch k {
	case KindHelloReply, KindSetValueReply, KindLockValueReply, KindGetValueReply, KindHostReply:
		return true
	}
	return false
}

// Message is implemented by every wire message.
type Message interface {
	Kind() Kind
}

// Envelope is the unit carried inside one frame.
// RequestID correlates a request with its reply; it is zero for one-way messages.
type Envelope struct {
	Kind      Kind            `json:"kind"`
	Body      json.RawMessage `json:"body"`
	RequestID uint16          `json:"request_id,omitempty"`
}

// HelloRequest открывает сессию; Ticket пуст при первом подключении
type HelloRequest struct {
	PeerID string `json:"peer_id,omitempty"`
	Ticket string `json:"ticket,omitempty"`
}

// HelloReply возвращает идентификатор сессии и (возможно новый) тикет
type HelloReply struct {
	SessionID string `json:"session_id"`
	PeerID    string `json:"peer_id"`
	Ticket    string `json:"ticket"`
}

// SetValueRequest asks the arbitrator to accept a write at Counter.
type SetValueRequest struct {
	DatabaseID string `json:"database_id"`
	ValueID    string `json:"value_id"`
	Type       string `json:"type"`
	Value      []byte `json:"value"`
	Counter    uint32 `json:"counter"`
}

// SetValueReply carries the counter the arbitrator assigned to the request.
// The write was accepted when it equals the requested counter.
type SetValueReply struct {
	ExpectedCounter uint32 `json:"expected_counter"`
}

// SetValueMessage is a one-way authoritative update: a broadcast of an accepted
// write, a replayed write filling its reserved counter, or a catch-up value.
// A message with Skip set releases Counter without carrying a value: the
// receiver advances its counter and keeps its current value.
type SetValueMessage struct {
	DatabaseID string `json:"database_id"`
	ValueID    string `json:"value_id"`
	Type       string `json:"type"`
	Value      []byte `json:"value"`
	Counter    uint32 `json:"counter"`
	Skip       bool   `json:"skip,omitempty"`
}

// LockValueRequest asks for the exclusive right to write the next counter of a value.
type LockValueRequest struct {
	DatabaseID string `json:"database_id"`
	ValueID    string `json:"value_id"`
	Counter    uint32 `json:"counter"`
}

// LockValueReply carries the counter reserved for the requester.
type LockValueReply struct {
	ExpectedCounter uint32 `json:"expected_counter"`
}

// GetValueRequest asks a peer for the values whose local counter matches Counters.
type GetValueRequest struct {
	Counters   map[string]uint32 `json:"counters"`
	DatabaseID string            `json:"database_id"`
}

// GetValueReply lists the values a peer could vouch for.
type GetValueReply struct {
	Values []SetValueMessage `json:"values"`
}

// DeleteDatabaseMessage drops a database on every peer.
type DeleteDatabaseMessage struct {
	DatabaseID string `json:"database_id"`
}

// HostRequest resolves (and if needed elects) the host peer of a database.
type HostRequest struct {
	DatabaseID string `json:"database_id"`
}

// HostReply names the host and lists the counters the server holds for the database.
type HostReply struct {
	Counters   map[string]uint32 `json:"counters"`
	DatabaseID string            `json:"database_id"`
	HostPeerID string            `json:"host_peer_id"`
}

func (HelloRequest) Kind() Kind          { return KindHelloRequest }
func (HelloReply) Kind() Kind            { return KindHelloReply }
func (SetValueRequest) Kind() Kind       { return KindSetValueRequest }
func (SetValueReply) Kind() Kind         { return KindSetValueReply }
func (SetValueMessage) Kind() Kind       { return KindSetValueMessage }
func (LockValueRequest) Kind() Kind      { return KindLockValueRequest }
func (LockValueReply) Kind() Kind        { return KindLockValueReply }
func (GetValueRequest) Kind() Kind       { return KindGetValueRequest }
func (GetValueReply) Kind() Kind         { return KindGetValueReply }
func (DeleteDatabaseMessage) Kind() Kind { return KindDeleteDatabaseMessage }
func (HostRequest) Kind() Kind           { return KindHostRequest }
func (HostReply) Kind() Kind             { return KindHostReply }

// Encode упаковывает сообщение в конверт
func Encode(msg Message, requestID uint16) (*Envelope, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", msg.Kind(), err)
	}
	return &Envelope{Kind: msg.Kind(), RequestID: requestID, Body: body}, nil
}

// Decode распаковывает тело конверта в конкретный тип сообщения
func Decode(env *Envelope) (Message, error) {
	var msg Message
	switch env.Kind {
	case KindHelloRequest:
		msg = decodeAs[HelloRequest](env.Body)
	case KindHelloReply:
		msg = decodeAs[HelloReply](env.Body)
	case KindSetValueRequest:
		msg = decodeAs[SetValueRequest](env.Body)
	case KindSetValueReply:
		msg = decodeAs[SetValueReply](env.Body)
	case KindSetValueMessage:
		msg = decodeAs[SetValueMessage](env.Body)
	case KindLockValueRequest:
		msg = decodeAs[LockValueRequest](env.Body)
	case KindLockValueReply:
		msg = decodeAs[LockValueReply](env.Body)
	case KindGetValueRequest:
		msg = decodeAs[GetValueRequest](env.Body)
	case KindGetValueReply:
		msg = decodeAs[GetValueReply](env.Body)
	case KindDeleteDatabaseMessage:
		msg = decodeAs[DeleteDatabaseMessage](env.Body)
	case KindHostRequest:
		msg = decodeAs[HostRequest](env.Body)
	case KindHostReply:
		msg = decodeAs[HostReply](env.Body)
	default:
		return nil, fmt.Errorf("unknown message kind %q", env.Kind)
	}
	if d, ok := msg.(decodeFailure); ok {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", env.Kind, d.err)
	}
	return msg, nil
}

type decodeFailure struct {
	err error
}

func (decodeFailure) Kind() Kind { return "" }

func decodeAs[M Message](body json.RawMessage) Message {
	var msg M
	if err := json.Unmarshal(body, &msg); err != nil {
		return decodeFailure{err: err}
	}
	return msg
}
