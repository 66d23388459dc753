// Package transport carries framed protocol messages over a stream
// connection and correlates requests with their replies.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iudanet/syncstore/internal/protocol"
	"github.com/iudanet/syncstore/pkg/api"
)

var (
	// ErrClosed indicates that the connection is closed
	ErrClosed = errors.New("connection closed")

	// ErrTimeout indicates that no reply arrived within the request timeout
	ErrTimeout = errors.New("request timed out")

	// ErrTooManyRequests indicates that every correlation id is in use
	ErrTooManyRequests = errors.New("too many requests in flight")

	// ErrQueueFull indicates that the peer does not read fast enough; the
	// connection is closed
	ErrQueueFull = errors.New("outbound queue full")
)

// DefaultTimeout is used when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// DefaultQueueSize is used when Options.QueueSize is zero.
const DefaultQueueSize = 4096

// closeFlushTimeout bounds how long Close waits for queued frames.
const closeFlushTimeout = time.Second

// Handler processes one inbound non-reply message. Handlers run on the
// connection's read loop, one at a time and in arrival order, so they must
// not block waiting for a reply on the same connection.
type Handler func(c *Conn, msg api.Message, requestID uint16)

// Options configures a connection.
type Options struct {
	Logger     *slog.Logger
	Handler    Handler
	OnClose    func(c *Conn, err error)
	MaxPayload int
	// QueueSize bounds the frames waiting for the writer. Writes never block:
	// a write beyond the bound closes the connection with ErrQueueFull.
	QueueSize int
	Timeout   time.Duration
}

// outbound is a queued frame or, when flushed is set, a marker the writer
// signals once everything queued before it has been written.
type outbound struct {
	frame   []byte
	flushed chan struct{}
}

type call struct {
	callback func(api.Message)
	timer    *time.Timer
}

// Conn is a framed, request/reply capable connection.
type Conn struct {
	raw       net.Conn
	logger    *slog.Logger
	handler   Handler
	onClose   func(*Conn, error)
	queue     []outbound
	wake      chan struct{}
	closed    chan struct{}
	pending   map[uint16]*call
	closeErr  error
	opts      Options
	mu        sync.Mutex
	queueMu   sync.Mutex
	closeOnce sync.Once
	nextID    atomic.Uint32
}

// NewConn wraps raw. Call Start to begin processing.
func NewConn(raw net.Conn, opts Options) *Conn {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxPayload <= 0 {
		opts.MaxPayload = protocol.DefaultMaxPayload
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	return &Conn{
		raw:     raw,
		logger:  opts.Logger.With("remote_addr", raw.RemoteAddr().String()),
		handler: opts.Handler,
		onClose: opts.OnClose,
		wake:    make(chan struct{}, 1),
		closed:  make(chan struct{}),
		pending: make(map[uint16]*call),
		opts:    opts,
	}
}

// Dial connects to addr and starts the connection.
func Dial(ctx context.Context, addr string, opts Options) (*Conn, error) {
	var dialer net.Dialer
	raw, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	c := NewConn(raw, opts)
	c.Start()
	return c, nil
}

// Start launches the read and write loops.
func (c *Conn) Start() {
	go c.readLoop()
	go c.writeLoop()
}

// Timeout returns the default request timeout of the connection.
func (c *Conn) Timeout() time.Duration {
	return c.opts.Timeout
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// Done is closed once the connection is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.closed
}

// Send writes a one-way message.
func (c *Conn) Send(msg api.Message) error {
	return c.write(msg, 0)
}

// Reply answers the request identified by requestID.
func (c *Conn) Reply(requestID uint16, msg api.Message) error {
	return c.write(msg, requestID)
}

// Request sends msg and invokes callback exactly once: with the reply, or
// with nil when the timeout elapses or the connection closes first.
func (c *Conn) Request(msg api.Message, timeout time.Duration, callback func(api.Message)) error {
	if timeout <= 0 {
		timeout = c.opts.Timeout
	}

	id, err := c.register(callback, timeout)
	if err != nil {
		return err
	}
	if err := c.write(msg, id); err != nil {
		if cl := c.take(id); cl != nil {
			cl.timer.Stop()
		}
		return err
	}
	return nil
}

// Call sends msg and waits for the reply. A missing reply is reported as
// ErrTimeout; a cancelled ctx stops the wait but not the request.
func (c *Conn) Call(ctx context.Context, msg api.Message) (api.Message, error) {
	timeout := c.opts.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	if timeout <= 0 {
		return nil, ErrTimeout
	}

	replies := make(chan api.Message, 1)
	if err := c.Request(msg, timeout, func(reply api.Message) { replies <- reply }); err != nil {
		return nil, err
	}

	select {
	case reply := <-replies:
		if reply == nil {
			return nil, ErrTimeout
		}
		return reply, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}
}

// Close writes the frames already queued, closes the connection and fails
// all outstanding requests.
func (c *Conn) Close() error {
	c.flush(closeFlushTimeout)
	c.shutdown(nil)
	return nil
}

// flush waits until frames queued before the call are written or timeout elapses.
func (c *Conn) flush(timeout time.Duration) {
	flushed := make(chan struct{})
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	if err := c.enqueue(outbound{flushed: flushed}); err != nil {
		return
	}
	select {
	case <-flushed:
	case <-c.closed:
	case <-timer.C:
	}
}

// Err returns the error that closed the connection, if any.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeErr
}

func (c *Conn) write(msg api.Message, requestID uint16) error {
	payload, err := protocol.EncodeMessage(msg, requestID)
	if err != nil {
		return err
	}
	frame, err := protocol.AppendFrame(nil, payload, c.opts.MaxPayload)
	if err != nil {
		return err
	}

	return c.enqueue(outbound{frame: frame})
}

// enqueue hands o to the writer without waiting for I/O
func (c *Conn) enqueue(o outbound) error {
	c.queueMu.Lock()
	select {
	case <-c.closed:
		c.queueMu.Unlock()
		return ErrClosed
	default:
	}
	if o.flushed == nil && len(c.queue) >= c.opts.QueueSize {
		c.queueMu.Unlock()
		// Закрытие вызывает OnClose, поэтому не в контексте пишущего
		go c.shutdown(ErrQueueFull)
		return ErrQueueFull
	}
	c.queue = append(c.queue, o)
	c.queueMu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

// register reserves a correlation id; ids are 16-bit and wrap around
func (c *Conn) register(callback func(api.Message), timeout time.Duration) (uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return 0, ErrClosed
	default:
	}

	for range 1 << 16 {
		id := uint16(c.nextID.Add(1))
		if id == 0 {
			continue
		}
		if _, busy := c.pending[id]; busy {
			continue
		}
		cl := &call{callback: callback}
		cl.timer = time.AfterFunc(timeout, func() { c.expire(id, cl) })
		c.pending[id] = cl
		return id, nil
	}
	return 0, ErrTooManyRequests
}

// take removes the pending call; whoever removes it owns the callback
func (c *Conn) take(id uint16) *call {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl, ok := c.pending[id]
	if !ok {
		return nil
	}
	delete(c.pending, id)
	return cl
}

func (c *Conn) expire(id uint16, expected *call) {
	c.mu.Lock()
	cl, ok := c.pending[id]
	if !ok || cl != expected {
		c.mu.Unlock()
		return
	}
	delete(c.pending, id)
	c.mu.Unlock()

	c.logger.Warn("request timed out", "request_id", id)
	cl.callback(nil)
}

func (c *Conn) resolve(id uint16, reply api.Message) {
	cl := c.take(id)
	if cl == nil {
		c.logger.Debug("dropping reply without pending request", "request_id", id, "kind", reply.Kind())
		return
	}
	cl.timer.Stop()
	cl.callback(reply)
}

func (c *Conn) readLoop() {
	dec := protocol.NewDecoder(c.raw, c.opts.MaxPayload, c.logger)
	for {
		payload, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
				err = nil
			}
			c.shutdown(err)
			return
		}

		msg, requestID, err := protocol.DecodeMessage(payload)
		if err != nil {
			c.logger.Warn("failed to decode message", "error", err)
			continue
		}

		if msg.Kind().IsReply() {
			c.resolve(requestID, msg)
			continue
		}
		if c.handler != nil {
			c.handler(c, msg, requestID)
		}
	}
}

func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.wake:
		case <-c.closed:
			return
		}

		c.queueMu.Lock()
		batch := c.queue
		c.queue = nil
		c.queueMu.Unlock()

		for _, o := range batch {
			if o.flushed != nil {
				close(o.flushed)
				continue
			}
			if _, err := c.raw.Write(o.frame); err != nil {
				c.shutdown(fmt.Errorf("failed to write frame: %w", err))
				return
			}
		}
	}
}

func (c *Conn) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeErr = err
		close(c.closed)
		calls := c.pending
		c.pending = make(map[uint16]*call)
		c.mu.Unlock()

		_ = c.raw.Close()

		// Ожидающие запросы завершаются без ответа
		for _, cl := range calls {
			cl.timer.Stop()
			cl.callback(nil)
		}

		if err != nil {
			c.logger.Warn("connection closed", "error", err)
		} else {
			c.logger.Debug("connection closed")
		}
		if c.onClose != nil {
			c.onClose(c, err)
		}
	})
}
