package database

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/iudanet/syncstore/internal/callback"
	"github.com/iudanet/syncstore/internal/codec"
	"github.com/iudanet/syncstore/pkg/api"
)

// slot is the type-erased view of a Value the database works with.
type slot interface {
	id() string
	typeName() string
	current() ([]byte, error)
	// store replaces the value with data and schedules its side effects
	store(d *Database, data []byte, onlyIfChanged bool) error
	// resend sends the current value as a new write
	resend(d *Database) bool
}

// Value is a typed cell of a database. Writes are applied under the value
// lock and their side effects (callbacks, persistence, synchronisation) run
// on the value's serial queue in the order the writes were made.
type Value[T any] struct {
	resolver Resolver
	codec    codec.Codec[T]
	value    T
	valueID  string
	dbID     string
	typ      string
	mu       sync.RWMutex
}

// Get returns the typed value id of d, creating it on first access. Raw bytes
// received before the first typed access are decoded now.
func Get[T any](d *Database, id string) (*Value[T], error) {
	return GetWithCodec(d, id, codec.For[T]())
}

// GetWithCodec is Get with an explicit serialization. The codec is fixed by
// the first access of the value; every peer must use the same one.
func GetWithCodec[T any](d *Database, id string, c codec.Codec[T]) (*Value[T], error) {
	typ := codec.TypeName[T]()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.deleted {
		return nil, ErrDatabaseDeleted
	}
	if s, ok := d.values[id]; ok {
		v, ok := s.(*Value[T])
		if !ok {
			return nil, fmt.Errorf("%w: %s holds %s, requested %s", ErrTypeMismatch, id, s.typeName(), typ)
		}
		return v, nil
	}
	if known := d.types[id]; known != "" && known != typ {
		return nil, fmt.Errorf("%w: %s holds %s, requested %s", ErrTypeMismatch, id, known, typ)
	}

	v := &Value[T]{
		resolver: d.resolver,
		codec:    c,
		valueID:  id,
		dbID:     d.id,
		typ:      typ,
	}
	if lv, ok := d.late[id]; ok {
		val, err := v.codec.Decode(lv.data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTypeMismatch, err)
		}
		v.value = val
		delete(d.late, id)
	}
	d.values[id] = v
	d.types[id] = typ
	return v, nil
}

// ID returns the value id.
func (v *Value[T]) ID() string {
	return v.valueID
}

// Get returns the last written value without waiting for writers.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// BlockingGet calls fn with the value while no writer can change it.
func (v *Value[T]) BlockingGet(fn func(T)) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	fn(v.value)
}

// Set replaces the value. ErrNotConnected means the value was applied
// locally and will be sent once the connection is back.
func (v *Value[T]) Set(value T) error {
	return v.write(func(T) T { return value }, nil, nil)
}

// Modify applies fn to the value. fn runs again if the server rejects the
// write, against the value that won. fn must not access v.
func (v *Value[T]) Modify(fn func(T) T) error {
	return v.ModifyConfirmed(fn, nil)
}

// ModifyConfirmed is Modify with a continuation called with the value the
// write finally resolved to.
func (v *Value[T]) ModifyConfirmed(fn func(T) T, onConfirmed func(T)) error {
	redo := func(base []byte) ([]byte, error) {
		cur, err := v.decodeBase(base)
		if err != nil {
			return nil, err
		}
		return v.codec.Encode(fn(cur))
	}
	return v.write(fn, redo, onConfirmed)
}

// SafeModify applies fn exactly once, against the value the server
// confirmed, after the server granted this peer the next counter. It returns
// the new value once the server accepted it; when a newer write overtook the
// granted counter the result is sent again and reported on its acceptance.
// A cancelled ctx stops the wait, not the write.
func (v *Value[T]) SafeModify(ctx context.Context, fn func(T) T) (T, error) {
	type result struct {
		err   error
		value T
	}
	done := make(chan result, 1)
	v.SafeModifyAsync(fn, func(value T, err error) {
		done <- result{value: value, err: err}
	})

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("failed to wait for safe modify: %w", ctx.Err())
	}
}

// SafeModifyAsync is SafeModify reporting through done, which is called
// exactly once: with ErrTimeout when the lock request got no answer.
func (v *Value[T]) SafeModifyAsync(fn func(T) T, done func(T, error)) {
	var zero T
	d, err := v.database()
	if err != nil {
		done(zero, err)
		return
	}

	if !d.Synchronised() || d.sender == nil {
		var result T
		err := v.write(func(cur T) T {
			result = fn(cur)
			return result
		}, nil, nil)
		done(result, err)
		return
	}

	counter, err := d.beginLock(v.valueID, v)
	if err != nil {
		done(zero, err)
		return
	}

	var once sync.Once
	finish := func(value T, err error) {
		once.Do(func() { done(value, err) })
	}
	pw := &pendingWrite{
		typ:       v.typ,
		exclusive: true,
		redo: func(base []byte) ([]byte, error) {
			cur, err := v.decodeBase(base)
			if err != nil {
				return nil, err
			}
			return v.codec.Encode(fn(cur))
		},
		onConfirm: func(data []byte) {
			value, err := v.codec.Decode(data)
			finish(value, err)
		},
		onFail: func(err error) {
			finish(zero, err)
		},
	}

	req := api.LockValueRequest{DatabaseID: d.id, ValueID: v.valueID, Counter: counter}
	if err := d.sender.Request(req, func(reply api.Message) { d.onLockReply(v.valueID, pw, reply) }); err != nil {
		d.logger.Warn("failed to send lock request", "value_id", v.valueID, "error", err)
		d.onLockReply(v.valueID, pw, nil)
	}
}

// AddCallback registers fn for changes of this value.
func (v *Value[T]) AddCallback(name string, fn func(T) error, opts callback.Options) (bool, error) {
	d, err := v.database()
	if err != nil {
		return false, err
	}
	return AddCallback(d, v.valueID, name, fn, opts), nil
}

func (v *Value[T]) id() string {
	return v.valueID
}

func (v *Value[T]) typeName() string {
	return v.typ
}

func (v *Value[T]) current() ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.codec.Encode(v.value)
}

func (v *Value[T]) store(d *Database, data []byte, onlyIfChanged bool) error {
	next, err := v.codec.Decode(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTypeMismatch, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if onlyIfChanged {
		if cur, err := v.codec.Encode(v.value); err == nil && bytes.Equal(cur, data) {
			return nil
		}
	}
	v.value = next
	d.schedule(v.valueID, func() { d.sideEffects(v.valueID, v.typ, data, false) })
	return nil
}

func (v *Value[T]) resend(d *Database) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	data, err := v.codec.Encode(v.value)
	if err != nil {
		d.logger.Error("failed to encode value", "value_id", v.valueID, "error", err)
		return false
	}
	t, err := d.beginWrite(v.valueID, v)
	if err != nil || !t.sync {
		return false
	}
	pw := &pendingWrite{typ: v.typ, data: data}
	d.schedule(v.valueID, func() {
		d.persist(v.valueID, v.typ, data, false)
		d.sendSet(v.valueID, t.counter, pw)
	})
	return true
}

// write applies fn under the value lock; the predicted counter is taken
// under the same lock so the queue sends writes in counter order
func (v *Value[T]) write(fn func(T) T, redo func([]byte) ([]byte, error), onConfirmed func(T)) error {
	d, err := v.database()
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	next := fn(v.value)
	data, err := v.codec.Encode(next)
	if err != nil {
		return err
	}
	t, err := d.beginWrite(v.valueID, v)
	if err != nil {
		return err
	}
	v.value = next

	pw := &pendingWrite{
		redo:      redo,
		onConfirm: v.confirmer(onConfirmed),
		typ:       v.typ,
		data:      data,
	}
	d.schedule(v.valueID, func() { d.afterWrite(v.valueID, t, pw) })

	if t.offline {
		return fmt.Errorf("failed to synchronise %s: %w", v.valueID, ErrNotConnected)
	}
	return nil
}

func (v *Value[T]) confirmer(onConfirmed func(T)) func([]byte) {
	if onConfirmed == nil {
		return nil
	}
	return func(data []byte) {
		if value, err := v.codec.Decode(data); err == nil {
			onConfirmed(value)
		}
	}
}

func (v *Value[T]) decodeBase(base []byte) (T, error) {
	if len(base) == 0 {
		var zero T
		return zero, nil
	}
	return v.codec.Decode(base)
}

func (v *Value[T]) database() (*Database, error) {
	d, ok := v.resolver.Lookup(v.dbID)
	if !ok {
		return nil, ErrDatabaseDeleted
	}
	return d, nil
}
