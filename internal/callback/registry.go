// Package callback implements a typed publish/subscribe registry keyed by an
// arbitrary comparable key, such as a value id or a message kind.
package callback

import (
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"github.com/iudanet/syncstore/internal/codec"
)

// Options tunes how a callback is registered.
type Options struct {
	// Unique refuses the registration when a callback with the same name
	// already exists under the key.
	Unique bool
	// RemoveOnError drops the callback after a round in which it failed.
	RemoveOnError bool
}

type entry struct {
	typ           reflect.Type
	decode        func([]byte) (any, error)
	call          func(any) error
	name          string
	removeOnError bool
}

// Registry stores named, typed callbacks per key.
type Registry[K comparable] struct {
	logger    *slog.Logger
	callbacks map[K][]*entry
	mu        sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry[K comparable](logger *slog.Logger) *Registry[K] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry[K]{
		logger:    logger,
		callbacks: make(map[K][]*entry),
	}
}

// Add registers fn under key. It returns false when opts.Unique is set and a
// callback named name is already registered for key.
func Add[K comparable, T any](r *Registry[K], key K, name string, fn func(T) error, opts Options) bool {
	if fn == nil {
		panic("callback: nil function")
	}
	c := codec.For[T]()
	e := &entry{
		typ:  reflect.TypeFor[T](),
		name: name,
		decode: func(data []byte) (any, error) {
			return c.Decode(data)
		},
		call: func(v any) error {
			return fn(v.(T))
		},
		removeOnError: opts.RemoveOnError,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if opts.Unique && slices.ContainsFunc(r.callbacks[key], func(x *entry) bool { return x.name == name }) {
		return false
	}
	r.callbacks[key] = append(r.callbacks[key], e)
	return true
}

// Remove deletes the callbacks named name under key; an empty name removes
// every callback of the key. It returns how many were removed.
func (r *Registry[K]) Remove(key K, name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.callbacks[key]
	kept := list[:0:0]
	for _, e := range list {
		if name == "" || e.name == name {
			continue
		}
		kept = append(kept, e)
	}
	removed := len(list) - len(kept)
	if len(kept) == 0 {
		delete(r.callbacks, key)
	} else {
		r.callbacks[key] = kept
	}
	return removed
}

// Count returns the number of callbacks registered under key.
func (r *Registry[K]) Count(key K) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.callbacks[key])
}

// Clear drops every callback.
func (r *Registry[K]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.callbacks)
}

// Invoke decodes data once with the type of the first callback registered
// under key and calls every callback in registration order. Callbacks declared
// with another type decode data themselves. It returns the number of
// callbacks invoked.
func (r *Registry[K]) Invoke(key K, data []byte) int {
	list := r.snapshot(key)
	if len(list) == 0 {
		return 0
	}

	first, err := list[0].decode(data)
	if err != nil {
		r.logger.Error("failed to decode callback argument", "key", key, "type", list[0].typ.String(), "error", err)
		return 0
	}

	return r.dispatch(key, list, func(e *entry) (any, error) {
		if e.typ == list[0].typ {
			return first, nil
		}
		return e.decode(data)
	})
}

// InvokeValue calls every callback under key whose declared type matches the
// dynamic type of v. Callbacks of other types are skipped.
func (r *Registry[K]) InvokeValue(key K, v any) int {
	list := r.snapshot(key)
	if len(list) == 0 {
		return 0
	}
	vt := reflect.TypeOf(v)

	matching := list[:0:0]
	for _, e := range list {
		if e.typ == vt {
			matching = append(matching, e)
		}
	}
	return r.dispatch(key, matching, func(*entry) (any, error) { return v, nil })
}

// snapshot copies the callback list so callbacks may add or remove
// callbacks while the round is running
func (r *Registry[K]) snapshot(key K) []*entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.callbacks[key])
}

func (r *Registry[K]) dispatch(key K, list []*entry, arg func(*entry) (any, error)) int {
	var failed []*entry
	invoked := 0
	for _, e := range list {
		v, err := arg(e)
		if err == nil {
			invoked++
			err = safeCall(e, v)
		}
		if err == nil {
			continue
		}
		r.logger.Error("callback failed", "key", key, "name", e.name, "error", err)
		if e.removeOnError {
			failed = append(failed, e)
		}
	}

	if len(failed) > 0 {
		r.drop(key, failed)
	}
	return invoked
}

func (r *Registry[K]) drop(key K, failed []*entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := slices.DeleteFunc(slices.Clone(r.callbacks[key]), func(e *entry) bool {
		return slices.Contains(failed, e)
	})
	if len(kept) == 0 {
		delete(r.callbacks, key)
		return
	}
	r.callbacks[key] = kept
}

// safeCall превращает панику колбэка в ошибку
func safeCall(e *entry, v any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("callback panicked: %v", rec)
		}
	}()
	return e.call(v)
}
