package callback

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry[string] {
	return NewRegistry[string](slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAdd_Unique(t *testing.T) {
	r := newTestRegistry()
	noop := func(int) error { return nil }

	assert.True(t, Add(r, "x", "watch", noop, Options{Unique: true}))
	assert.False(t, Add(r, "x", "watch", noop, Options{Unique: true}))
	assert.True(t, Add(r, "x", "watch", noop, Options{}))
	assert.True(t, Add(r, "y", "watch", noop, Options{Unique: true}))

	assert.Equal(t, 2, r.Count("x"))
	assert.Equal(t, 1, r.Count("y"))
}

func TestInvoke_OrderAndDecode(t *testing.T) {
	r := newTestRegistry()
	var calls []string

	Add(r, "x", "first", func(v int) error {
		calls = append(calls, "first")
		assert.Equal(t, 12, v)
		return nil
	}, Options{})
	Add(r, "x", "second", func(v int) error {
		calls = append(calls, "second")
		return nil
	}, Options{})
	Add(r, "x", "raw", func(v []byte) error {
		calls = append(calls, "raw")
		assert.Equal(t, []byte("12"), v)
		return nil
	}, Options{})

	assert.Equal(t, 3, r.Invoke("x", []byte("12")))
	assert.Equal(t, []string{"first", "second", "raw"}, calls)
	assert.Zero(t, r.Invoke("missing", []byte("12")))
}

func TestInvoke_Errors(t *testing.T) {
	tests := []struct {
		name          string
		fn            func(int) error
		removeOnError bool
		wantCount     int
	}{
		{name: "error retained", fn: func(int) error { return errors.New("boom") }, wantCount: 2},
		{name: "error removed", fn: func(int) error { return errors.New("boom") }, removeOnError: true, wantCount: 1},
		{name: "panic removed", fn: func(int) error { panic("boom") }, removeOnError: true, wantCount: 1},
		{name: "success kept", fn: func(int) error { return nil }, removeOnError: true, wantCount: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry()
			Add(r, "x", "faulty", tt.fn, Options{RemoveOnError: tt.removeOnError})

			healthyCalled := false
			Add(r, "x", "healthy", func(int) error {
				healthyCalled = true
				return nil
			}, Options{})

			assert.Equal(t, 2, r.Invoke("x", []byte("1")))
			assert.True(t, healthyCalled)
			assert.Equal(t, tt.wantCount, r.Count("x"))
		})
	}
}

func TestInvoke_MutationDuringDispatch(t *testing.T) {
	r := newTestRegistry()
	secondCalls := 0

	Add(r, "x", "first", func(int) error {
		// Изменение списка во время обхода не влияет на текущий раунд
		r.Remove("x", "second")
		Add(r, "x", "third", func(int) error { return nil }, Options{})
		return nil
	}, Options{})
	Add(r, "x", "second", func(int) error {
		secondCalls++
		return nil
	}, Options{})

	assert.Equal(t, 2, r.Invoke("x", []byte("1")))
	assert.Equal(t, 1, secondCalls)
	assert.Equal(t, 2, r.Count("x"))
}

func TestInvoke_DecodeFailure(t *testing.T) {
	r := newTestRegistry()
	called := false
	Add(r, "x", "n", func(int) error {
		called = true
		return nil
	}, Options{})

	assert.Zero(t, r.Invoke("x", []byte(`"not a number"`)))
	assert.False(t, called)
}

func TestRemove(t *testing.T) {
	r := newTestRegistry()
	noop := func(string) error { return nil }
	Add(r, "x", "a", noop, Options{})
	Add(r, "x", "a", noop, Options{})
	Add(r, "x", "b", noop, Options{})

	assert.Equal(t, 2, r.Remove("x", "a"))
	assert.Equal(t, 1, r.Count("x"))
	assert.Equal(t, 1, r.Remove("x", ""))
	assert.Zero(t, r.Count("x"))
	assert.Zero(t, r.Remove("x", "a"))
}

type event struct {
	ID string
}

func TestInvokeValue(t *testing.T) {
	r := NewRegistry[int](nil)
	var got []event
	Add(r, 1, "events", func(e event) error {
		got = append(got, e)
		return nil
	}, Options{})
	Add(r, 1, "strings", func(string) error {
		t.Fatal("must not be called for event")
		return nil
	}, Options{})

	require.Equal(t, 1, r.InvokeValue(1, event{ID: "a"}))
	assert.Equal(t, []event{{ID: "a"}}, got)

	r.Clear()
	assert.Zero(t, r.InvokeValue(1, event{ID: "b"}))
}
