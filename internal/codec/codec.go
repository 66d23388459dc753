// Package codec turns typed values into the bytes stored, persisted and sent
// over the wire, and names the type of those bytes.
package codec

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"reflect"
)

// Codec serializes values of type T.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// JSON is the default codec for structured values.
type JSON[T any] struct{}

func (JSON[T]) Encode(v T) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", TypeName[T](), err)
	}
	return data, nil
}

func (JSON[T]) Decode(data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s: %w", TypeName[T](), err)
	}
	return v, nil
}

// Gob encodes values with encoding/gob. Both sides must use it for the same type.
type Gob[T any] struct{}

func (Gob[T]) Encode(v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("failed to gob encode %s: %w", TypeName[T](), err)
	}
	return buf.Bytes(), nil
}

func (Gob[T]) Decode(data []byte) (T, error) {
	var v T
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return v, fmt.Errorf("failed to gob decode %s: %w", TypeName[T](), err)
	}
	return v, nil
}

// Bytes passes raw byte slices through unchanged.
type Bytes struct{}

func (Bytes) Encode(v []byte) ([]byte, error) {
	return bytes.Clone(v), nil
}

func (Bytes) Decode(data []byte) ([]byte, error) {
	return bytes.Clone(data), nil
}

// String stores strings as their UTF-8 bytes.
type String struct{}

func (String) Encode(v string) ([]byte, error) {
	return []byte(v), nil
}

func (String) Decode(data []byte) (string, error) {
	return string(data), nil
}

// For returns the codec used for values of type T: Bytes for []byte,
// String for string and JSON for everything else.
func For[T any]() Codec[T] {
	var zero T
	switch any(zero).(type) {
	case []byte:
		return any(Bytes{}).(Codec[T])
	case string:
		return any(String{}).(Codec[T])
	}
	return JSON[T]{}
}

// TypeName returns the type descriptor carried next to serialized values of type T.
func TypeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
