package protocol

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/syncstore/pkg/api"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAppendFrame_Layout(t *testing.T) {
	frame, err := AppendFrame(nil, []byte("abc"), 0)
	require.NoError(t, err)

	expected := []byte{0x20, 0x20, 3, 0, 0, 0, '|', 0x00, 'a', 'b', 'c', ']', 0x00}
	assert.Equal(t, expected, frame)
}

func TestAppendFrame_TooLarge(t *testing.T) {
	_, err := AppendFrame(nil, make([]byte, 11), 10)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestDecoder_PartialReads(t *testing.T) {
	var stream []byte
	payloads := [][]byte{[]byte("first"), {}, []byte("third frame payload")}
	for _, p := range payloads {
		var err error
		stream, err = AppendFrame(stream, p, 0)
		require.NoError(t, err)
	}

	// OneByteReader отдает данные по одному байту
	dec := NewDecoder(iotest.OneByteReader(bytes.NewReader(stream)), 0, discardLogger())
	for _, want := range payloads {
		got, err := dec.Next()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := dec.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, dec.Discarded())
}

func TestDecoder_Resynchronization(t *testing.T) {
	good1, err := AppendFrame(nil, []byte("one"), 0)
	require.NoError(t, err)
	good2, err := AppendFrame(nil, []byte("two"), 0)
	require.NoError(t, err)

	badEnd := append([]byte{}, good1...)
	badEnd[len(badEnd)-2] = 'x'

	oversized := []byte{0x20, 0x20}
	oversized = binary.LittleEndian.AppendUint32(oversized, 1<<30)
	oversized = append(oversized, '|', 0x00)

	tests := []struct {
		name   string
		stream []byte
	}{
		{name: "garbage prefix", stream: append([]byte("garbage!"), good2...)},
		{name: "bad end marker", stream: append(badEnd, good2...)},
		{name: "bad separator", stream: append([]byte{0x20, 0x20, 3, 0, 0, 0, '#', 0}, good2...)},
		{name: "oversized length", stream: append(oversized, good2...)},
		{name: "negative length", stream: append([]byte{0x20, 0x20, 0xff, 0xff, 0xff, 0xff, '|', 0}, good2...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder(bytes.NewReader(tt.stream), 1024, discardLogger())
			got, err := dec.Next()
			require.NoError(t, err)
			assert.Equal(t, []byte("two"), got)
			assert.Positive(t, dec.Discarded())
		})
	}
}

func TestDecoder_MessageRoundTrip(t *testing.T) {
	msg := api.SetValueRequest{
		DatabaseID: "session",
		ValueID:    "x",
		Type:       "int",
		Value:      []byte("12"),
		Counter:    7,
	}
	payload, err := EncodeMessage(msg, 42)
	require.NoError(t, err)

	frame, err := AppendFrame(nil, payload, 0)
	require.NoError(t, err)

	dec := NewDecoder(bytes.NewReader(frame), 0, discardLogger())
	got, err := dec.Next()
	require.NoError(t, err)

	decoded, requestID, err := DecodeMessage(got)
	require.NoError(t, err)
	assert.Equal(t, uint16(42), requestID)
	assert.Equal(t, msg, decoded)
}

func TestDecodeMessage_UnknownKind(t *testing.T) {
	_, _, err := DecodeMessage([]byte(`{"kind":"nope","body":{}}`))
	assert.Error(t, err)
}
