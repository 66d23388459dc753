// Package protocol implements the byte-exact frame format used on every
// connection and the envelope codec carried inside frames.
//
// A frame is laid out as
//
//	[start: 2 bytes] [len: int32 little-endian] [separator: 2 bytes] [payload: len bytes] [end: 2 bytes]
//
// Every marker is one UTF-16LE code unit: start is U+2020 (0x20 0x20),
// the separator is '|' (0x7C 0x00) and the end marker is ']' (0x5D 0x00).
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// DefaultMaxPayload bounds the declared payload length of a frame.
const DefaultMaxPayload = 16 << 20

const (
	markerLen  = 2
	lengthLen  = 4
	headerLen  = markerLen + lengthLen + markerLen
	overhead   = headerLen + markerLen
	readChunk  = 32 * 1024
	compactMin = 64 * 1024
)

var (
	startMarker     = [markerLen]byte{0x20, 0x20}
	separatorMarker = [markerLen]byte{'|', 0x00}
	endMarker       = [markerLen]byte{']', 0x00}
)

// ErrPayloadTooLarge is returned by AppendFrame when the payload exceeds the limit.
var ErrPayloadTooLarge = errors.New("frame payload too large")

// AppendFrame appends payload wrapped in a frame to dst.
func AppendFrame(dst, payload []byte, maxPayload int) ([]byte, error) {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	if len(payload) > maxPayload {
		return dst, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), maxPayload)
	}
	dst = append(dst, startMarker[:]...)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(int32(len(payload))))
	dst = append(dst, separatorMarker[:]...)
	dst = append(dst, payload...)
	dst = append(dst, endMarker[:]...)
	return dst, nil
}

// Decoder reads frames from a byte stream. It buffers partial reads and
// resynchronizes on malformed input by discarding one byte at a time until
// a start marker lines up again.
type Decoder struct {
	r          io.Reader
	logger     *slog.Logger
	buf        []byte
	off        int
	maxPayload int
	badRun     bool
	discarded  int
}

// NewDecoder creates a frame decoder over r.
func NewDecoder(r io.Reader, maxPayload int, logger *slog.Logger) *Decoder {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{
		r:          r,
		logger:     logger,
		maxPayload: maxPayload,
	}
}

// Next returns the payload of the next well-formed frame.
// The returned slice is owned by the caller.
func (d *Decoder) Next() ([]byte, error) {
	for {
		payload, ok := d.parse()
		if ok {
			return payload, nil
		}
		if err := d.fill(); err != nil {
			return nil, err
		}
	}
}

// Discarded returns how many bytes were skipped while resynchronizing.
func (d *Decoder) Discarded() int {
	return d.discarded
}

// parse tries to cut one frame out of the buffered bytes.
func (d *Decoder) parse() ([]byte, bool) {
	for {
		data := d.buf[d.off:]
		if len(data) < markerLen {
			return nil, false
		}
		if [markerLen]byte(data[:markerLen]) != startMarker {
			d.skip("bad start marker")
			continue
		}
		if len(data) < headerLen {
			return nil, false
		}
		length := int32(binary.LittleEndian.Uint32(data[markerLen : markerLen+lengthLen]))
		if length < 0 || int(length) > d.maxPayload {
			d.skip("bad payload length")
			continue
		}
		if [markerLen]byte(data[markerLen+lengthLen:headerLen]) != separatorMarker {
			d.skip("bad separator marker")
			continue
		}
		total := overhead + int(length)
		if len(data) < total {
			return nil, false
		}
		if [markerLen]byte(data[headerLen+int(length):total]) != endMarker {
			d.skip("bad end marker")
			continue
		}

		payload := make([]byte, length)
		copy(payload, data[headerLen:headerLen+int(length)])
		d.off += total
		if d.badRun {
			d.logger.Info("frame stream resynchronized", "discarded_bytes", d.discarded)
		}
		d.badRun = false
		return payload, true
	}
}

// skip drops one byte; a warning is logged once per run of bad bytes
func (d *Decoder) skip(reason string) {
	if !d.badRun {
		d.logger.Warn("malformed frame, resynchronizing", "reason", reason)
		d.badRun = true
	}
	d.off++
	d.discarded++
}

func (d *Decoder) fill() error {
	// Сдвигаем непрочитанный хвост в начало буфера
	if d.off > 0 && (d.off >= len(d.buf) || d.off > compactMin) {
		n := copy(d.buf, d.buf[d.off:])
		d.buf = d.buf[:n]
		d.off = 0
	}
	if cap(d.buf)-len(d.buf) < readChunk {
		grown := make([]byte, len(d.buf), 2*cap(d.buf)+readChunk)
		copy(grown, d.buf)
		d.buf = grown
	}
	n, err := d.r.Read(d.buf[len(d.buf):cap(d.buf)])
	d.buf = d.buf[:len(d.buf)+n]
	if n > 0 {
		return nil
	}
	if err == nil {
		err = io.ErrNoProgress
	}
	return err
}
