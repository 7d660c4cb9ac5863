// Package cursor provides sequential fixed-width readers and writers
// over in-memory payloads and byte sinks.
//
// Reader and Writer keep the first error and turn every later call into
// a no-op, so a decoder can read a whole layout and check Err() once.
package cursor

import (
	"encoding/binary"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/juju/errors"
)

var ErrUnexpectedEnd = errors.New("unexpected end of payload")

type ByteOrder uint8

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

func (o ByteOrder) binary() binary.ByteOrder {
	if o == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (o ByteOrder) String() string {
	if o == LittleEndian {
		return "little-endian"
	}
	return "big-endian"
}

// Reader is forward-only. A read that needs more bytes than remain
// consumes nothing and fails with ErrUnexpectedEnd.
type Reader struct {
	b     []byte
	pos   int
	order ByteOrder
	err   error
}

func NewReader(b []byte, order ByteOrder) *Reader {
	return &Reader{b: b, order: order}
}

func (r *Reader) SetOrder(o ByteOrder) { r.order = o }
func (r *Reader) Order() ByteOrder     { return r.order }

// Pos returns number of bytes consumed.
func (r *Reader) Pos() int { return r.pos }

// Len returns number of bytes remaining.
func (r *Reader) Len() int { return len(r.b) - r.pos }

func (r *Reader) Err() error { return r.err }

func (r *Reader) take(field string, n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Len() {
		r.err = errors.Annotatef(ErrUnexpectedEnd, "field=%s offset=%d need=%d have=%d", field, r.pos, n, r.Len())
		return nil
	}
	b := r.b[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) U8(field string) uint8 {
	b := r.take(field, 1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) I8(field string) int8 { return int8(r.U8(field)) }

func (r *Reader) U16(field string) uint16 {
	b := r.take(field, 2)
	if b == nil {
		return 0
	}
	return r.order.binary().Uint16(b)
}

func (r *Reader) I16(field string) int16 { return int16(r.U16(field)) }

func (r *Reader) U32(field string) uint32 {
	b := r.take(field, 4)
	if b == nil {
		return 0
	}
	return r.order.binary().Uint32(b)
}

func (r *Reader) I32(field string) int32 { return int32(r.U32(field)) }

func (r *Reader) U64(field string) uint64 {
	b := r.take(field, 8)
	if b == nil {
		return 0
	}
	return r.order.binary().Uint64(b)
}

func (r *Reader) I64(field string) int64 { return int64(r.U64(field)) }

func (r *Reader) F32(field string) float32 { return math.Float32frombits(r.U32(field)) }
func (r *Reader) F64(field string) float64 { return math.Float64frombits(r.U64(field)) }

// Bytes returns a copy of next n bytes.
func (r *Reader) Bytes(field string, n int) []byte {
	b := r.take(field, n)
	if r.err != nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (r *Reader) Skip(field string, n int) { r.take(field, n) }

// Rest returns a copy of all remaining bytes, possibly empty.
func (r *Reader) Rest() []byte {
	if r.err != nil {
		return nil
	}
	return r.Bytes("rest", r.Len())
}

// RestString decodes remaining bytes as UTF-8.
// Invalid sequences are replaced with U+FFFD.
func (r *Reader) RestString() string {
	b := r.Rest()
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
