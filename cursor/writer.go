package cursor

import (
	"io"
	"math"

	"github.com/juju/errors"
)

type Writer struct {
	w     io.Writer
	n     int
	order ByteOrder
	err   error
	buf   [8]byte
}

func NewWriter(w io.Writer, order ByteOrder) *Writer {
	return &Writer{w: w, order: order}
}

func (w *Writer) SetOrder(o ByteOrder) { w.order = o }

// N returns number of bytes produced.
func (w *Writer) N() int { return w.n }

func (w *Writer) Err() error { return w.err }

func (w *Writer) put(field string, b []byte) {
	if w.err != nil {
		return
	}
	for len(b) > 0 {
		n, err := w.w.Write(b)
		w.n += n
		if err != nil {
			w.err = errors.Annotatef(err, "write field=%s", field)
			return
		}
		if n == 0 {
			w.err = errors.Annotatef(io.ErrShortWrite, "write field=%s", field)
			return
		}
		b = b[n:]
	}
}

func (w *Writer) U8(field string, v uint8) {
	w.buf[0] = v
	w.put(field, w.buf[:1])
}

func (w *Writer) I8(field string, v int8) { w.U8(field, uint8(v)) }

func (w *Writer) U16(field string, v uint16) {
	w.order.binary().PutUint16(w.buf[:2], v)
	w.put(field, w.buf[:2])
}

func (w *Writer) I16(field string, v int16) { w.U16(field, uint16(v)) }

func (w *Writer) U32(field string, v uint32) {
	w.order.binary().PutUint32(w.buf[:4], v)
	w.put(field, w.buf[:4])
}

func (w *Writer) I32(field string, v int32) { w.U32(field, uint32(v)) }

func (w *Writer) U64(field string, v uint64) {
	w.order.binary().PutUint64(w.buf[:8], v)
	w.put(field, w.buf[:8])
}

func (w *Writer) I64(field string, v int64) { w.U64(field, uint64(v)) }

func (w *Writer) F32(field string, v float32) { w.U32(field, math.Float32bits(v)) }
func (w *Writer) F64(field string, v float64) { w.U64(field, math.Float64bits(v)) }

func (w *Writer) Bytes(field string, b []byte) { w.put(field, b) }

func (w *Writer) String(field string, s string) { w.put(field, []byte(s)) }
