// Package fixed encodes physical quantities as scaled integers:
// wire = round(value * scale), value = wire / scale.
// Rounding is half away from zero. Values that do not fit the wire width
// are rejected with ErrOverflow, never wrapped.
package fixed

import (
	"math"

	"github.com/juju/errors"
	"github.com/temoto/sirf/cursor"
)

// TOWScale gives GPS time of week 10ms resolution.
const TOWScale = 100.0

var ErrOverflow = errors.New("scaled value overflows wire width")

func scale(v, scale float64, min, max float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Annotatef(ErrOverflow, "value=%v", v)
	}
	s := math.Round(v * scale)
	if s < min || s > max {
		return 0, errors.Annotatef(ErrOverflow, "value=%v scale=%v scaled=%v range=[%v,%v]", v, scale, s, min, max)
	}
	return s, nil
}

func EncodeU32(v, s float64) (uint32, error) {
	x, err := scale(v, s, 0, math.MaxUint32)
	return uint32(x), err
}

func DecodeU32(raw uint32, s float64) float64 { return float64(raw) / s }

func EncodeI16(v, s float64) (int16, error) {
	x, err := scale(v, s, math.MinInt16, math.MaxInt16)
	return int16(x), err
}

func DecodeI16(raw int16, s float64) float64 { return float64(raw) / s }

func EncodeU8(v, s float64) (uint8, error) {
	x, err := scale(v, s, 0, math.MaxUint8)
	return uint8(x), err
}

func DecodeU8(raw uint8, s float64) float64 { return float64(raw) / s }

func ReadU32(r *cursor.Reader, field string, s float64) float64 { return DecodeU32(r.U32(field), s) }
func ReadI16(r *cursor.Reader, field string, s float64) float64 { return DecodeI16(r.I16(field), s) }
func ReadU8(r *cursor.Reader, field string, s float64) float64  { return DecodeU8(r.U8(field), s) }

func WriteU32(w *cursor.Writer, field string, v, s float64) error {
	x, err := EncodeU32(v, s)
	if err != nil {
		return errors.Annotatef(err, "field=%s", field)
	}
	w.U32(field, x)
	return nil
}

func WriteI16(w *cursor.Writer, field string, v, s float64) error {
	x, err := EncodeI16(v, s)
	if err != nil {
		return errors.Annotatef(err, "field=%s", field)
	}
	w.I16(field, x)
	return nil
}

func WriteU8(w *cursor.Writer, field string, v, s float64) error {
	x, err := EncodeU8(v, s)
	if err != nil {
		return errors.Annotatef(err, "field=%s", field)
	}
	w.U8(field, x)
	return nil
}
