package message

import (
	"github.com/juju/errors"
	"github.com/temoto/sirf/cursor"
	"github.com/temoto/sirf/fixed"
)

// MaxChannels is receiver tracking channel count.
const MaxChannels = 12

// SecondsPerWeek bounds GPS time of week.
const SecondsPerWeek = 604800

// ErrDomain means decoded or encoded value is outside its valid range.
var ErrDomain = errors.New("value out of range")

func domainf(format string, args ...interface{}) error {
	return errors.Annotatef(ErrDomain, format, args...)
}

func checkTOW(field string, tow float64) error {
	if !(tow >= 0 && tow < SecondsPerWeek) {
		return domainf("field=%s value=%v range=[0,%d)", field, tow, SecondsPerWeek)
	}
	return nil
}

func readTOW(r *cursor.Reader, field string) (float64, error) {
	tow := fixed.ReadU32(r, field, fixed.TOWScale)
	if err := r.Err(); err != nil {
		return 0, err
	}
	return tow, checkTOW(field, tow)
}

func writeTOW(w *cursor.Writer, field string, tow float64) error {
	if err := checkTOW(field, tow); err != nil {
		return err
	}
	raw, err := fixed.EncodeU32(tow, fixed.TOWScale)
	if err != nil {
		return errors.Annotatef(err, "field=%s", field)
	}
	if raw >= SecondsPerWeek*fixed.TOWScale {
		return domainf("field=%s value=%v rounds to end of week", field, tow)
	}
	w.U32(field, raw)
	return nil
}
