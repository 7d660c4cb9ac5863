// Package frame implements SiRF binary transport envelope.
//
// Frame binary representation: field:size in bytes
// start:2(a0a2) length:2 payload:length checksum:2 end:2(b0b3)
// Length is 15 bit, top bit is reserved and must be zero.
// Checksum is 15 bit sum of payload bytes.
// First payload byte is message id.
package frame

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/juju/errors"
	"github.com/temoto/sirf/crc"
	"github.com/temoto/sirf/cursor"
)

const (
	Start = uint16(0xa0a2)
	End   = uint16(0xb0b3)

	HeaderSize  = 2 /*start*/ + 2 /*length*/
	TrailerSize = 2 /*checksum*/ + 2 /*end*/
	Overhead    = HeaderSize + TrailerSize

	lengthReserved = uint16(0x8000)
	MaxPayload     = 0x7fff
)

var (
	startBytes = []byte{0xa0, 0xa2}

	ErrInvalidLength  = errors.New("frame length is invalid")
	ErrInvalidStart   = errors.New("frame start marker is invalid")
	ErrInvalidTrailer = errors.New("frame end marker is invalid")
)

type ChecksumError struct {
	Expected uint16 // transmitted
	Actual   uint16 // computed over received payload
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("frame checksum=%04x actual=%04x", e.Expected, e.Actual)
}

// IsFrameError reports error local to one frame, stream may continue.
func IsFrameError(err error) bool {
	switch e := errors.Cause(err).(type) {
	case *ChecksumError:
		return true
	default:
		return e == ErrInvalidLength || e == ErrInvalidTrailer || e == ErrInvalidStart
	}
}

// Frame is validated payload without envelope.
type Frame struct {
	Payload []byte
}

func New(id byte, body []byte) Frame {
	p := make([]byte, 1+len(body))
	p[0] = id
	copy(p[1:], body)
	return Frame{Payload: p}
}

// ID returns message id. Frame must not be empty.
func (f Frame) ID() byte { return f.Payload[0] }

// Body returns payload after message id.
func (f Frame) Body() []byte { return f.Payload[1:] }

func (f Frame) Checksum() uint16 { return crc.Sum15(0, f.Payload) }

func (f Frame) Size() int { return Overhead + len(f.Payload) }

func (f Frame) Equal(f2 Frame) bool { return bytes.Equal(f.Payload, f2.Payload) }

func (f Frame) String() string {
	if len(f.Payload) == 0 {
		return "(empty)"
	}
	return fmt.Sprintf("(id=%02x payload=(%d)%s)", f.ID(), len(f.Payload), hex.EncodeToString(f.Payload))
}

func (f Frame) validate() error {
	if len(f.Payload) == 0 || len(f.Payload) > MaxPayload {
		return errors.Annotatef(ErrInvalidLength, "length=%d", len(f.Payload))
	}
	return nil
}

// Marshal returns canonical envelope with freshly computed checksum.
func (f Frame) Marshal() ([]byte, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(make([]byte, 0, f.Size()))
	w := cursor.NewWriter(buf, cursor.BigEndian)
	f.write(w)
	return buf.Bytes(), w.Err()
}

func (f Frame) write(w *cursor.Writer) {
	w.U16("start", Start)
	w.U16("length", uint16(len(f.Payload)))
	w.Bytes("payload", f.Payload)
	w.U16("checksum", f.Checksum())
	w.U16("end", End)
}

// Parse decodes exactly one frame which must start at b[0].
// Unlike Scan, noise before start marker is an error.
func Parse(b []byte) (Frame, error) {
	if len(b) >= 2 && !bytes.HasPrefix(b, startBytes) {
		return Frame{}, errors.Annotatef(ErrInvalidStart, "input=%x", b[:2])
	}
	f, _, err := ScanFinal(b)
	return f, err
}
