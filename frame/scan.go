package frame

import (
	"bytes"

	"github.com/juju/errors"
	"github.com/temoto/sirf/crc"
	"github.com/temoto/sirf/cursor"
)

type State uint8

const (
	StateSeekStart State = iota
	StateReadLength
	StateReadPayload
	StateReadChecksum
	StateReadEnd
	StateEmit
)

func (s State) String() string {
	switch s {
	case StateSeekStart:
		return "seek_start"
	case StateReadLength:
		return "read_length"
	case StateReadPayload:
		return "read_payload"
	case StateReadChecksum:
		return "read_checksum"
	case StateReadEnd:
		return "read_end"
	case StateEmit:
		return "emit"
	default:
		return "invalid"
	}
}

// Scan finds and validates first frame in b.
// It returns number of bytes caller must drop from b before next call,
// on success and on error alike.
//
// Bytes before start marker are noise and dropped silently.
// Incomplete input returns cursor.ErrUnexpectedEnd, n covers only noise,
// call again with more bytes appended.
// On invalid frame n points right after rejected start marker
// or after whole frame if only checksum was wrong.
func Scan(b []byte) (Frame, int, error) {
	s := scan(b, MaxPayload, false)
	return s.f, s.n, s.err
}

// ScanFinal is Scan for last chunk of input, no more bytes will follow.
// Frame which cannot complete within b is rejected with ErrInvalidLength
// when another start marker follows it, so scanning resumes there.
// Trailing noise is dropped entirely.
// cursor.ErrUnexpectedEnd means b holds no more complete frames.
func ScanFinal(b []byte) (Frame, int, error) {
	s := scan(b, MaxPayload, true)
	return s.f, s.n, s.err
}

type scanResult struct {
	f     Frame
	err   error
	n     int // bytes to drop
	skip  int // noise before start marker
	state State
}

func scan(b []byte, max uint16, final bool) (s scanResult) {
	s.state = StateSeekStart
	start := bytes.Index(b, startBytes)
	if start < 0 {
		// keep possible first half of start marker
		s.n = len(b)
		if !final && s.n > 0 && b[s.n-1] == startBytes[0] {
			s.n--
		}
		s.skip = s.n
		s.err = errors.Annotatef(cursor.ErrUnexpectedEnd, "state=%s", s.state)
		return s
	}
	s.skip = start
	s.n = start
	resync := start + len(startBytes)
	r := cursor.NewReader(b[resync:], cursor.BigEndian)

	s.state = StateReadLength
	length := r.U16("length")
	if err := r.Err(); err != nil {
		s.err = errors.Annotatef(err, "state=%s", s.state)
		return s
	}
	if length&lengthReserved != 0 || length == 0 || length > max {
		s.n = resync
		s.err = errors.Annotatef(ErrInvalidLength, "state=%s length=%04x max=%d", s.state, length, max)
		return s
	}

	s.state = StateReadPayload
	payload := r.Bytes("payload", int(length))
	s.state = StateReadChecksum
	sum := r.U16("checksum")
	s.state = StateReadEnd
	end := r.U16("end")
	if err := r.Err(); err != nil {
		if final && bytes.Contains(b[resync:], startBytes) {
			// length can't be right, there is no more input
			s.n = resync
			s.err = errors.Annotatef(ErrInvalidLength, "state=%s length=%d have=%d", s.state, length, len(b)-resync)
			return s
		}
		// incomplete frame, wait for more input
		s.err = errors.Annotatef(err, "length=%d", length)
		return s
	}

	s.state = StateReadChecksum
	if actual := crc.Sum15(0, payload); actual != sum {
		s.n = resync
		if end == End {
			s.n = resync + r.Pos()
		}
		s.err = &ChecksumError{Expected: sum, Actual: actual}
		return s
	}
	s.state = StateReadEnd
	if end != End {
		s.n = resync
		s.err = errors.Annotatef(ErrInvalidTrailer, "state=%s end=%04x", s.state, end)
		return s
	}

	s.state = StateEmit
	s.n = resync + r.Pos()
	s.f = Frame{Payload: payload}
	return s
}
