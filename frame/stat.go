package frame

// Values are read and modified atomically, but not consistently.

import (
	"expvar"
	"fmt"

	"github.com/juju/errors"
)

type Stat struct {
	Frames         expvar.Int
	PayloadSize    expvar.Int
	Skipped        expvar.Int // noise bytes before start marker
	ChecksumErrors expvar.Int
	FramingErrors  expvar.Int
}

func (s *Stat) Register(f Frame) {
	s.Frames.Add(1)
	s.PayloadSize.Add(int64(len(f.Payload)))
}

func (s *Stat) RegisterError(err error) {
	if _, ok := errors.Cause(err).(*ChecksumError); ok {
		s.ChecksumErrors.Add(1)
	} else {
		s.FramingErrors.Add(1)
	}
}

func (s *Stat) String() string {
	return fmt.Sprintf(`{"frames":%d,"payload.size":%d,"skipped":%d,"error.checksum":%d,"error.framing":%d}`,
		s.Frames.Value(), s.PayloadSize.Value(), s.Skipped.Value(),
		s.ChecksumErrors.Value(), s.FramingErrors.Value())
}
