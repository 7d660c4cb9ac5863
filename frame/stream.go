package frame

import (
	"bufio"
	"io"

	"github.com/juju/errors"
	"github.com/temoto/sirf/cursor"
	"github.com/temoto/sirf/helpers"
)

// Decoder reads frames from byte stream.
// After any frame error next Read continues after resynchronization.
type Decoder struct {
	r   *bufio.Reader
	max uint16

	Stat Stat
}

// NewDecoder limits payload to max bytes, 0 means MaxPayload.
func NewDecoder(r io.Reader, max uint16) *Decoder {
	d := &Decoder{}
	d.Attach(r, max)
	return d
}

func (d *Decoder) Attach(r io.Reader, max uint16) {
	if max == 0 || max > MaxPayload {
		max = MaxPayload
	}
	d.max = max
	d.r = bufio.NewReaderSize(r, int(max)+Overhead)
}

// Read returns io.EOF only at clean frame boundary.
// Frame errors (length, checksum, trailer) are returned as is,
// the offending bytes are already consumed.
func (d *Decoder) Read() (Frame, error) {
	need := HeaderSize
	for {
		b, perr := d.r.Peek(need)
		if perr == nil && d.r.Buffered() > need {
			b, _ = d.r.Peek(d.r.Buffered())
		}
		s := scan(b, d.max, perr == io.EOF)
		if s.skip > 0 {
			d.Stat.Skipped.Add(int64(s.skip))
		}
		if _, err := d.r.Discard(s.n); err != nil {
			return Frame{}, errors.Annotate(err, "discard")
		}
		if s.err == nil {
			d.Stat.Register(s.f)
			return s.f, nil
		}
		if errors.Cause(s.err) != cursor.ErrUnexpectedEnd {
			d.Stat.RegisterError(s.err)
			return Frame{}, s.err
		}

		// incomplete
		switch perr {
		case nil, bufio.ErrBufferFull:
		case io.EOF:
			// final scan dropped trailing noise, what remains is one truncated frame
			rest := d.r.Buffered()
			if rest == 0 {
				return Frame{}, io.EOF
			}
			_, _ = d.r.Discard(rest)
			return Frame{}, errors.Annotatef(io.ErrUnexpectedEOF, "frame truncated size=%d", rest)
		default:
			return Frame{}, errors.Annotate(perr, "frame read")
		}
		need = len(b) - s.n + 1
		if need > d.r.Size() {
			need = d.r.Size()
		}
	}
}

type Encoder struct {
	w io.Writer

	Stat Stat
}

func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: w} }

func (e *Encoder) Encode(f Frame) error {
	b, err := f.Marshal()
	if err != nil {
		return err
	}
	if err = helpers.WriteAll(e.w, b); err != nil {
		return errors.Annotate(err, "frame write")
	}
	e.Stat.Register(f)
	return nil
}
