package frame

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"testing"
	"testing/iotest"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/sirf/cursor"
	"github.com/temoto/sirf/helpers"
)

const (
	hexASCII   = "a0a20002ff410140b0b3"
	hexPollVer = "a0a2000284000084b0b3"
)

func TestFrameMarshal(t *testing.T) {
	t.Parallel()
	cases := []struct {
		f      Frame
		expect string
	}{
		{New(0xff, []byte("A")), hexASCII},
		{New(0x84, []byte{0x00}), hexPollVer},
		{New(0x02, nil), "a0a20001020002b0b3"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.f.String(), func(t *testing.T) {
			b, err := c.f.Marshal()
			require.NoError(t, err)
			assert.Equal(t, c.expect, hex.EncodeToString(b))
			assert.Equal(t, c.f.Size(), len(b))
		})
	}
}

func TestFrameMarshalInvalid(t *testing.T) {
	t.Parallel()
	for _, f := range []Frame{{}, {Payload: make([]byte, MaxPayload+1)}} {
		_, err := f.Marshal()
		require.Error(t, err)
		assert.Equal(t, ErrInvalidLength, errors.Cause(err))
	}
}

func TestScan(t *testing.T) {
	t.Parallel()
	type Case struct {
		name      string
		input     string
		expect    string
		expectN   int
		expectErr error
	}
	cases := []Case{
		{"ascii", hexASCII, "ff41", 10, nil},
		{"poll-version", hexPollVer, "8400", 10, nil},
		{"noise", "0011a0" + hexASCII, "ff41", 13, nil},
		{"two-frames", hexASCII + hexPollVer, "ff41", 10, nil},
		{"empty", "", "", 0, cursor.ErrUnexpectedEnd},
		{"only-noise", "001122", "", 3, cursor.ErrUnexpectedEnd},
		{"noise-half-start", "1234a0", "", 2, cursor.ErrUnexpectedEnd},
		{"incomplete-length", "1234a0a200", "", 2, cursor.ErrUnexpectedEnd},
		{"incomplete-payload", "a0a20002ff", "", 0, cursor.ErrUnexpectedEnd},
		{"incomplete-end", "a0a20002ff410140b0", "", 0, cursor.ErrUnexpectedEnd},
		{"length-reserved", "a0a28002ff410140b0b3", "", 2, ErrInvalidLength},
		{"length-zero", "a0a200000000b0b3", "", 2, ErrInvalidLength},
		{"trailer", "a0a20002ff410140b0b4", "", 2, ErrInvalidTrailer},
	}
	helpers.RandUnix().Shuffle(len(cases), func(i int, j int) { cases[i], cases[j] = cases[j], cases[i] })
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			f, n, err := Scan(helpers.MustHex(c.input))
			assert.Equal(t, c.expectN, n)
			if c.expectErr != nil {
				require.Error(t, err)
				assert.Equal(t, c.expectErr, errors.Cause(err), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.expect, hex.EncodeToString(f.Payload))
		})
	}
}

func TestScanChecksum(t *testing.T) {
	t.Parallel()
	f, n, err := Scan(helpers.MustHex("a0a20002ff410141b0b3"))
	require.Error(t, err)
	assert.Nil(t, f.Payload)
	assert.Equal(t, 10, n)
	cerr, ok := errors.Cause(err).(*ChecksumError)
	require.True(t, ok, "error=%v", err)
	assert.Equal(t, uint16(0x0141), cerr.Expected)
	assert.Equal(t, uint16(0x0140), cerr.Actual)
	assert.Equal(t, "frame checksum=0141 actual=0140", err.Error())

	// both checksum and trailer broken, length is not trusted
	_, n, err = Scan(helpers.MustHex("a0a20002ff410141b0b4"))
	require.Error(t, err)
	assert.Equal(t, 2, n)
}

func TestScanPayloadCorruption(t *testing.T) {
	t.Parallel()
	payload := helpers.MustHex("0200000001fffffffe00000003fff80010001806140302005c00bc614e0801020304050607080000000000")
	good, err := Frame{Payload: payload}.Marshal()
	require.NoError(t, err)
	for i := 0; i < len(payload); i++ {
		for _, x := range []byte{0x01, 0x80, 0xff} {
			b := append([]byte(nil), good...)
			b[HeaderSize+i] ^= x
			_, _, err := Scan(b)
			require.Error(t, err, "corrupt byte=%d xor=%02x", i, x)
			_, ok := errors.Cause(err).(*ChecksumError)
			assert.True(t, ok, "corrupt byte=%d xor=%02x err=%v", i, x, err)
		}
	}
}

func TestParse(t *testing.T) {
	t.Parallel()
	f, err := Parse(helpers.MustHex(hexASCII))
	require.NoError(t, err)
	assert.Equal(t, byte(0xff), f.ID())
	assert.Equal(t, []byte("A"), f.Body())

	_, err = Parse(helpers.MustHex("00" + hexASCII))
	require.Error(t, err)
	assert.Equal(t, ErrInvalidStart, errors.Cause(err))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	rnd := helpers.RandUnix()
	for i := 0; i < 200; i++ {
		body := make([]byte, rnd.Intn(300))
		_, _ = rnd.Read(body)
		f := New(byte(rnd.Intn(256)), body)
		b, err := f.Marshal()
		require.NoError(t, err)
		f2, n, err := Scan(b)
		require.NoError(t, err)
		assert.Equal(t, len(b), n)
		assert.True(t, f.Equal(f2), "frame=%s decoded=%s", f, f2)
		b2, err := f2.Marshal()
		require.NoError(t, err)
		assert.Equal(t, b, b2)
	}
}

func TestScanResync(t *testing.T) {
	t.Parallel()
	const N = 5
	stream := helpers.MustHex("a0a20002ff410141b0b3") // corrupt checksum
	for i := 0; i < N; i++ {
		b, err := New(0xff, []byte{'0' + byte(i)}).Marshal()
		require.NoError(t, err)
		stream = append(stream, b...)
	}
	var good []Frame
	errs := 0
	for len(stream) > 0 {
		f, n, err := Scan(stream)
		stream = stream[n:]
		if errors.Cause(err) == cursor.ErrUnexpectedEnd {
			break
		}
		if err != nil {
			errs++
			continue
		}
		good = append(good, f)
	}
	assert.Equal(t, 1, errs)
	require.Len(t, good, N)
	for i, f := range good {
		assert.Equal(t, []byte{'0' + byte(i)}, f.Body())
	}
}

func TestScanFinal(t *testing.T) {
	t.Parallel()
	lengthUp := "a0a20102ff410140b0b3" // length 0002 damaged to 0102
	cases := []struct {
		name      string
		input     string
		expect    string
		expectN   int
		expectErr error
	}{
		{"ascii", hexASCII, "ff41", 10, nil},
		{"length-up-then-frame", lengthUp + hexASCII, "", 2, ErrInvalidLength},
		{"length-up-last", lengthUp, "", 0, cursor.ErrUnexpectedEnd},
		{"truncated-last", "00a0a20002ff", "", 1, cursor.ErrUnexpectedEnd},
		{"noise-half-start", "1234a0", "", 3, cursor.ErrUnexpectedEnd},
	}
	helpers.RandUnix().Shuffle(len(cases), func(i int, j int) { cases[i], cases[j] = cases[j], cases[i] })
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			f, n, err := ScanFinal(helpers.MustHex(c.input))
			assert.Equal(t, c.expectN, n)
			if c.expectErr != nil {
				require.Error(t, err)
				assert.Equal(t, c.expectErr, errors.Cause(err), err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.expect, hex.EncodeToString(f.Payload))
		})
	}

	// more input may still arrive, so Scan waits
	_, n, err := Scan(helpers.MustHex(lengthUp + hexASCII))
	assert.Equal(t, 0, n)
	assert.Equal(t, cursor.ErrUnexpectedEnd, errors.Cause(err))
}

// One damaged byte anywhere in envelope must cost at most that frame.
func TestResyncDamagedByte(t *testing.T) {
	t.Parallel()
	const N = 3
	var tail []byte
	for i := 0; i < N; i++ {
		b, err := New(0xff, []byte{'0' + byte(i)}).Marshal()
		require.NoError(t, err)
		tail = append(tail, b...)
	}
	type Case struct {
		offset     int
		value      byte
		expectErrs int
	}
	cases := make([]Case, 0, 16)
	good := helpers.MustHex(hexASCII)
	for i := range good {
		errs := 1
		if i < len(startBytes) {
			// start marker gone, whole frame is noise
			errs = 0
		}
		cases = append(cases, Case{i, good[i] ^ 0xff, errs})
	}
	cases = append(cases,
		Case{2, 0x01, 1}, // length 0102
		Case{2, 0x80, 1}, // reserved bit
		Case{3, 0x7f, 1},
		Case{3, 0x00, 1},
		Case{3, 0x01, 1},
	)
	helpers.RandUnix().Shuffle(len(cases), func(i int, j int) { cases[i], cases[j] = cases[j], cases[i] })
	for _, c := range cases {
		c := c
		damaged := append([]byte(nil), good...)
		damaged[c.offset] = c.value
		stream := append(damaged, tail...)
		name := hex.EncodeToString(damaged)

		t.Run(name+"/scan", func(t *testing.T) {
			b := append([]byte(nil), stream...)
			var frames []Frame
			errs := 0
			for len(b) > 0 {
				f, n, err := ScanFinal(b)
				b = b[n:]
				if errors.Cause(err) == cursor.ErrUnexpectedEnd {
					break
				}
				if err != nil {
					errs++
					continue
				}
				frames = append(frames, f)
			}
			assert.Empty(t, b)
			assert.Equal(t, c.expectErrs, errs)
			require.Len(t, frames, N)
			for i, f := range frames {
				assert.Equal(t, []byte{'0' + byte(i)}, f.Body())
			}
		})

		for _, slow := range []bool{false, true} {
			slow := slow
			t.Run(fmt.Sprintf("%s/decoder/slow=%t", name, slow), func(t *testing.T) {
				var r io.Reader = bytes.NewReader(stream)
				if slow {
					r = iotest.OneByteReader(r)
				}
				dec := NewDecoder(r, 0)
				var frames []Frame
				errs := 0
				for {
					f, err := dec.Read()
					if err == io.EOF {
						break
					}
					if err != nil {
						require.True(t, IsFrameError(err), "err=%v", err)
						errs++
						continue
					}
					frames = append(frames, f)
				}
				assert.Equal(t, c.expectErrs, errs)
				require.Len(t, frames, N)
				for i, f := range frames {
					assert.Equal(t, []byte{'0' + byte(i)}, f.Body())
				}
				assert.Equal(t, int64(N), dec.Stat.Frames.Value())
			})
		}
	}
}

func TestDecoderSequence(t *testing.T) {
	t.Parallel()
	input := "a0a20002ff410141b0b3" + // checksum
		hexASCII +
		"deadbeef" + // noise
		hexPollVer +
		"a0a20002ff410140b0b4" + // trailer
		"a0a20001020002b0b3"
	for _, slow := range []bool{false, true} {
		var r io.Reader = bytes.NewReader(helpers.MustHex(input))
		if slow {
			r = iotest.OneByteReader(r)
		}
		dec := NewDecoder(r, 0)

		_, err := dec.Read()
		_, ok := errors.Cause(err).(*ChecksumError)
		assert.True(t, ok, "slow=%t err=%v", slow, err)

		f, err := dec.Read()
		require.NoError(t, err)
		assert.Equal(t, "ff41", hex.EncodeToString(f.Payload))

		f, err = dec.Read()
		require.NoError(t, err)
		assert.Equal(t, "8400", hex.EncodeToString(f.Payload))

		_, err = dec.Read()
		assert.Equal(t, ErrInvalidTrailer, errors.Cause(err), "slow=%t err=%v", slow, err)

		f, err = dec.Read()
		require.NoError(t, err)
		assert.Equal(t, "02", hex.EncodeToString(f.Payload))

		_, err = dec.Read()
		assert.Equal(t, io.EOF, err)

		assert.Equal(t, int64(3), dec.Stat.Frames.Value())
		assert.Equal(t, int64(1), dec.Stat.ChecksumErrors.Value())
		assert.Equal(t, int64(1), dec.Stat.FramingErrors.Value())
		// deadbeef + rest of rejected frame after its start marker
		assert.Equal(t, int64(4+8), dec.Stat.Skipped.Value())
	}
}

func TestDecoderError(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		hex    string
		max    uint16
		expect error
	}{
		{"empty", "", 0, io.EOF},
		{"noise", "0102030405", 0, io.EOF},
		{"noise-half-start", "01a0", 0, io.EOF},
		{"short-header", "a0a200", 0, io.ErrUnexpectedEOF},
		{"short-body", "a0a2000284", 0, io.ErrUnexpectedEOF},
		{"over-limit", "a0a20005ff41414141014fb0b3", 4, ErrInvalidLength},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			dec := NewDecoder(bytes.NewReader(helpers.MustHex(c.hex)), c.max)
			f, err := dec.Read()
			require.Error(t, err)
			assert.Nil(t, f.Payload)
			assert.Equal(t, c.expect, errors.Cause(err), err.Error())
		})
	}
}

func TestEncoder(t *testing.T) {
	t.Parallel()
	buf := bytes.NewBuffer(nil)
	enc := NewEncoder(buf)
	require.NoError(t, enc.Encode(New(0xff, []byte("A"))))
	require.NoError(t, enc.Encode(New(0x84, []byte{0})))
	assert.Equal(t, hexASCII+hexPollVer, hex.EncodeToString(buf.Bytes()))
	assert.Equal(t, int64(2), enc.Stat.Frames.Value())
	assert.Equal(t, `{"frames":2,"payload.size":4,"skipped":0,"error.checksum":0,"error.framing":0}`, enc.Stat.String())

	dec := NewDecoder(buf, 0)
	f, err := dec.Read()
	require.NoError(t, err)
	assert.Equal(t, byte(0xff), f.ID())
	f, err = dec.Read()
	require.NoError(t, err)
	assert.Equal(t, byte(0x84), f.ID())
}

func TestIsFrameError(t *testing.T) {
	t.Parallel()
	assert.True(t, IsFrameError(errors.Annotate(ErrInvalidTrailer, "x")))
	assert.True(t, IsFrameError(&ChecksumError{Expected: 1, Actual: 2}))
	assert.False(t, IsFrameError(io.EOF))
	assert.False(t, IsFrameError(errors.Annotate(io.ErrUnexpectedEOF, "frame")))
	assert.False(t, IsFrameError(nil))
}
