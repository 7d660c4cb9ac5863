package cursor

import (
	"bytes"
	"fmt"
	"math"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/sirf/helpers"
)

func TestReaderPrimitives(t *testing.T) {
	t.Parallel()
	input := helpers.MustHex("01" + "fe" + "0203" + "fffe" + "04050607" + "fffffffe" + "0102030405060708" + "3fc00000" + "4003000000000000")
	r := NewReader(input, BigEndian)
	assert.Equal(t, uint8(1), r.U8("u8"))
	assert.Equal(t, int8(-2), r.I8("i8"))
	assert.Equal(t, uint16(0x0203), r.U16("u16"))
	assert.Equal(t, int16(-2), r.I16("i16"))
	assert.Equal(t, uint32(0x04050607), r.U32("u32"))
	assert.Equal(t, int32(-2), r.I32("i32"))
	assert.Equal(t, uint64(0x0102030405060708), r.U64("u64"))
	assert.Equal(t, float32(1.5), r.F32("f32"))
	assert.Equal(t, 2.375, r.F64("f64"))
	require.NoError(t, r.Err())
	assert.Equal(t, len(input), r.Pos())
	assert.Equal(t, 0, r.Len())
}

func TestReaderLittleEndian(t *testing.T) {
	t.Parallel()
	r := NewReader(helpers.MustHex("0102"+"0102"), LittleEndian)
	assert.Equal(t, uint16(0x0201), r.U16("le"))
	r.SetOrder(BigEndian)
	assert.Equal(t, uint16(0x0102), r.U16("be"))
	assert.NoError(t, r.Err())
}

func TestReaderShort(t *testing.T) {
	t.Parallel()
	type Case struct {
		name   string
		input  string
		read   func(r *Reader)
		expect string
		pos    int
	}
	cases := []Case{
		{"empty-u8", "", func(r *Reader) { r.U8("id") }, "field=id offset=0 need=1 have=0", 0},
		{"u32-of-3", "010203", func(r *Reader) { r.U32("tow") }, "field=tow offset=0 need=4 have=3", 0},
		{"second-field", "0102", func(r *Reader) { r.U8("a"); r.U16("b") }, "field=b offset=1 need=2 have=1", 1},
		{"sticky", "010203", func(r *Reader) { r.U32("first"); r.U8("second") }, "field=first", 0},
		{"bytes", "0102", func(r *Reader) { r.Bytes("words", 3) }, "field=words offset=0 need=3 have=2", 0},
		{"f64", "01020304", func(r *Reader) { r.F64("time") }, "field=time", 0},
	}
	helpers.RandUnix().Shuffle(len(cases), func(i int, j int) { cases[i], cases[j] = cases[j], cases[i] })
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			r := NewReader(helpers.MustHex(c.input), BigEndian)
			c.read(r)
			err := r.Err()
			require.Error(t, err)
			assert.Equal(t, ErrUnexpectedEnd, errors.Cause(err))
			assert.Contains(t, err.Error(), c.expect)
			assert.Equal(t, c.pos, r.Pos(), "short read must not consume")
		})
	}
}

func TestReaderRest(t *testing.T) {
	t.Parallel()
	r := NewReader([]byte("xhello"), BigEndian)
	r.Skip("id", 1)
	rest := r.Rest()
	assert.Equal(t, []byte("hello"), rest)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, []byte{}, r.Rest())

	// copy, not alias
	input := []byte("ab")
	r = NewReader(input, BigEndian)
	b := r.Bytes("two", 2)
	input[0] = 'z'
	assert.Equal(t, []byte("ab"), b)
}

func TestReaderRestString(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input  []byte
		expect string
	}{
		{[]byte(""), ""},
		{[]byte("ASCII 1.0"), "ASCII 1.0"},
		{[]byte("a\xffb"), "a�b"},
		{[]byte("\xc3"), "�"},
		{[]byte("привет"), "привет"},
	}
	for _, c := range cases {
		c := c
		t.Run(fmt.Sprintf("%x", c.input), func(t *testing.T) {
			r := NewReader(c.input, BigEndian)
			assert.Equal(t, c.expect, r.RestString())
			assert.NoError(t, r.Err())
		})
	}
}

func TestWriter(t *testing.T) {
	t.Parallel()
	buf := bytes.NewBuffer(nil)
	w := NewWriter(buf, BigEndian)
	w.U8("u8", 1)
	w.I8("i8", -2)
	w.U16("u16", 0x0203)
	w.I16("i16", -2)
	w.U32("u32", 0x04050607)
	w.I32("i32", -2)
	w.U64("u64", 0x0102030405060708)
	w.F32("f32", 1.5)
	w.F64("f64", 2.375)
	w.Bytes("raw", []byte{0xaa})
	w.String("text", "ok")
	require.NoError(t, w.Err())
	expect := "01" + "fe" + "0203" + "fffe" + "04050607" + "fffffffe" + "0102030405060708" + "3fc00000" + "4003000000000000" + "aa" + "6f6b"
	assert.Equal(t, helpers.MustHex(expect), buf.Bytes())
	assert.Equal(t, buf.Len(), w.N())
}

func TestWriterReaderSymmetry(t *testing.T) {
	t.Parallel()
	for _, order := range []ByteOrder{BigEndian, LittleEndian} {
		buf := bytes.NewBuffer(nil)
		w := NewWriter(buf, order)
		w.I64("i64", math.MinInt64)
		w.F64("nan", math.Inf(-1))
		w.I16("i16", math.MinInt16)
		require.NoError(t, w.Err())
		r := NewReader(buf.Bytes(), order)
		assert.Equal(t, int64(math.MinInt64), r.I64("i64"), order.String())
		assert.True(t, math.IsInf(r.F64("nan"), -1), order.String())
		assert.Equal(t, int16(math.MinInt16), r.I16("i16"), order.String())
		assert.NoError(t, r.Err())
	}
}

type failWriter struct{ limit int }

func (fw *failWriter) Write(p []byte) (int, error) {
	if fw.limit <= 0 {
		return 0, errors.New("sink closed")
	}
	n := len(p)
	if n > fw.limit {
		n = fw.limit
	}
	fw.limit -= n
	return n, nil
}

func TestWriterSinkError(t *testing.T) {
	t.Parallel()
	w := NewWriter(&failWriter{limit: 3}, BigEndian)
	w.U16("week", 1)
	w.U32("tow", 2)
	w.U8("svs", 3)
	err := w.Err()
	require.Error(t, err)
	assert.Equal(t, "write field=tow: sink closed", err.Error())
	assert.Equal(t, 3, w.N())
}
