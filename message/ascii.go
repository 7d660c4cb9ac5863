package message

import (
	"strconv"

	"github.com/temoto/sirf/cursor"
)

// ASCIIData is firmware debug text (id 0xff).
// Invalid UTF-8 is replaced with U+FFFD, Encode writes Text as is.
type ASCIIData struct {
	Text string `json:"text"`
}

func (*ASCIIData) ID() ID { return IDASCIIData }

func buildASCIIData(r *cursor.Reader) (Message, error) {
	m := &ASCIIData{Text: r.RestString()}
	return m, r.Err()
}

func (m *ASCIIData) Encode(w *cursor.Writer) error {
	w.String("text", m.Text)
	return nil
}

func (m *ASCIIData) String() string { return "ascii_data " + strconv.Quote(m.Text) }
