package message

import (
	"fmt"

	"github.com/temoto/sirf/cursor"
)

const (
	subframeWords = 10
	tlmPreamble   = 0x8b
)

// SubframeData is 50 bps navigation data (id 0x08).
// Words hold 30 bit GPS words, parity included, right aligned.
type SubframeData struct {
	Channel uint8                 `json:"channel"`
	SV      uint8                 `json:"sv"`
	Words   [subframeWords]uint32 `json:"words"`
}

func (*SubframeData) ID() ID { return IDSubframeData }

// Preamble reports TLM word starts with 10001011.
func (m *SubframeData) Preamble() bool { return (m.Words[0]>>22)&0xff == tlmPreamble }

// SubframeID from HOW word, 1..5 on valid data.
func (m *SubframeData) SubframeID() uint8 { return uint8(m.Words[1]>>8) & 0x07 }

func buildSubframeData(r *cursor.Reader) (Message, error) {
	m := &SubframeData{}
	m.Channel = r.U8("channel")
	m.SV = r.U8("sv")
	for i := range m.Words {
		m.Words[i] = r.U32(fmt.Sprintf("word[%d]", i))
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if m.Channel >= MaxChannels {
		return nil, domainf("field=channel value=%d max=%d", m.Channel, MaxChannels-1)
	}
	return m, nil
}

func (m *SubframeData) Encode(w *cursor.Writer) error {
	if m.Channel >= MaxChannels {
		return domainf("field=channel value=%d max=%d", m.Channel, MaxChannels-1)
	}
	w.U8("channel", m.Channel)
	w.U8("sv", m.SV)
	for _, x := range m.Words {
		w.U32("word", x)
	}
	return nil
}

func (m *SubframeData) String() string {
	return fmt.Sprintf("subframe_data ch=%d sv=%d subframe=%d preamble=%t", m.Channel, m.SV, m.SubframeID(), m.Preamble())
}
