// Package message decodes and encodes SiRF binary message payloads.
//
// Payload byte 0 is message id, the rest is body with fixed per-id layout.
// All multi-byte fields are big-endian.
package message

import (
	"bytes"
	"fmt"
	"io"

	"github.com/juju/errors"
	"github.com/temoto/sirf/cursor"
)

type ID uint8

const (
	IDNavData      ID = 0x02
	IDTrackerData  ID = 0x04
	IDClockStatus  ID = 0x07
	IDSubframeData ID = 0x08
	IDSVState      ID = 0x1e
	IDPowerMgmt    ID = 0x35
	IDASCIIData    ID = 0xff
)

func (id ID) String() string {
	switch id {
	case IDNavData:
		return "nav_data"
	case IDTrackerData:
		return "tracker_data"
	case IDClockStatus:
		return "clock_status"
	case IDSubframeData:
		return "subframe_data"
	case IDSVState:
		return "sv_state"
	case IDPowerMgmt:
		return "power_mgmt"
	case IDASCIIData:
		return "ascii_data"
	default:
		return fmt.Sprintf("unknown(%02x)", uint8(id))
	}
}

// Message is a decoded payload.
// Encode writes body without id. Invalid field values are returned as error,
// sink errors are kept in w.
type Message interface {
	ID() ID
	Encode(w *cursor.Writer) error
}

// BuildFunc reads message body, id is already consumed.
type BuildFunc func(r *cursor.Reader) (Message, error)

// Marshal returns complete payload: id and body.
func Marshal(m Message) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 64))
	if err := WriteTo(buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func WriteTo(w io.Writer, m Message) error {
	cw := cursor.NewWriter(w, cursor.BigEndian)
	cw.U8("id", uint8(m.ID()))
	if err := m.Encode(cw); err != nil {
		return errors.Annotatef(err, "encode id=%s", m.ID())
	}
	return errors.Trace(cw.Err())
}

// Unknown keeps payload of message without registered decoder.
type Unknown struct {
	MessageID ID     `json:"id"`
	Body      []byte `json:"body"`
}

func (u *Unknown) ID() ID { return u.MessageID }

func (u *Unknown) Encode(w *cursor.Writer) error {
	w.Bytes("body", u.Body)
	return nil
}

func (u *Unknown) String() string { return fmt.Sprintf("unknown id=%02x body=%x", uint8(u.MessageID), u.Body) }

func IsUnknown(m Message) bool {
	_, ok := m.(*Unknown)
	return ok
}
