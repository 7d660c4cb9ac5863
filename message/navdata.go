package message

import (
	"fmt"

	"github.com/temoto/sirf/cursor"
	"github.com/temoto/sirf/fixed"
)

const (
	velocityScale = 8.0
	dopScale      = 5.0
)

type PositionMode uint8

const (
	PositionNone PositionMode = iota
	PositionKF1SV
	PositionKF2SV
	PositionKF3SV
	PositionKF4SV
	Position2DLSQ
	Position3DLSQ
	PositionDR
)

func (p PositionMode) String() string {
	switch p {
	case PositionNone:
		return "none"
	case PositionKF1SV:
		return "1sv-kf"
	case PositionKF2SV:
		return "2sv-kf"
	case PositionKF3SV:
		return "3sv-kf"
	case PositionKF4SV:
		return "4sv-kf"
	case Position2DLSQ:
		return "2d-lsq"
	case Position3DLSQ:
		return "3d-lsq"
	case PositionDR:
		return "dr"
	}
	return "invalid"
}

// NavMode1 bits: 0-2 position mode, 3 trickle power, 4-5 altitude hold,
// 6 DOP mask exceeded, 7 DGPS corrections applied.
type NavMode1 uint8

func (m NavMode1) Position() PositionMode { return PositionMode(m & 0x07) }
func (m NavMode1) TricklePower() bool     { return m&0x08 != 0 }
func (m NavMode1) AltitudeHold() uint8    { return uint8(m>>4) & 0x03 }
func (m NavMode1) DOPExceeded() bool      { return m&0x40 != 0 }
func (m NavMode1) DGPS() bool             { return m&0x80 != 0 }

type NavMode2 uint8

func (m NavMode2) Validated() bool { return m&0x02 != 0 }
func (m NavMode2) DRTimeout() bool { return m&0x04 != 0 }
func (m NavMode2) Edited() bool    { return m&0x08 != 0 }

// NavData is measured navigation data (id 0x02).
// Position is ECEF meters, velocity ECEF m/s with 1/8 resolution.
type NavData struct {
	X     int32              `json:"x"`
	Y     int32              `json:"y"`
	Z     int32              `json:"z"`
	VX    float64            `json:"vx"`
	VY    float64            `json:"vy"`
	VZ    float64            `json:"vz"`
	Mode1 NavMode1           `json:"mode1"`
	HDOP  float64            `json:"hdop"`
	Mode2 NavMode2           `json:"mode2"`
	Week  uint16             `json:"week"`
	TOW   float64            `json:"tow"`
	SVs   uint8              `json:"svs"`
	PRN   [MaxChannels]uint8 `json:"prn"`
}

func (*NavData) ID() ID { return IDNavData }

func buildNavData(r *cursor.Reader) (Message, error) {
	m := &NavData{}
	m.X = r.I32("x")
	m.Y = r.I32("y")
	m.Z = r.I32("z")
	m.VX = fixed.ReadI16(r, "vx", velocityScale)
	m.VY = fixed.ReadI16(r, "vy", velocityScale)
	m.VZ = fixed.ReadI16(r, "vz", velocityScale)
	m.Mode1 = NavMode1(r.U8("mode1"))
	m.HDOP = fixed.ReadU8(r, "hdop", dopScale)
	m.Mode2 = NavMode2(r.U8("mode2"))
	m.Week = r.U16("week")
	var err error
	if m.TOW, err = readTOW(r, "tow"); err != nil {
		return nil, err
	}
	m.SVs = r.U8("svs")
	for i := range m.PRN {
		m.PRN[i] = r.U8(fmt.Sprintf("prn[%d]", i))
	}
	if err = r.Err(); err != nil {
		return nil, err
	}
	if m.SVs > MaxChannels {
		return nil, domainf("field=svs value=%d max=%d", m.SVs, MaxChannels)
	}
	return m, nil
}

func (m *NavData) Encode(w *cursor.Writer) error {
	if m.SVs > MaxChannels {
		return domainf("field=svs value=%d max=%d", m.SVs, MaxChannels)
	}
	w.I32("x", m.X)
	w.I32("y", m.Y)
	w.I32("z", m.Z)
	for _, v := range []struct {
		field string
		value float64
	}{{"vx", m.VX}, {"vy", m.VY}, {"vz", m.VZ}} {
		if err := fixed.WriteI16(w, v.field, v.value, velocityScale); err != nil {
			return err
		}
	}
	w.U8("mode1", uint8(m.Mode1))
	if err := fixed.WriteU8(w, "hdop", m.HDOP, dopScale); err != nil {
		return err
	}
	w.U8("mode2", uint8(m.Mode2))
	w.U16("week", m.Week)
	if err := writeTOW(w, "tow", m.TOW); err != nil {
		return err
	}
	w.U8("svs", m.SVs)
	w.Bytes("prn", m.PRN[:])
	return nil
}

func (m *NavData) String() string {
	return fmt.Sprintf("nav_data ecef=(%d,%d,%d) vel=(%.3f,%.3f,%.3f) mode=%s hdop=%.1f week=%d tow=%.2f svs=%d",
		m.X, m.Y, m.Z, m.VX, m.VY, m.VZ, m.Mode1.Position(), m.HDOP, m.Week, m.TOW, m.SVs)
}
