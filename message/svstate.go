package message

import (
	"fmt"

	"github.com/temoto/sirf/cursor"
)

type EphemerisSource uint8

const (
	EphemerisNone EphemerisSource = iota
	EphemerisBroadcast
	EphemerisAlmanac
)

func (e EphemerisSource) String() string {
	switch e {
	case EphemerisNone:
		return "none"
	case EphemerisBroadcast:
		return "ephemeris"
	case EphemerisAlmanac:
		return "almanac"
	}
	return fmt.Sprintf("invalid(%d)", uint8(e))
}

// SVState is satellite state in ECEF (id 0x1e).
type SVState struct {
	SV         uint8           `json:"sv"`
	Time       float64         `json:"time"`
	Pos        [3]float64      `json:"pos"`
	Vel        [3]float64      `json:"vel"`
	ClockBias  float64         `json:"clock_bias"`
	ClockDrift float32         `json:"clock_drift"`
	Ephemeris  EphemerisSource `json:"ephemeris"`
	Reserved   [2]float32      `json:"-"`
	IonoDelay  float32         `json:"iono_delay"`
}

func (*SVState) ID() ID { return IDSVState }

func buildSVState(r *cursor.Reader) (Message, error) {
	m := &SVState{}
	m.SV = r.U8("sv")
	m.Time = r.F64("time")
	for i := range m.Pos {
		m.Pos[i] = r.F64("pos")
	}
	for i := range m.Vel {
		m.Vel[i] = r.F64("vel")
	}
	m.ClockBias = r.F64("clock_bias")
	m.ClockDrift = r.F32("clock_drift")
	m.Ephemeris = EphemerisSource(r.U8("ephemeris"))
	m.Reserved[0] = r.F32("reserved")
	m.Reserved[1] = r.F32("reserved")
	m.IonoDelay = r.F32("iono_delay")
	if err := r.Err(); err != nil {
		return nil, err
	}
	if m.Ephemeris > EphemerisAlmanac {
		return nil, domainf("field=ephemeris value=%d", m.Ephemeris)
	}
	return m, nil
}

func (m *SVState) Encode(w *cursor.Writer) error {
	if m.Ephemeris > EphemerisAlmanac {
		return domainf("field=ephemeris value=%d", m.Ephemeris)
	}
	w.U8("sv", m.SV)
	w.F64("time", m.Time)
	for _, x := range m.Pos {
		w.F64("pos", x)
	}
	for _, x := range m.Vel {
		w.F64("vel", x)
	}
	w.F64("clock_bias", m.ClockBias)
	w.F32("clock_drift", m.ClockDrift)
	w.U8("ephemeris", uint8(m.Ephemeris))
	w.F32("reserved", m.Reserved[0])
	w.F32("reserved", m.Reserved[1])
	w.F32("iono_delay", m.IonoDelay)
	return nil
}

func (m *SVState) String() string {
	return fmt.Sprintf("sv_state sv=%d time=%.3f pos=(%.1f,%.1f,%.1f) src=%s iono=%.2f",
		m.SV, m.Time, m.Pos[0], m.Pos[1], m.Pos[2], m.Ephemeris, m.IonoDelay)
}
