package message

import (
	"fmt"
	"math"
	"strings"

	"github.com/temoto/sirf/cursor"
)

const (
	azimuthScale   = 1.5
	elevationScale = 0.5
	cnoSlots       = 10
)

// TrackState bits of a tracking channel.
type TrackState uint16

const (
	TrackAcquired TrackState = 1 << iota
	TrackCarrierPhase
	TrackBitSync
	TrackSubframeSync
	TrackCarrierPull
	TrackCodeLock
	TrackAcqFailed
	TrackEphemeris
)

func (s TrackState) Acquired() bool  { return s&TrackAcquired != 0 }
func (s TrackState) BitSync() bool   { return s&TrackBitSync != 0 }
func (s TrackState) CodeLock() bool  { return s&TrackCodeLock != 0 }
func (s TrackState) Ephemeris() bool { return s&TrackEphemeris != 0 }

// TrackChannel azimuth and elevation are degrees.
type TrackChannel struct {
	SV        uint8           `json:"sv"`
	Azimuth   float64         `json:"azimuth"`
	Elevation float64         `json:"elevation"`
	State     TrackState      `json:"state"`
	CNo       [cnoSlots]uint8 `json:"cno"`
}

// Mean C/N0 over 100ms slots, dB-Hz.
func (c *TrackChannel) MeanCNo() float64 {
	sum := 0
	for _, x := range c.CNo {
		sum += int(x)
	}
	return float64(sum) / cnoSlots
}

// TrackerData is measured tracker data (id 0x04).
type TrackerData struct {
	Week     int16          `json:"week"`
	TOW      float64        `json:"tow"`
	Channels []TrackChannel `json:"channels"`
}

func (*TrackerData) ID() ID { return IDTrackerData }

func buildTrackerData(r *cursor.Reader) (Message, error) {
	m := &TrackerData{}
	m.Week = r.I16("week")
	var err error
	if m.TOW, err = readTOW(r, "tow"); err != nil {
		return nil, err
	}
	n := int(r.U8("chans"))
	if err = r.Err(); err != nil {
		return nil, err
	}
	if n > MaxChannels {
		return nil, domainf("field=chans value=%d max=%d", n, MaxChannels)
	}
	m.Channels = make([]TrackChannel, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		c := &m.Channels[i]
		c.SV = r.U8(fmt.Sprintf("ch[%d].sv", i))
		c.Azimuth = float64(r.U8(fmt.Sprintf("ch[%d].azimuth", i))) * azimuthScale
		c.Elevation = float64(r.U8(fmt.Sprintf("ch[%d].elevation", i))) * elevationScale
		c.State = TrackState(r.U16(fmt.Sprintf("ch[%d].state", i)))
		copy(c.CNo[:], r.Bytes(fmt.Sprintf("ch[%d].cno", i), cnoSlots))
	}
	if err = r.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func encodeAngle(field string, deg, step float64) (uint8, error) {
	v := math.Round(deg / step)
	if math.IsNaN(v) || v < 0 || v > math.MaxUint8 {
		return 0, domainf("field=%s value=%v", field, deg)
	}
	return uint8(v), nil
}

func (m *TrackerData) Encode(w *cursor.Writer) error {
	if len(m.Channels) > MaxChannels {
		return domainf("field=chans value=%d max=%d", len(m.Channels), MaxChannels)
	}
	w.I16("week", m.Week)
	if err := writeTOW(w, "tow", m.TOW); err != nil {
		return err
	}
	w.U8("chans", uint8(len(m.Channels)))
	for i := range m.Channels {
		c := &m.Channels[i]
		az, err := encodeAngle(fmt.Sprintf("ch[%d].azimuth", i), c.Azimuth, azimuthScale)
		if err != nil {
			return err
		}
		el, err := encodeAngle(fmt.Sprintf("ch[%d].elevation", i), c.Elevation, elevationScale)
		if err != nil {
			return err
		}
		w.U8("sv", c.SV)
		w.U8("azimuth", az)
		w.U8("elevation", el)
		w.U16("state", uint16(c.State))
		w.Bytes("cno", c.CNo[:])
	}
	return nil
}

func (m *TrackerData) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tracker_data week=%d tow=%.2f chans=%d", m.Week, m.TOW, len(m.Channels))
	for _, c := range m.Channels {
		if c.SV == 0 {
			continue
		}
		fmt.Fprintf(&b, " sv%d(az=%.1f el=%.1f cno=%.1f state=%04x)", c.SV, c.Azimuth, c.Elevation, c.MeanCNo(), uint16(c.State))
	}
	return b.String()
}
