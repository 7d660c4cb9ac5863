package message

import (
	"fmt"
	"math"
	"time"

	"github.com/temoto/sirf/cursor"
)

// ClockStatus is receiver clock status (id 0x07).
type ClockStatus struct {
	Week          uint16        `json:"week"`
	TOW           float64       `json:"tow"`
	SVs           uint8         `json:"svs"`
	Drift         uint32        `json:"drift_hz"`
	Bias          time.Duration `json:"bias"`
	EstimatedTime time.Duration `json:"estimated_time"`
}

func (*ClockStatus) ID() ID { return IDClockStatus }

func buildClockStatus(r *cursor.Reader) (Message, error) {
	m := &ClockStatus{}
	m.Week = r.U16("week")
	var err error
	if m.TOW, err = readTOW(r, "tow"); err != nil {
		return nil, err
	}
	m.SVs = r.U8("svs")
	m.Drift = r.U32("drift")
	m.Bias = time.Duration(r.U32("bias")) * time.Nanosecond
	m.EstimatedTime = time.Duration(r.U32("estimated_time")) * time.Millisecond
	if err = r.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func durationU32(field string, d, unit time.Duration) (uint32, error) {
	if d < 0 || d/unit > math.MaxUint32 {
		return 0, domainf("field=%s value=%s", field, d)
	}
	return uint32(d / unit), nil
}

func (m *ClockStatus) Encode(w *cursor.Writer) error {
	bias, err := durationU32("bias", m.Bias, time.Nanosecond)
	if err != nil {
		return err
	}
	est, err := durationU32("estimated_time", m.EstimatedTime, time.Millisecond)
	if err != nil {
		return err
	}
	w.U16("week", m.Week)
	if err = writeTOW(w, "tow", m.TOW); err != nil {
		return err
	}
	w.U8("svs", m.SVs)
	w.U32("drift", m.Drift)
	w.U32("bias", bias)
	w.U32("estimated_time", est)
	return nil
}

func (m *ClockStatus) String() string {
	return fmt.Sprintf("clock_status week=%d tow=%.2f svs=%d drift=%dHz bias=%s estimated=%s",
		m.Week, m.TOW, m.SVs, m.Drift, m.Bias, m.EstimatedTime)
}
