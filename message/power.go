package message

import (
	"fmt"

	"github.com/temoto/sirf/cursor"
	"github.com/temoto/sirf/fixed"
)

const (
	dutyCycleStep = 5
	dutyCycleMax  = 100
)

// PowerMgmt is power mode response (id 0x35).
// DutyCycle is percent, wire unit is 5%.
type PowerMgmt struct {
	Reserved  uint32  `json:"-"`
	Response  uint8   `json:"response"`
	DutyCycle float64 `json:"duty_cycle"`
	Reserved2 uint8   `json:"-"`
}

func (*PowerMgmt) ID() ID { return IDPowerMgmt }

func buildPowerMgmt(r *cursor.Reader) (Message, error) {
	m := &PowerMgmt{}
	m.Reserved = r.U32("reserved")
	m.Response = r.U8("response")
	duty := r.U8("duty_cycle")
	m.Reserved2 = r.U8("reserved2")
	if err := r.Err(); err != nil {
		return nil, err
	}
	if duty > dutyCycleMax/dutyCycleStep {
		return nil, domainf("field=duty_cycle value=%d max=%d", duty, dutyCycleMax/dutyCycleStep)
	}
	m.DutyCycle = float64(duty) * dutyCycleStep
	return m, nil
}

func (m *PowerMgmt) Encode(w *cursor.Writer) error {
	if !(m.DutyCycle >= 0 && m.DutyCycle <= dutyCycleMax) {
		return domainf("field=duty_cycle value=%v max=%d", m.DutyCycle, dutyCycleMax)
	}
	w.U32("reserved", m.Reserved)
	w.U8("response", m.Response)
	if err := fixed.WriteU8(w, "duty_cycle", m.DutyCycle, 1.0/dutyCycleStep); err != nil {
		return err
	}
	w.U8("reserved2", m.Reserved2)
	return nil
}

func (m *PowerMgmt) String() string {
	return fmt.Sprintf("power_mgmt response=%d duty=%.0f%%", m.Response, m.DutyCycle)
}
