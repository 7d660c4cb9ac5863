package message

import (
	"github.com/juju/errors"
	"github.com/temoto/sirf/cursor"
	"github.com/temoto/sirf/frame"
)

var (
	ErrDuplicate = errors.New("message id already registered")
	ErrEmpty     = errors.New("payload empty")
)

// Registry maps message id to decoder.
// Register only during construction, after that Registry is read-only
// and safe for concurrent Dispatch without locking.
type Registry struct {
	builders [256]BuildFunc
}

func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) Register(id ID, build BuildFunc) error {
	if build == nil {
		return errors.NotValidf("code error Register id=%s build=nil", id)
	}
	if r.builders[id] != nil {
		return errors.Annotatef(ErrDuplicate, "id=%s", id)
	}
	r.builders[id] = build
	return nil
}

func (r *Registry) MustRegister(id ID, build BuildFunc) {
	if err := r.Register(id, build); err != nil {
		panic(errors.ErrorStack(err))
	}
}

func (r *Registry) Registered(id ID) bool { return r.builders[id] != nil }

func (r *Registry) IDs() []ID {
	ids := make([]ID, 0, 8)
	for i, b := range r.builders {
		if b != nil {
			ids = append(ids, ID(i))
		}
	}
	return ids
}

func (r *Registry) Dispatch(f frame.Frame) (Message, error) {
	return r.Decode(f.Payload)
}

// Decode selects decoder by payload[0].
// Unregistered id is not an error, returns *Unknown with body copy.
func (r *Registry) Decode(payload []byte) (Message, error) {
	if len(payload) == 0 {
		return nil, ErrEmpty
	}
	id := ID(payload[0])
	cr := cursor.NewReader(payload[1:], cursor.BigEndian)
	build := r.builders[id]
	if build == nil {
		return &Unknown{MessageID: id, Body: cr.Rest()}, nil
	}
	m, err := build(cr)
	if err != nil {
		return nil, errors.Annotatef(err, "decode id=%s", id)
	}
	return m, nil
}

// Default contains all known message types.
var Default = func() *Registry {
	r := NewRegistry()
	r.MustRegister(IDNavData, buildNavData)
	r.MustRegister(IDTrackerData, buildTrackerData)
	r.MustRegister(IDClockStatus, buildClockStatus)
	r.MustRegister(IDSubframeData, buildSubframeData)
	r.MustRegister(IDSVState, buildSVState)
	r.MustRegister(IDPowerMgmt, buildPowerMgmt)
	r.MustRegister(IDASCIIData, buildASCIIData)
	return r
}()

func Decode(payload []byte) (Message, error) { return Default.Decode(payload) }
