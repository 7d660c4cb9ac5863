// Package receiver runs frame decoder and message dispatch over one device stream.
package receiver

import (
	"expvar"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/atomic_clock"
	"github.com/temoto/sirf/frame"
	"github.com/temoto/sirf/helpers"
	"github.com/temoto/sirf/log2"
	"github.com/temoto/sirf/message"
)

var ErrClosed = errors.New("receiver closed")

type Options struct {
	Log       *log2.Log
	Registry  *message.Registry // nil means message.Default
	ReadLimit uint16            // max payload, 0 means frame.MaxPayload
	OnMessage func(m message.Message)
}

type Stat struct {
	RecvSize     expvar.Int
	SendSize     expvar.Int
	Messages     expvar.Int
	Unknown      expvar.Int
	DecodeErrors expvar.Int
}

func (s *Stat) String() string {
	return fmt.Sprintf(`{"recv.size":%d,"send.size":%d,"messages":%d,"unknown":%d,"error.decode":%d}`,
		s.RecvSize.Value(), s.SendSize.Value(), s.Messages.Value(), s.Unknown.Value(), s.DecodeErrors.Value())
}

type Receiver struct {
	alive *alive.Alive
	opt   Options
	rw    io.ReadWriter
	dec   frame.Decoder
	wlk   sync.Mutex
	enc   *frame.Encoder
	stat  Stat
	err   helpers.AtomicError
	last  atomic_clock.Clock
}

// New starts worker reading rw until error or Close.
func New(rw io.ReadWriter, opt Options) (*Receiver, error) {
	if opt.OnMessage == nil {
		return nil, errors.NotValidf("code error receiver.New opt.OnMessage=nil")
	}
	if opt.Registry == nil {
		opt.Registry = message.Default
	}
	r := &Receiver{
		alive: alive.NewAlive(),
		opt:   opt,
		rw:    rw,
	}
	r.dec.Attach(helpers.NewStatReader(rw, &r.stat.RecvSize, 0), opt.ReadLimit)
	r.enc = frame.NewEncoder(helpers.NewStatWriter(rw, &r.stat.SendSize, 0))

	if !r.alive.Add(1) {
		return nil, ErrClosed
	}
	go r.worker()
	return r, nil
}

// Send writes message as one frame. Safe for concurrent use.
func (r *Receiver) Send(m message.Message) error {
	if err, closed := r.err.Load(); closed {
		return errors.Annotate(err, "send")
	}
	payload, err := message.Marshal(m)
	if err != nil {
		return err
	}
	f := frame.Frame{Payload: payload}
	r.opt.Log.Debugf("receiver send f=%s", f)
	if err = helpers.WithLockError(&r.wlk, func() error { return r.enc.Encode(f) }); err != nil {
		err = errors.Annotate(err, "send")
		_ = r.die(err)
		return err
	}
	return nil
}

// Close stops worker and closes stream if it implements io.Closer.
// Worker blocked in Read on non-closable stream exits after Read returns.
func (r *Receiver) Close() error {
	switch err := r.die(ErrClosed); err {
	case ErrClosed, io.EOF:
		return nil
	default:
		return err
	}
}

func (r *Receiver) Done() <-chan struct{} { return r.alive.WaitChan() }

// Err returns terminal error after Done, io.EOF on clean end of stream.
func (r *Receiver) Err() error {
	err, _ := r.err.Load()
	return err
}

func (r *Receiver) Stat() *Stat                  { return &r.stat }
func (r *Receiver) FrameStat() *frame.Stat       { return &r.dec.Stat }
func (r *Receiver) SinceLastRecv() time.Duration { return atomic_clock.Since(&r.last) }

func (r *Receiver) die(e error) error {
	if err, found := r.err.StoreOnce(e); found {
		return err
	}
	r.alive.Stop()
	if c, ok := r.rw.(io.Closer); ok {
		_ = c.Close()
	}
	if e != ErrClosed && e != io.EOF {
		r.opt.Log.Errorf("receiver stop err=%v", e)
	}
	return e
}

func (r *Receiver) worker() {
	defer r.alive.Done()
	for r.alive.IsRunning() {
		if err := r.step(); err != nil {
			_ = r.die(err)
			return
		}
	}
}

func (r *Receiver) step() error {
	f, err := r.dec.Read()
	if err != nil {
		if frame.IsFrameError(err) {
			r.opt.Log.Debugf("receiver skip frame err=%v", err)
			return nil
		}
		if err == io.EOF {
			return err
		}
		return errors.Annotate(err, "receive")
	}
	r.last.SetNow()
	m, err := r.opt.Registry.Dispatch(f)
	if err != nil {
		r.stat.DecodeErrors.Add(1)
		r.opt.Log.Debugf("receiver decode f=%s err=%v", f, err)
		return nil
	}
	r.stat.Messages.Add(1)
	if message.IsUnknown(m) {
		r.stat.Unknown.Add(1)
	}
	if !r.alive.IsRunning() {
		return nil
	}
	r.opt.OnMessage(m)
	return nil
}
