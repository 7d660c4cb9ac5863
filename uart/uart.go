// Package uart opens serial device in raw 8N1 mode.
package uart

import (
	"os"

	"github.com/juju/errors"
)

const DefaultBaud = 4800

var ErrBaud = errors.New("unsupported baud rate")

// Port is serial device. Close unblocks pending Read.
type Port struct {
	f    *os.File
	path string
	baud int
}

func (p *Port) Read(b []byte) (int, error)  { return p.f.Read(b) }
func (p *Port) Write(b []byte) (int, error) { return p.f.Write(b) }
func (p *Port) Close() error                { return p.f.Close() }
func (p *Port) Path() string                { return p.path }
func (p *Port) Baud() int                   { return p.baud }

func (p *Port) String() string { return p.path }
