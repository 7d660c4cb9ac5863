//go:build linux

package uart

import (
	"os"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

var bauds = map[int]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
}

func baudFlag(baud int) (uint32, error) {
	if baud == 0 {
		baud = DefaultBaud
	}
	if spd, ok := bauds[baud]; ok {
		return spd, nil
	}
	return 0, errors.Annotatef(ErrBaud, "baud=%d", baud)
}

// Open configures raw 8N1 without flow control, 0 baud means DefaultBaud.
func Open(path string, baud int) (*Port, error) {
	if baud == 0 {
		baud = DefaultBaud
	}
	spd, err := baudFlag(baud)
	if err != nil {
		return nil, err
	}
	// nonblocking fd goes to runtime poller, then Close interrupts Read
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Annotatef(err, "uart open path=%s", path)
	}
	ok := false
	defer func() {
		if !ok {
			_ = unix.Close(fd)
		}
	}()

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, errors.Annotatef(err, "uart TCGETS path=%s", path)
	}
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | spd
	t.Ispeed = spd
	t.Ospeed = spd
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	if err = unix.IoctlSetTermios(fd, unix.TCSETSF, t); err != nil {
		return nil, errors.Annotatef(err, "uart TCSETSF path=%s", path)
	}

	f := os.NewFile(uintptr(fd), path)
	if f == nil {
		return nil, errors.Errorf("uart os.NewFile path=%s", path)
	}
	ok = true
	return &Port{f: f, path: path, baud: baud}, nil
}

// Flush discards pending input and output.
func (p *Port) Flush() error {
	raw, err := p.f.SyscallConn()
	if err != nil {
		return errors.Trace(err)
	}
	var ioerr error
	if err = raw.Control(func(fd uintptr) { ioerr = unix.IoctlSetInt(int(fd), unix.TCFLSH, unix.TCIOFLUSH) }); err != nil {
		return errors.Trace(err)
	}
	return errors.Annotate(ioerr, "uart TCFLSH")
}
