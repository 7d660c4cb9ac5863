//go:build !linux

package uart

import "github.com/juju/errors"

func baudFlag(baud int) (uint32, error) { return 0, errors.NotSupportedf("uart") }

func Open(path string, baud int) (*Port, error) {
	return nil, errors.NotSupportedf("uart on this platform path=%s", path)
}

func (p *Port) Flush() error { return errors.NotSupportedf("uart") }
