//go:build !linux && !tinygo

package regs

import "errors"

// DevMem is only available on Linux.
type DevMem struct{}

func OpenDevMem() (*DevMem, error) {
	return nil, errors.New("regs: /dev/mem needs linux")
}

func (d *DevMem) Map(base uintptr, size uint32) (Block, error) {
	return nil, errors.New("regs: /dev/mem needs linux")
}

func (d *DevMem) Close() error {
	return nil
}
