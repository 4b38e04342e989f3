//go:build tinygo

package regs

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO is a Block at a fixed physical address, accessed with volatile
// loads and stores.
type MMIO uintptr

func (m MMIO) reg(off uint32) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(m) + uintptr(off)))
}

func (m MMIO) Read32(off uint32) uint32 {
	return m.reg(off).Get()
}

func (m MMIO) Write32(off uint32, v uint32) {
	m.reg(off).Set(v)
}

type direct struct{}

func (direct) Map(base uintptr, size uint32) (Block, error) {
	if base&3 != 0 || size&3 != 0 {
		return nil, ErrUnaligned
	}
	return MMIO(base), nil
}

// Direct maps registers in place. The address space is flat so nothing
// needs mapping.
var Direct Mapper = direct{}
