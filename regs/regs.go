// Package regs is the boundary between the timer code and the hardware.
//
// A Block is a window of 32-bit registers addressed by byte offset from
// the window base. Backends: Memory (simulation and tests), MMIO (TinyGo),
// DevMem (Linux /dev/mem) and the remote client in package bridge.
package regs

import "errors"

var (
	// ErrUnaligned is returned when a base address or size is not word aligned.
	ErrUnaligned = errors.New("regs: unaligned address")

	// ErrRange is returned for an access outside a mapped window.
	ErrRange = errors.New("regs: address out of range")
)

// Block is a window of memory-mapped 32-bit registers.
type Block interface {
	Read32(off uint32) uint32
	Write32(off uint32, v uint32)
}

// Mapper maps size bytes of registers starting at the physical address
// base.
type Mapper interface {
	Map(base uintptr, size uint32) (Block, error)
}

// MapperFunc adapts a function to Mapper.
type MapperFunc func(base uintptr, size uint32) (Block, error)

// Map calls f(base, size).
func (f MapperFunc) Map(base uintptr, size uint32) (Block, error) {
	return f(base, size)
}

// Field is a bit field inside a register.
type Field struct {
	Offset uint32
	Shift  uint8
	Width  uint8
}

func (f Field) mask() uint32 {
	return (1<<f.Width - 1) << f.Shift
}

// Get reads the field.
func (f Field) Get(b Block) uint32 {
	return (b.Read32(f.Offset) & f.mask()) >> f.Shift
}

// Set read-modify-writes the field. Bits of v above the field width are
// dropped.
func (f Field) Set(b Block, v uint32) {
	m := f.mask()
	old := b.Read32(f.Offset)
	b.Write32(f.Offset, old&^m|(v<<f.Shift)&m)
}

// Bit returns a one bit field.
func Bit(off uint32, shift uint8) Field {
	return Field{Offset: off, Shift: shift, Width: 1}
}

// SetBit sets or clears a single bit with read-modify-write.
func SetBit(b Block, off uint32, shift uint8, on bool) {
	v := uint32(0)
	if on {
		v = 1
	}
	Bit(off, shift).Set(b, v)
}
