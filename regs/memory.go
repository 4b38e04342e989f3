package regs

import (
	"fmt"
	"sort"
)

// Access is one register write seen by a Memory block.
type Access struct {
	Addr  uintptr
	Value uint32
}

func (a Access) String() string {
	return fmt.Sprintf("%#08x <- %#08x", a.Addr, a.Value)
}

// Log records writes across every block of a MemoryMap in program order.
type Log struct {
	Writes []Access
}

// Reset forgets recorded writes.
func (l *Log) Reset() {
	l.Writes = l.Writes[:0]
}

// Since returns the writes recorded after mark, where mark is an earlier
// len(l.Writes).
func (l *Log) Since(mark int) []Access {
	return l.Writes[mark:]
}

// Memory is a Block backed by plain words. Registers start at zero and
// have no side effects, so a read returns the last value written.
type Memory struct {
	base  uintptr
	words []uint32
	log   *Log
}

// NewMemory returns a zeroed block of size bytes at base. Writes are
// appended to log when it is not nil.
func NewMemory(base uintptr, size uint32, log *Log) *Memory {
	return &Memory{base: base, words: make([]uint32, size/4), log: log}
}

// Base returns the physical address of offset 0.
func (m *Memory) Base() uintptr {
	return m.base
}

// Size returns the window size in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.words) * 4)
}

func (m *Memory) index(off uint32) int {
	if off&3 != 0 || int(off/4) >= len(m.words) {
		panic(fmt.Sprintf("regs: offset %#x outside %d byte block at %#x", off, len(m.words)*4, m.base))
	}
	return int(off / 4)
}

func (m *Memory) Read32(off uint32) uint32 {
	return m.words[m.index(off)]
}

func (m *Memory) Write32(off uint32, v uint32) {
	m.words[m.index(off)] = v
	if m.log != nil {
		m.log.Writes = append(m.log.Writes, Access{Addr: m.base + uintptr(off), Value: v})
	}
}

// MemoryMap is a Mapper that hands out Memory blocks and remembers them.
// Mapping the same base twice returns the same block.
type MemoryMap struct {
	Log    Log
	blocks map[uintptr]*Memory
}

// NewMemoryMap returns an empty map.
func NewMemoryMap() *MemoryMap {
	return &MemoryMap{blocks: make(map[uintptr]*Memory)}
}

func (mm *MemoryMap) Map(base uintptr, size uint32) (Block, error) {
	if base&3 != 0 || size&3 != 0 {
		return nil, ErrUnaligned
	}
	if b, ok := mm.blocks[base]; ok {
		if b.Size() < size {
			b.words = append(b.words, make([]uint32, int(size/4)-len(b.words))...)
		}
		return b, nil
	}
	b := NewMemory(base, size, &mm.Log)
	mm.blocks[base] = b
	return b, nil
}

// Block returns the block mapped at base, or nil.
func (mm *MemoryMap) Block(base uintptr) *Memory {
	return mm.blocks[base]
}

// Lookup finds the block containing addr and the offset inside it.
func (mm *MemoryMap) Lookup(addr uintptr) (*Memory, uint32, error) {
	for base, b := range mm.blocks {
		if addr >= base && addr < base+uintptr(b.Size()) {
			return b, uint32(addr - base), nil
		}
	}
	return nil, 0, fmt.Errorf("%w: %#x", ErrRange, addr)
}

// Bases returns the mapped base addresses in ascending order.
func (mm *MemoryMap) Bases() []uintptr {
	out := make([]uintptr, 0, len(mm.blocks))
	for base := range mm.blocks {
		out = append(out, base)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
