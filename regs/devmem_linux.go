//go:build linux && !tinygo

package regs

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DevMem maps register windows from /dev/mem. It is meant for Linux
// systems that share a bus with the timers, such as STM32MP1 parts.
type DevMem struct {
	mu    sync.Mutex
	f     *os.File
	pages [][]byte
}

// OpenDevMem opens /dev/mem for read and write.
func OpenDevMem() (*DevMem, error) {
	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("regs: open /dev/mem: %w", err)
	}
	return &DevMem{f: f}, nil
}

func (d *DevMem) Map(base uintptr, size uint32) (Block, error) {
	if base&3 != 0 || size&3 != 0 {
		return nil, ErrUnaligned
	}
	pageSize := uintptr(unix.Getpagesize())
	start := base &^ (pageSize - 1)
	length := int((base - start) + uintptr(size))

	d.mu.Lock()
	defer d.mu.Unlock()
	mem, err := unix.Mmap(int(d.f.Fd()), int64(start), length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("regs: mmap %#x: %w", base, err)
	}
	d.pages = append(d.pages, mem)
	return &mapped{mem: mem[base-start:]}, nil
}

// Close unmaps every window and closes /dev/mem. Blocks handed out
// earlier must not be used afterwards.
func (d *DevMem) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var first error
	for _, p := range d.pages {
		if err := unix.Munmap(p); err != nil && first == nil {
			first = err
		}
	}
	d.pages = nil
	if err := d.f.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

type mapped struct {
	mem []byte
}

func (m *mapped) word(off uint32) *uint32 {
	if off&3 != 0 || int(off)+4 > len(m.mem) {
		panic(fmt.Sprintf("regs: offset %#x outside mapped window", off))
	}
	return (*uint32)(unsafe.Pointer(&m.mem[off]))
}

func (m *mapped) Read32(off uint32) uint32 {
	return atomic.LoadUint32(m.word(off))
}

func (m *mapped) Write32(off uint32, v uint32) {
	atomic.StoreUint32(m.word(off), v)
}
