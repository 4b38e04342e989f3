package bridge

import (
	"fmt"
	"io"

	"tinygo.org/x/drivers"

	"timpwm/internal/debug"
	"timpwm/protocol"
	"timpwm/regs"
	"timpwm/timer"
)

// Window is a register range the server answers for.
type Window struct {
	Base  uintptr
	Size  uint32
	Block regs.Block
}

// Span is an address range to map into a Window.
type Span struct {
	Base uintptr
	Size uint32
}

// MapWindows maps every span through m.
func MapWindows(m regs.Mapper, spans ...Span) ([]Window, error) {
	out := make([]Window, 0, len(spans))
	for _, s := range spans {
		b, err := m.Map(s.Base, s.Size)
		if err != nil {
			return nil, fmt.Errorf("bridge: map %#x: %w", s.Base, err)
		}
		out = append(out, Window{Base: s.Base, Size: s.Size, Block: b})
	}
	return out, nil
}

// Server answers register requests for its windows. Addresses outside
// every window are refused.
type Server struct {
	windows []Window
	tr      *protocol.Transport
	in      *protocol.FifoBuffer
	out     protocol.ScratchOutput
	buf     [protocol.MessageLengthMax]byte
}

// NewServer returns a server for windows.
func NewServer(windows ...Window) *Server {
	s := &Server{
		windows: windows,
		in:      protocol.NewFifoBuffer(4 * protocol.MessageLengthMax),
	}
	s.tr = protocol.NewTransport(&s.out, s.handle)
	s.tr.SetResetCallback(func() { debug.Println("[BRIDGE] host reset") })
	return s
}

func (s *Server) lookup(addr uint32) (regs.Block, uint32, uint32) {
	if addr&3 != 0 {
		return nil, 0, codeUnaligned
	}
	for _, w := range s.windows {
		if uintptr(addr) >= w.Base && uintptr(addr)-w.Base < uintptr(w.Size) {
			return w.Block, uint32(uintptr(addr) - w.Base), 0
		}
	}
	return nil, 0, codeAddress
}

func replyError(reply protocol.OutputBuffer, code uint32) {
	protocol.EncodeVLQUint(reply, cmdError)
	protocol.EncodeVLQUint(reply, code)
}

func (s *Server) handle(cmdID uint16, data *[]byte, reply protocol.OutputBuffer) {
	switch cmdID {
	case cmdRead32:
		addr, err := protocol.DecodeVLQUint(data)
		if err != nil {
			replyError(reply, codeArgs)
			return
		}
		b, off, code := s.lookup(addr)
		if code != 0 {
			replyError(reply, code)
			return
		}
		protocol.EncodeVLQUint(reply, cmdValue)
		protocol.EncodeVLQUint(reply, b.Read32(off))

	case cmdWrite32:
		addr, err := protocol.DecodeVLQUint(data)
		if err != nil {
			replyError(reply, codeArgs)
			return
		}
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			replyError(reply, codeArgs)
			return
		}
		b, off, code := s.lookup(addr)
		if code != 0 {
			replyError(reply, code)
			return
		}
		b.Write32(off, v)
		protocol.EncodeVLQUint(reply, cmdAck)

	default:
		// The arguments of an unknown command cannot be skipped.
		*data = nil
		replyError(reply, codeCommand)
	}
}

// Handle feeds received bytes to the server and returns the reply bytes.
// The result is only valid until the next call.
func (s *Server) Handle(data []byte) []byte {
	s.out.Reset()
	for len(data) > 0 {
		n := s.in.Write(data)
		data = data[n:]
		s.tr.Receive(s.in)
		if n == 0 {
			// A full buffer holding no complete frame is garbage.
			s.in.Reset()
		}
	}
	return s.out.Result()
}

// Poll serves whatever the UART has buffered without blocking.
func (s *Server) Poll(uart drivers.UART) error {
	for uart.Buffered() > 0 {
		n, err := uart.Read(s.buf[:])
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if reply := s.Handle(s.buf[:n]); len(reply) > 0 {
			if _, err := uart.Write(reply); err != nil {
				return err
			}
		}
	}
	return nil
}

// Serve answers requests from rw until a read fails. Reads returning no
// data are retried.
func (s *Server) Serve(rw io.ReadWriter) error {
	for {
		n, err := rw.Read(s.buf[:])
		if n > 0 {
			if reply := s.Handle(s.buf[:n]); len(reply) > 0 {
				if _, werr := rw.Write(reply); werr != nil {
					return werr
				}
			}
		}
		if err != nil {
			return err
		}
	}
}

// FamilySpans lists the RCC block and every timer block of f.
func FamilySpans(f *timer.Family) []Span {
	spans := []Span{{Base: f.RCC.Base, Size: timer.RCCSize}}
	for _, in := range f.Timers {
		spans = append(spans, Span{Base: in.Base, Size: timer.BlockSize})
	}
	return spans
}
