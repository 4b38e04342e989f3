package protocol

import (
	"errors"
	"io"
	"sync"
)

var (
	// ErrTimeout is returned when the device stays silent for too many
	// reads in a row.
	ErrTimeout = errors.New("protocol: no reply")

	// ErrNak is returned when the device keeps rejecting the sequence.
	ErrNak = errors.New("protocol: request not acknowledged")
)

// Conn is the host side of the link. Each Call sends one frame and waits
// for the matching reply frame.
type Conn struct {
	mu   sync.Mutex
	rw   io.ReadWriter
	seq  uint8
	in   *FifoBuffer
	out  ScratchOutput
	buf  [64]byte
	idle int
}

// NewConn wraps rw. Reads returning no data count as idle polls; after
// maxIdle of them in a row Call gives up with ErrTimeout. Serial ports
// opened with a read timeout behave this way.
func NewConn(rw io.ReadWriter, maxIdle int) *Conn {
	if maxIdle <= 0 {
		maxIdle = 20
	}
	return &Conn{
		rw:   rw,
		seq:  MessageDest,
		in:   NewFifoBuffer(4 * MessageLengthMax),
		idle: maxIdle,
	}
}

// Call sends a frame whose payload is written by body and returns the
// payload of the reply.
func (c *Conn) Call(body func(OutputBuffer)) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for attempt := 0; attempt < 2; attempt++ {
		c.out.Reset()
		// A leading sync byte resynchronizes a device that saw garbage.
		c.out.Output([]byte{MessageValueSync})
		if err := EncodeFrame(&c.out, c.seq, body); err != nil {
			return nil, err
		}
		if _, err := c.rw.Write(c.out.Result()); err != nil {
			return nil, err
		}

		seq, payload, err := c.readFrame()
		if err != nil {
			return nil, err
		}
		if seq == NextSeq(c.seq) {
			c.seq = seq
			return payload, nil
		}
		// NAK: adopt the device's sequence and resend once.
		c.seq = seq
	}
	return nil, ErrNak
}

func (c *Conn) readFrame() (uint8, []byte, error) {
	idle := 0
	for {
		data := c.in.Data()
		seq, payload, n, err := DecodeFrame(data)
		switch err {
		case nil:
			out := append([]byte(nil), payload...)
			c.in.Pop(n)
			return seq, out, nil
		case ErrBadFrame:
			c.in.Pop(n + Resync(data[n:]))
			continue
		}
		c.in.Pop(n)

		if c.in.Free() == 0 {
			c.in.Reset()
		}
		room := c.in.Free()
		if room > len(c.buf) {
			room = len(c.buf)
		}
		got, err := c.rw.Read(c.buf[:room])
		c.in.Write(c.buf[:got])
		if err != nil {
			return 0, nil, err
		}
		if got == 0 {
			idle++
			if idle >= c.idle {
				return 0, nil, ErrTimeout
			}
			continue
		}
		idle = 0
	}
}
