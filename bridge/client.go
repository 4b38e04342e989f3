package bridge

import (
	"fmt"
	"io"
	"sync"

	"timpwm/protocol"
	"timpwm/regs"
)

// Client performs register accesses through a Server.
type Client struct {
	conn *protocol.Conn

	mu  sync.Mutex
	err error
}

// NewClient talks to a server over rw. maxIdle is the number of empty
// reads tolerated while waiting for a reply.
func NewClient(rw io.ReadWriter, maxIdle int) *Client {
	return &Client{conn: protocol.NewConn(rw, maxIdle)}
}

// call sends one command and returns the reply id and its arguments.
func (c *Client) call(cmd uint32, args ...uint32) (uint32, []byte, error) {
	payload, err := c.conn.Call(func(o protocol.OutputBuffer) {
		protocol.EncodeVLQUint(o, cmd)
		for _, a := range args {
			protocol.EncodeVLQUint(o, a)
		}
	})
	if err != nil {
		return 0, nil, err
	}
	id, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return 0, nil, ErrReply
	}
	if id == cmdError {
		code, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return 0, nil, ErrReply
		}
		return 0, nil, codeError(code)
	}
	return id, payload, nil
}

// Read32 reads the register at addr.
func (c *Client) Read32(addr uintptr) (uint32, error) {
	id, rest, err := c.call(cmdRead32, uint32(addr))
	if err != nil {
		return 0, fmt.Errorf("bridge: read %#x: %w", addr, err)
	}
	if id != cmdValue {
		return 0, ErrReply
	}
	v, err := protocol.DecodeVLQUint(&rest)
	if err != nil {
		return 0, ErrReply
	}
	return v, nil
}

// Write32 writes v to the register at addr.
func (c *Client) Write32(addr uintptr, v uint32) error {
	id, _, err := c.call(cmdWrite32, uint32(addr), v)
	if err != nil {
		return fmt.Errorf("bridge: write %#x: %w", addr, err)
	}
	if id != cmdAck {
		return ErrReply
	}
	return nil
}

// Err returns the first error hit by a Block from Map. Block accesses
// cannot report errors themselves; after one fails, reads return zero and
// writes are dropped.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Client) fail(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
}

// Map returns a remote window. It does not contact the server.
func (c *Client) Map(base uintptr, size uint32) (regs.Block, error) {
	if base&3 != 0 || size&3 != 0 {
		return nil, regs.ErrUnaligned
	}
	return &remote{c: c, base: base, size: size}, nil
}

type remote struct {
	c    *Client
	base uintptr
	size uint32
}

func (r *remote) Read32(off uint32) uint32 {
	if off >= r.size || r.c.Err() != nil {
		return 0
	}
	v, err := r.c.Read32(r.base + uintptr(off))
	if err != nil {
		r.c.fail(err)
		return 0
	}
	return v
}

func (r *remote) Write32(off uint32, v uint32) {
	if off >= r.size || r.c.Err() != nil {
		return
	}
	if err := r.c.Write32(r.base+uintptr(off), v); err != nil {
		r.c.fail(err)
	}
}
