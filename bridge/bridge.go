// Package bridge carries 32-bit register reads and writes over a serial
// link. The Server runs next to the hardware and serves a fixed set of
// register windows; the Client runs on a host and implements
// regs.Mapper, so timers and PWM drivers work unchanged across the link.
package bridge

import (
	"errors"
	"fmt"
)

// Command ids.
const (
	cmdRead32  = 1 // addr -> value
	cmdWrite32 = 2 // addr, value -> ack
	cmdValue   = 3 // value
	cmdAck     = 4
	cmdError   = 5 // code
)

// Error codes sent in cmdError replies.
const (
	codeAddress   = 1
	codeUnaligned = 2
	codeCommand   = 3
	codeArgs      = 4
)

var (
	ErrAddress   = errors.New("bridge: address not served")
	ErrUnaligned = errors.New("bridge: unaligned address")
	ErrCommand   = errors.New("bridge: unknown command")
	ErrArgs      = errors.New("bridge: malformed arguments")
	ErrReply     = errors.New("bridge: malformed reply")
)

func codeError(code uint32) error {
	switch code {
	case codeAddress:
		return ErrAddress
	case codeUnaligned:
		return ErrUnaligned
	case codeCommand:
		return ErrCommand
	case codeArgs:
		return ErrArgs
	}
	return fmt.Errorf("%w: error code %d", ErrReply, code)
}
