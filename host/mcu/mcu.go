// Package mcu drives the timers of a board running the register bridge
// firmware.
package mcu

import (
	"errors"
	"fmt"
	"io"
	"time"

	"timpwm/board"
	"timpwm/bridge"
	"timpwm/config"
	"timpwm/host/serial"
	"timpwm/regs"
	"timpwm/timer"
)

var ErrNotConnected = errors.New("mcu: not connected")

// MCU is a connection to a bridge server.
type MCU struct {
	port   io.Closer
	client *bridge.Client

	connected bool
}

// NewMCU creates an MCU that is not yet connected.
func NewMCU() *MCU {
	return &MCU{}
}

// Connect opens device with the default serial settings.
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens the serial port described by cfg.
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("mcu: %w", err)
	}
	m.Attach(port, cfg.IdlePolls(1000))
	m.port = port

	// Give a board that just enumerated time to start its poll loop.
	time.Sleep(100 * time.Millisecond)
	return nil
}

// Attach uses rw as the link. maxIdle is the number of empty reads
// tolerated while waiting for a reply.
func (m *MCU) Attach(rw io.ReadWriter, maxIdle int) {
	m.client = bridge.NewClient(rw, maxIdle)
	m.connected = true
}

// Close closes the serial port, if Connect opened one.
func (m *MCU) Close() error {
	m.connected = false
	if m.port != nil {
		err := m.port.Close()
		m.port = nil
		return err
	}
	return nil
}

// Mapper maps remote register windows.
func (m *MCU) Mapper() (regs.Mapper, error) {
	if !m.connected {
		return nil, ErrNotConnected
	}
	return m.client, nil
}

// Err returns the first failed register access made through Mapper.
func (m *MCU) Err() error {
	if !m.connected {
		return ErrNotConnected
	}
	return m.client.Err()
}

// Ping reads the clock enable register of the family's RCC to check the
// link and that the firmware serves the family.
func (m *MCU) Ping(f *timer.Family) error {
	if !m.connected {
		return ErrNotConnected
	}
	if _, err := m.client.Read32(f.RCC.Base + uintptr(f.RCC.APB1ENR)); err != nil {
		return fmt.Errorf("mcu: ping %s: %w", f.Name, err)
	}
	return nil
}

// Board builds cfg's outputs on the remote timers.
func (m *MCU) Board(cfg *config.Board) (*board.Board, error) {
	mapper, err := m.Mapper()
	if err != nil {
		return nil, err
	}
	b, err := board.New(cfg, mapper)
	if err != nil {
		return nil, err
	}
	if err := m.client.Err(); err != nil {
		return nil, fmt.Errorf("mcu: setting up outputs: %w", err)
	}
	return b, nil
}

// Value is one register read by Dump.
type Value struct {
	Name  string
	Addr  uintptr
	Value uint32
}

func (v Value) String() string {
	return fmt.Sprintf("%-6s %#010x = %#010x", v.Name, v.Addr, v.Value)
}

// Dump reads every register of the timer instance through mapper.
func Dump(mapper regs.Mapper, f *timer.Family, in timer.Instance) ([]Value, error) {
	b, err := mapper.Map(in.Base, timer.BlockSize)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, r := range f.Layout.Registers() {
		out = append(out, Value{Name: r.Name, Addr: in.Base + uintptr(r.Offset), Value: b.Read32(r.Offset)})
	}
	if e, ok := mapper.(interface{ Err() error }); ok {
		if err := e.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
