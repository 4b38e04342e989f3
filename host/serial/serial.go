// Package serial opens the host end of a register bridge link.
package serial

import "io"

// Port is an open serial link.
type Port interface {
	io.ReadWriteCloser
}

// Config describes a serial device.
type Config struct {
	// Device path, such as /dev/ttyACM0 or COM3.
	Device string

	// Baud rate. USB CDC devices ignore it.
	Baud int

	// ReadTimeout in milliseconds. A read that times out returns no data
	// and no error, which the bridge client counts as an idle poll.
	ReadTimeout int
}

// DefaultConfig returns the settings the bridge firmware expects.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 50,
	}
}

// IdlePolls converts a reply timeout into the number of empty reads the
// bridge client should tolerate.
func (c *Config) IdlePolls(timeoutMS int) int {
	if c.ReadTimeout <= 0 {
		return 1
	}
	n := timeoutMS / c.ReadTimeout
	if n < 1 {
		n = 1
	}
	return n
}
