// Package ll holds the timer capability surface shared by the timer
// instances and the PWM drivers.
//
// The interfaces are layered: every capture/compare timer is a basic
// 16-bit timer, a 32-bit timer is a capture/compare timer with wide
// registers, and a complementary timer is a capture/compare timer with
// dead-time generation and inverted outputs. None of the operations
// check preconditions; ordering is the caller's job.
package ll

import "periph.io/x/conn/v3/physic"

// Key unlocks the low-level surface of a timer instance. Only packages
// inside this module can name it, and the unexported field keeps a bare
// struct{}{} from converting to it.
type Key struct {
	_ [0]func()
}

// Basic16 is a timer with a counter, prescaler and auto-reload register.
type Basic16 interface {
	// EnableClock turns on the peripheral clock in RCC.
	EnableClock()

	// ResetPeripheral pulses the peripheral reset line in RCC.
	ResetPeripheral()

	// Start sets CR1.CEN.
	Start()

	// Stop clears CR1.CEN.
	Stop()

	// SetFrequency programs the prescaler and a 16-bit period so the
	// counter wraps at f. Panics if f cannot be reached.
	SetFrequency(f physic.Frequency)

	// Frequency returns the counter wrap frequency.
	Frequency() physic.Frequency

	// ClockFrequency returns the timer kernel clock.
	ClockFrequency() physic.Frequency
}

// CaptureCompare16bit adds four output compare channels.
type CaptureCompare16bit interface {
	Basic16

	// EnableOutputs drives the master output enable. Timers without one
	// ignore the call.
	EnableOutputs(enable bool)

	SetOutputCompareMode(ch Channel, mode OutputCompareMode)
	OutputCompareMode(ch Channel) OutputCompareMode

	EnableChannel(ch Channel, enable bool)
	ChannelEnabled(ch Channel) bool

	SetCompareValue(ch Channel, v uint16)
	CompareValue(ch Channel) uint16

	// MaxCompareValue returns the auto-reload value.
	MaxCompareValue() uint16

	// IsEnabled reports CR1.CEN.
	IsEnabled() bool

	// SetCenterAlignedMode writes CR1.CMS. The counter must be stopped.
	SetCenterAlignedMode(mode CenterAlignedMode)

	// CenterAlignedMode reads CR1.CMS.
	CenterAlignedMode() CenterAlignedMode
}

// CaptureCompare32bit is a capture/compare timer with 32-bit counter,
// period and compare registers.
type CaptureCompare32bit interface {
	CaptureCompare16bit

	// SetFrequency32 is SetFrequency with the full 32-bit period.
	SetFrequency32(f physic.Frequency)

	SetCompareValue32(ch Channel, v uint32)
	CompareValue32(ch Channel) uint32
	MaxCompareValue32() uint32
}

// ComplementaryCaptureCompare16bit is a capture/compare timer with
// complementary outputs and a dead-time generator.
type ComplementaryCaptureCompare16bit interface {
	CaptureCompare16bit

	// SetDeadTimeClockDivision writes CR1.CKD, the dead-time clock
	// prescaler.
	SetDeadTimeClockDivision(div ClockDivision)

	// SetDeadTimeValue writes the raw BDTR.DTG byte.
	SetDeadTimeValue(v uint8)

	EnableComplementaryChannel(ch Channel, enable bool)
}
