// Package pwm drives PWM outputs on timer instances from package timer.
//
// SimplePWM works on every timer with 16-bit compare registers,
// SimplePWM32 uses the full width of 32-bit timers and ComplementaryPWM
// adds dead time and inverted outputs on advanced timers. All drivers
// keep the output frequency independent of the counter alignment: a
// centre aligned counter runs at twice the requested frequency.
package pwm

import (
	"errors"

	"timpwm/internal/debug"
	"timpwm/internal/ll"
)

type (
	Channel           = ll.Channel
	OutputCompareMode = ll.OutputCompareMode
	CenterAlignedMode = ll.CenterAlignedMode
	ClockDivision     = ll.ClockDivision
)

const (
	Ch1 = ll.Ch1
	Ch2 = ll.Ch2
	Ch3 = ll.Ch3
	Ch4 = ll.Ch4
)

const (
	Frozen          = ll.Frozen
	ActiveOnMatch   = ll.ActiveOnMatch
	InactiveOnMatch = ll.InactiveOnMatch
	Toggle          = ll.Toggle
	ForceInactive   = ll.ForceInactive
	ForceActive     = ll.ForceActive
	PwmMode1        = ll.PwmMode1
	PwmMode2        = ll.PwmMode2
)

const (
	EdgeAligned        = ll.EdgeAligned
	CenterAlignedMode1 = ll.CenterAlignedMode1
	CenterAlignedMode2 = ll.CenterAlignedMode2
	CenterAlignedMode3 = ll.CenterAlignedMode3
)

const (
	Div1 = ll.Div1
	Div2 = ll.Div2
	Div4 = ll.Div4
)

// Timer16 is any timer with 16-bit capture/compare channels.
type Timer16 interface {
	CaptureCompare16(ll.Key) ll.CaptureCompare16bit
	Claim(ll.Key) error
}

// Timer32 is a timer with 32-bit capture/compare channels.
type Timer32 interface {
	CaptureCompare32(ll.Key) ll.CaptureCompare32bit
	Claim(ll.Key) error
}

// ComplementaryTimer is a timer with complementary outputs and dead time.
type ComplementaryTimer interface {
	Complementary(ll.Key) ll.ComplementaryCaptureCompare16bit
	Claim(ll.Key) error
}

var (
	// ErrFrequency is returned when the requested frequency cannot be
	// produced from the timer clock.
	ErrFrequency = errors.New("pwm: frequency out of range")

	// ErrAlignment is returned for an unknown alignment mode.
	ErrAlignment = errors.New("pwm: invalid alignment mode")

	// ErrPins is returned when two pins claim the same channel.
	ErrPins = errors.New("pwm: conflicting pins")
)

// SetDebugWriter routes driver diagnostics to w. Pass nil to disable.
func SetDebugWriter(w func(string)) {
	debug.SetWriter(w)
}

// ParseCenterAlignedMode parses the names printed by CenterAlignedMode:
// edge, center1, center2 and center3.
func ParseCenterAlignedMode(s string) (CenterAlignedMode, bool) {
	return ll.ParseCenterAlignedMode(s)
}
