//go:build timpwm_lowlevel

// Package lowlevel exposes the unchecked timer register operations the
// PWM drivers are built on. It only exists with the timpwm_lowlevel
// build tag.
//
// Nothing here validates ordering: changing the alignment mode with the
// counter running, or writing a compare value above the period, is left
// to the caller.
package lowlevel

import (
	"timpwm/internal/ll"
	"timpwm/pwm"
)

type (
	Basic16                          = ll.Basic16
	CaptureCompare16bit              = ll.CaptureCompare16bit
	CaptureCompare32bit              = ll.CaptureCompare32bit
	ComplementaryCaptureCompare16bit = ll.ComplementaryCaptureCompare16bit
)

// CaptureCompare16 returns the 16-bit register surface of t.
func CaptureCompare16(t pwm.Timer16) CaptureCompare16bit {
	return t.CaptureCompare16(ll.Key{})
}

// CaptureCompare32 returns the 32-bit register surface of t.
func CaptureCompare32(t pwm.Timer32) CaptureCompare32bit {
	return t.CaptureCompare32(ll.Key{})
}

// Complementary returns the dead-time and complementary output surface
// of t.
func Complementary(t pwm.ComplementaryTimer) ComplementaryCaptureCompare16bit {
	return t.Complementary(ll.Key{})
}
