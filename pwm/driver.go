package pwm

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"timpwm/internal/debug"
	"timpwm/internal/ll"
)

// base holds what every driver shares: the capture/compare surface and
// the frequency primitive matching the driver's period width.
type base struct {
	name    string
	inner   ll.CaptureCompare16bit
	bits    uint
	setWrap func(physic.Frequency)
}

func timerName(tim any) string {
	if s, ok := tim.(fmt.Stringer); ok {
		return s.String()
	}
	return "TIM"
}

// init brings the timer up: clock, reset, alignment, period, counter
// start, master output enable and PWM mode 1 on every channel.
func (b *base) init(cfg Config) {
	b.inner.EnableClock()
	b.inner.ResetPeripheral()
	b.inner.SetCenterAlignedMode(cfg.Alignment)
	b.setWrap(scaled(cfg.Frequency, cfg.Alignment))
	b.inner.Start()
	b.inner.EnableOutputs(true)
	for _, ch := range ll.Channels {
		b.inner.SetOutputCompareMode(ch, PwmMode1)
	}

	if debug.Enabled() {
		debug.Println(fmt.Sprintf("[PWM] %s: %v %v period=%d", b.name, cfg.Frequency, cfg.Alignment, b.inner.MaxCompareValue()))
	}
}

// Enable turns on the output of ch.
func (b *base) Enable(ch Channel) {
	b.inner.EnableChannel(ch, true)
}

// Disable turns off the output of ch.
func (b *base) Disable(ch Channel) {
	b.inner.EnableChannel(ch, false)
}

// SetFreq changes the output frequency of every channel. Compare values
// are left alone, so duty cycles set earlier may exceed the new maximum.
// Panics if f cannot be produced; check with Reachable first.
func (b *base) SetFreq(f physic.Frequency) {
	b.setWrap(scaled(f, b.inner.CenterAlignedMode()))
	if debug.Enabled() {
		debug.Println(fmt.Sprintf("[PWM] %s: freq %v period=%d", b.name, f, b.inner.MaxCompareValue()))
	}
}

// Reachable reports whether SetFreq(f) would succeed in the current
// alignment mode.
func (b *base) Reachable(f physic.Frequency) bool {
	return wrapReachable(b.inner.ClockFrequency(), scaled(f, b.inner.CenterAlignedMode()), b.bits)
}

// Freq returns the output frequency.
func (b *base) Freq() physic.Frequency {
	return b.inner.Frequency() / physic.Frequency(b.inner.CenterAlignedMode().Scale())
}

// SetOutputCompareMode changes the compare mode of ch.
func (b *base) SetOutputCompareMode(ch Channel, mode OutputCompareMode) {
	b.inner.SetOutputCompareMode(ch, mode)
}

// SetCenterAlignedMode switches the counter alignment. The counter is
// stopped for the switch and the period is recomputed so the output
// frequency does not change. Compare values are not rescaled.
func (b *base) SetCenterAlignedMode(mode CenterAlignedMode) {
	old := b.inner.CenterAlignedMode()
	f := b.Freq()

	b.inner.Stop()
	b.inner.SetCenterAlignedMode(mode)
	if mode.Scale() != old.Scale() {
		b.setWrap(scaled(f, mode))
	}
	b.inner.Start()

	if debug.Enabled() {
		debug.Println(fmt.Sprintf("[PWM] %s: %v -> %v period=%d", b.name, old, mode, b.inner.MaxCompareValue()))
	}
}

// CenterAlignedMode returns the current counter alignment.
func (b *base) CenterAlignedMode() CenterAlignedMode {
	return b.inner.CenterAlignedMode()
}

func (b *base) setEnabled(ch Channel, on bool) {
	b.inner.EnableChannel(ch, on)
}

func (b *base) setMode(ch Channel, mode OutputCompareMode) {
	b.inner.SetOutputCompareMode(ch, mode)
}

func (b *base) timerName() string {
	return b.name
}

func dutyPanic(ch Channel, d, limit uint64) {
	panic(fmt.Sprintf("pwm: duty %d on %v out of range, max %d", d, ch, limit))
}

// fraction scales d into [0, limit). d must be below gpio.DutyMax.
func fraction(d gpio.Duty, limit uint64) uint64 {
	return uint64(d) * limit / uint64(gpio.DutyMax)
}
