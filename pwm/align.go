package pwm

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/physic"

	"timpwm/internal/ll"
)

// PeriodRegister is the auto-reload value producing output frequency f
// from clock without prescaling. It returns 0 when f is out of reach.
func PeriodRegister(clock, f physic.Frequency, mode CenterAlignedMode) uint32 {
	if f <= 0 {
		return 0
	}
	ticks := clock / (f * physic.Frequency(mode.Scale()))
	if ticks < 1 || ticks-1 > math.MaxUint32 {
		return 0
	}
	return uint32(ticks - 1)
}

// EffectiveFrequency is the output frequency for an unprescaled period
// register under mode.
func EffectiveFrequency(clock physic.Frequency, period uint32, mode CenterAlignedMode) physic.Frequency {
	return clock / (physic.Frequency(uint64(period)+1) * physic.Frequency(mode.Scale()))
}

// Config is the initial setup of a driver.
type Config struct {
	Frequency physic.Frequency
	Alignment CenterAlignedMode
}

func (c Config) validate(clock physic.Frequency, periodBits uint) error {
	if c.Alignment > CenterAlignedMode3 {
		return fmt.Errorf("%w: %d", ErrAlignment, uint8(c.Alignment))
	}
	if !wrapReachable(clock, scaled(c.Frequency, c.Alignment), periodBits) {
		return fmt.Errorf("%w: %v from %v", ErrFrequency, c.Frequency, clock)
	}
	return nil
}

// wrapReachable reports whether clock can make the counter wrap at wrap
// with a period of at least two counts, so one duty value lies strictly
// between off and the period.
func wrapReachable(clock, wrap physic.Frequency, periodBits uint) bool {
	_, arr, ok := ll.Prescale(clock, wrap, periodBits)
	return ok && arr >= 1
}

// scaled converts an output frequency into a counter wrap frequency.
func scaled(f physic.Frequency, mode CenterAlignedMode) physic.Frequency {
	return f * physic.Frequency(mode.Scale())
}
