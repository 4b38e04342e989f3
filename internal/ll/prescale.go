package ll

import "periph.io/x/conn/v3/physic"

// Prescale splits clock/f timer ticks into a 16-bit prescaler and a
// period register of the given width, keeping the period as large as
// possible. ok is false when f is not positive, when f is above clock,
// or when the prescaler would overflow.
func Prescale(clock, f physic.Frequency, periodBits uint) (psc, arr uint32, ok bool) {
	if f <= 0 || clock <= 0 {
		return 0, 0, false
	}
	ticks := uint64(clock / f)
	if ticks == 0 {
		return 0, 0, false
	}
	p := (ticks - 1) >> periodBits
	if p > 0xFFFF {
		return 0, 0, false
	}
	return uint32(p), uint32(ticks/(p+1) - 1), true
}

// WrapFrequency is the counter wrap frequency for a prescaler and period.
func WrapFrequency(clock physic.Frequency, psc, arr uint32) physic.Frequency {
	return clock / physic.Frequency((uint64(psc)+1)*(uint64(arr)+1))
}
