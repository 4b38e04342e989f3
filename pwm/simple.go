package pwm

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"timpwm/internal/ll"
)

// SimplePWM drives up to four PWM outputs with 16-bit resolution.
type SimplePWM struct {
	base
	pins []Pin
}

// NewSimple configures tim for PWM output. The pins are informational:
// they must already be routed with NewPin, and no two may share a
// channel. A timer backs one driver; building a second one on it fails
// with timer.ErrTaken.
func NewSimple(tim Timer16, cfg Config, pins ...Pin) (*SimplePWM, error) {
	inner := tim.CaptureCompare16(ll.Key{})
	if err := cfg.validate(inner.ClockFrequency(), 16); err != nil {
		return nil, err
	}
	if err := checkChannels(pinChannels(pins)); err != nil {
		return nil, err
	}
	if err := tim.Claim(ll.Key{}); err != nil {
		return nil, err
	}

	p := &SimplePWM{
		base: base{
			name:    timerName(tim),
			inner:   inner,
			bits:    16,
			setWrap: inner.SetFrequency,
		},
		pins: pins,
	}
	p.init(cfg)
	return p, nil
}

// MaxDuty is the exclusive upper bound for SetDuty.
func (p *SimplePWM) MaxDuty() uint16 {
	return p.inner.MaxCompareValue()
}

// SetDuty sets the compare value of ch. It panics unless d < MaxDuty().
func (p *SimplePWM) SetDuty(ch Channel, d uint16) {
	if limit := p.MaxDuty(); d >= limit {
		dutyPanic(ch, uint64(d), uint64(limit))
	}
	p.inner.SetCompareValue(ch, d)
}

// Duty returns the compare value of ch.
func (p *SimplePWM) Duty(ch Channel) uint16 {
	return p.inner.CompareValue(ch)
}

// Pins returns the pins the driver was built with.
func (p *SimplePWM) Pins() []Pin {
	return p.pins
}

func (p *SimplePWM) dutyLimit() uint64 {
	return uint64(p.MaxDuty())
}

func (p *SimplePWM) setFraction(ch Channel, d gpio.Duty) {
	p.SetDuty(ch, uint16(fraction(d, uint64(p.MaxDuty()))))
}

// Output returns ch as a periph.io gpio.PinOut.
func (p *SimplePWM) Output(ch Channel) *Output {
	return newOutput(p, ch)
}

func (p *SimplePWM) String() string {
	return fmt.Sprintf("%s %v@%v max=%d", p.name, p.CenterAlignedMode(), p.Freq(), p.MaxDuty())
}
