package pwm

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"timpwm/internal/ll"
)

// SimplePWM32 drives up to four PWM outputs on a 32-bit timer, using the
// full period width.
type SimplePWM32 struct {
	base
	wide ll.CaptureCompare32bit
	pins []Pin
}

// NewSimple32 is NewSimple for 32-bit timers.
func NewSimple32(tim Timer32, cfg Config, pins ...Pin) (*SimplePWM32, error) {
	wide := tim.CaptureCompare32(ll.Key{})
	if err := cfg.validate(wide.ClockFrequency(), 32); err != nil {
		return nil, err
	}
	if err := checkChannels(pinChannels(pins)); err != nil {
		return nil, err
	}
	if err := tim.Claim(ll.Key{}); err != nil {
		return nil, err
	}

	p := &SimplePWM32{
		base: base{
			name:    timerName(tim),
			inner:   wide,
			bits:    32,
			setWrap: wide.SetFrequency32,
		},
		wide: wide,
		pins: pins,
	}
	p.init(cfg)
	return p, nil
}

func (p *SimplePWM32) MaxDuty() uint32 {
	return p.wide.MaxCompareValue32()
}

// SetDuty sets the compare value of ch. It panics unless d < MaxDuty().
func (p *SimplePWM32) SetDuty(ch Channel, d uint32) {
	if limit := p.MaxDuty(); d >= limit {
		dutyPanic(ch, uint64(d), uint64(limit))
	}
	p.wide.SetCompareValue32(ch, d)
}

func (p *SimplePWM32) Duty(ch Channel) uint32 {
	return p.wide.CompareValue32(ch)
}

func (p *SimplePWM32) Pins() []Pin {
	return p.pins
}

func (p *SimplePWM32) dutyLimit() uint64 {
	return uint64(p.MaxDuty())
}

func (p *SimplePWM32) setFraction(ch Channel, d gpio.Duty) {
	p.SetDuty(ch, uint32(fraction(d, uint64(p.MaxDuty()))))
}

// Output returns ch as a periph.io gpio.PinOut.
func (p *SimplePWM32) Output(ch Channel) *Output {
	return newOutput(p, ch)
}

func (p *SimplePWM32) String() string {
	return fmt.Sprintf("%s %v@%v max=%d", p.name, p.CenterAlignedMode(), p.Freq(), p.MaxDuty())
}
