package pwm

import (
	"fmt"

	"timpwm/internal/debug"
	"timpwm/internal/ll"
)

// ComplementaryConfig extends Config with the dead time inserted between
// a channel output and its complement, in timer clock ticks.
type ComplementaryConfig struct {
	Config
	DeadTime uint16
}

// ComplementaryPWM drives channel pairs with dead time on an advanced
// timer.
type ComplementaryPWM struct {
	SimplePWM
	cc    ll.ComplementaryCaptureCompare16bit
	cpins []ComplementaryPin
}

// NewComplementary configures tim for complementary PWM output.
func NewComplementary(tim ComplementaryTimer, cfg ComplementaryConfig, pins []Pin, cpins []ComplementaryPin) (*ComplementaryPWM, error) {
	cc := tim.Complementary(ll.Key{})
	if err := cfg.validate(cc.ClockFrequency(), 16); err != nil {
		return nil, err
	}
	if err := checkChannels(pinChannels(pins)); err != nil {
		return nil, err
	}
	cchs := make([]Channel, len(cpins))
	for i, p := range cpins {
		cchs[i] = p.Channel
	}
	if err := checkChannels(cchs); err != nil {
		return nil, err
	}
	if err := tim.Claim(ll.Key{}); err != nil {
		return nil, err
	}

	p := &ComplementaryPWM{
		SimplePWM: SimplePWM{
			base: base{
				name:    timerName(tim),
				inner:   cc,
				bits:    16,
				setWrap: cc.SetFrequency,
			},
			pins: pins,
		},
		cc:    cc,
		cpins: cpins,
	}
	p.init(cfg.Config)
	p.SetDeadTime(cfg.DeadTime)
	return p, nil
}

// Enable turns on ch and its complementary output.
func (p *ComplementaryPWM) Enable(ch Channel) {
	p.cc.EnableChannel(ch, true)
	p.cc.EnableComplementaryChannel(ch, true)
}

// Disable turns off ch and its complementary output.
func (p *ComplementaryPWM) Disable(ch Channel) {
	p.cc.EnableChannel(ch, false)
	p.cc.EnableComplementaryChannel(ch, false)
}

func (p *ComplementaryPWM) setEnabled(ch Channel, on bool) {
	if on {
		p.Enable(ch)
	} else {
		p.Disable(ch)
	}
}

// SetDeadTime sets the dead time in timer clock ticks, rounded to the
// nearest value the generator supports. Values above MaxDeadTime are
// clamped.
func (p *ComplementaryPWM) SetDeadTime(ticks uint16) {
	div, dtg := EncodeDeadTime(uint32(ticks))
	p.cc.SetDeadTimeClockDivision(div)
	p.cc.SetDeadTimeValue(dtg)
	if debug.Enabled() {
		debug.Println(fmt.Sprintf("[PWM] %s: dead time %d ticks (ckd=%d dtg=%#02x)", p.name, DeadTimeTicks(div, dtg), div.Factor(), dtg))
	}
}

// SetDeadTimeClockDivision writes the dead-time clock prescaler as is.
func (p *ComplementaryPWM) SetDeadTimeClockDivision(div ClockDivision) {
	p.cc.SetDeadTimeClockDivision(div)
}

// SetDeadTimeValue writes the raw DTG byte.
func (p *ComplementaryPWM) SetDeadTimeValue(v uint8) {
	p.cc.SetDeadTimeValue(v)
}

// ComplementaryPins returns the complementary pins the driver was built
// with.
func (p *ComplementaryPWM) ComplementaryPins() []ComplementaryPin {
	return p.cpins
}

// Output returns ch as a periph.io gpio.PinOut driving both outputs.
func (p *ComplementaryPWM) Output(ch Channel) *Output {
	return newOutput(p, ch)
}
