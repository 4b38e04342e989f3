package pwm

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// outputDriver is what Output needs from a driver.
type outputDriver interface {
	timerName() string
	setEnabled(ch Channel, on bool)
	setMode(ch Channel, mode OutputCompareMode)
	setFraction(ch Channel, d gpio.Duty)
	dutyLimit() uint64
	Reachable(f physic.Frequency) bool
	SetFreq(f physic.Frequency)
	Freq() physic.Frequency
}

// Output is one timer channel seen as a periph.io gpio.PinOut.
//
// PWM with duty 0 or gpio.DutyMax forces the output level instead of
// using a compare value, so both ends of the range are reachable. A
// non-zero frequency retunes the whole timer.
type Output struct {
	drv outputDriver
	ch  Channel
	fn  string
}

var _ gpio.PinOut = (*Output)(nil)

func newOutput(drv outputDriver, ch Channel) *Output {
	ch.Index()
	return &Output{drv: drv, ch: ch, fn: "PWM"}
}

// Channel returns the timer channel behind the output.
func (o *Output) Channel() Channel {
	return o.ch
}

func (o *Output) String() string {
	return o.Name()
}

func (o *Output) Name() string {
	return fmt.Sprintf("%s_%v", o.drv.timerName(), o.ch)
}

func (o *Output) Number() int {
	return int(o.ch)
}

func (o *Output) Function() string {
	return o.fn
}

// Halt disables the channel output.
func (o *Output) Halt() error {
	o.drv.setEnabled(o.ch, false)
	return nil
}

// Out forces the output to l.
func (o *Output) Out(l gpio.Level) error {
	if l == gpio.High {
		o.drv.setMode(o.ch, ForceActive)
	} else {
		o.drv.setMode(o.ch, ForceInactive)
	}
	o.fn = "Out/" + l.String()
	o.drv.setEnabled(o.ch, true)
	return nil
}

// PWM sets the duty cycle and, when f is not zero, the frequency.
func (o *Output) PWM(duty gpio.Duty, f physic.Frequency) error {
	if !duty.Valid() {
		return fmt.Errorf("pwm: %s: invalid duty %v", o.Name(), duty)
	}
	if f < 0 {
		return errors.New("pwm: negative frequency")
	}
	if f != 0 && f != o.drv.Freq() {
		if !o.drv.Reachable(f) {
			return fmt.Errorf("%w: %s at %v", ErrFrequency, o.Name(), f)
		}
		o.drv.SetFreq(f)
	}

	switch duty {
	case 0:
		o.drv.setMode(o.ch, ForceInactive)
	case gpio.DutyMax:
		o.drv.setMode(o.ch, ForceActive)
	default:
		if o.drv.dutyLimit() == 0 {
			return fmt.Errorf("%w: %s has no duty resolution at %v", ErrFrequency, o.Name(), o.drv.Freq())
		}
		o.drv.setFraction(o.ch, duty)
		o.drv.setMode(o.ch, PwmMode1)
	}
	o.fn = "PWM"
	o.drv.setEnabled(o.ch, true)
	return nil
}
