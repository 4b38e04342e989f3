package board

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"timpwm/pwm"
)

// PWMPin identifies one channel of one output: output index times four
// plus the zero-based channel index.
type PWMPin uint32

// PWMValue is a duty cycle from 0 to PWMMax.
type PWMValue uint32

// PWMMax matches Klipper's PWM_MAX.
const PWMMax = 255

// PWMDriver is the hardware PWM interface used by Klipper style command
// handlers: periods in system clock ticks, duty cycles in 0..255.
type PWMDriver interface {
	// ConfigureHardwarePWM sets the period of the timer behind pin and
	// returns the period actually used.
	ConfigureHardwarePWM(pin PWMPin, cycleTicks uint32) (uint32, error)

	SetDutyCycle(pin PWMPin, value PWMValue) error

	GetMaxValue() uint32

	DisablePWM(pin PWMPin) error
}

var _ PWMDriver = (*Board)(nil)

var pwmDriver PWMDriver

// SetPWMDriver registers the driver returned by MustPWM.
func SetPWMDriver(d PWMDriver) {
	pwmDriver = d
}

// MustPWM returns the registered driver or panics if there is none.
func MustPWM() PWMDriver {
	if pwmDriver == nil {
		panic("PWM driver not configured")
	}
	return pwmDriver
}

// PinID returns the PWMPin of channel ch on the output called name.
func (b *Board) PinID(name string, ch pwm.Channel) (PWMPin, error) {
	for i, o := range b.outputs {
		if o.Name == name {
			if !o.HasChannel(ch) {
				return 0, fmt.Errorf("board: %s has no %v", name, ch)
			}
			return PWMPin(i*4 + ch.Index()), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOutput, name)
}

func (b *Board) resolve(pin PWMPin) (*Output, pwm.Channel, error) {
	i := int(pin / 4)
	ch := pwm.Channel(pin%4) + pwm.Ch1
	if i >= len(b.outputs) || !b.outputs[i].HasChannel(ch) {
		return nil, 0, fmt.Errorf("board: invalid PWM pin %d", pin)
	}
	return b.outputs[i], ch, nil
}

func (b *Board) GetMaxValue() uint32 {
	return PWMMax
}

// ConfigureHardwarePWM retunes the whole timer: every channel of the
// output shares the period.
func (b *Board) ConfigureHardwarePWM(pin PWMPin, cycleTicks uint32) (uint32, error) {
	o, _, err := b.resolve(pin)
	if err != nil {
		return 0, err
	}
	if cycleTicks == 0 {
		return 0, fmt.Errorf("%w: zero cycle", pwm.ErrFrequency)
	}
	sys := physic.Frequency(b.cfg.SystemClockHz) * physic.Hertz
	if f := sys / physic.Frequency(cycleTicks); f != o.Freq() {
		if err := o.SetFreq(f); err != nil {
			return 0, err
		}
	}
	ticks := sys / o.Freq()
	if ticks > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %v is %d cycle ticks", pwm.ErrFrequency, o.Freq(), ticks)
	}
	return uint32(ticks), nil
}

func (b *Board) SetDutyCycle(pin PWMPin, value PWMValue) error {
	o, ch, err := b.resolve(pin)
	if err != nil {
		return err
	}
	if value > PWMMax {
		value = PWMMax
	}
	duty := gpio.Duty(uint64(value) * uint64(gpio.DutyMax) / PWMMax)
	return o.Pin(ch).PWM(duty, 0)
}

func (b *Board) DisablePWM(pin PWMPin) error {
	o, ch, err := b.resolve(pin)
	if err != nil {
		return err
	}
	return o.Pin(ch).Halt()
}
