// Package board builds the PWM outputs of a configuration file on top of
// the timer family table.
package board

import (
	"errors"
	"fmt"
	"sort"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"timpwm/config"
	"timpwm/pwm"
	"timpwm/regs"
	"timpwm/timer"
)

var ErrUnknownOutput = errors.New("board: unknown output")

// Board owns every configured output.
type Board struct {
	cfg     *config.Board
	family  *timer.Family
	periph  *timer.Peripherals
	outputs []*Output
	byName  map[string]*Output
}

// Output is one configured PWM driver.
type Output struct {
	Name     string
	Timer    string
	Channels []pwm.Channel

	simple *pwm.SimplePWM
	wide   *pwm.SimplePWM32
	comp   *pwm.ComplementaryPWM
}

// New takes the timers named in cfg through m and starts every output
// with its channels enabled and a zero duty cycle.
func New(cfg *config.Board, m regs.Mapper) (*Board, error) {
	fam, err := timer.LookupFamily(cfg.Family)
	if err != nil {
		return nil, err
	}
	periph, err := timer.Take(fam, timer.Clocks{
		APB1Timer: physic.Frequency(cfg.Clocks.APB1TimerHz) * physic.Hertz,
		APB2Timer: physic.Frequency(cfg.Clocks.APB2TimerHz) * physic.Hertz,
	}, m)
	if err != nil {
		return nil, err
	}

	b := &Board{
		cfg:    cfg,
		family: fam,
		periph: periph,
		byName: make(map[string]*Output),
	}
	for i := range cfg.Outputs {
		out, err := b.build(&cfg.Outputs[i])
		if err != nil {
			return nil, fmt.Errorf("board: output %q: %w", cfg.Outputs[i].Name, err)
		}
		b.outputs = append(b.outputs, out)
		b.byName[out.Name] = out
	}
	return b, nil
}

func (b *Board) build(oc *config.Output) (*Output, error) {
	mode, err := oc.AlignmentMode()
	if err != nil {
		return nil, err
	}
	pcfg := pwm.Config{Frequency: oc.Frequency(), Alignment: mode}
	out := &Output{Name: oc.Name, Timer: oc.Timer}
	for _, ch := range oc.Channels {
		out.Channels = append(out.Channels, pwm.Channel(ch))
	}

	in, ok := b.family.Instance(oc.Timer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", timer.ErrUnknownTimer, oc.Timer)
	}

	switch {
	case oc.Complementary:
		tim, err := b.periph.Advanced(oc.Timer)
		if err != nil {
			return nil, err
		}
		out.comp, err = pwm.NewComplementary(tim, pwm.ComplementaryConfig{Config: pcfg, DeadTime: oc.DeadTimeTicks}, nil, nil)
		if err != nil {
			return nil, err
		}
	case oc.Resolution == 32:
		tim, err := b.periph.GP32(oc.Timer)
		if err != nil {
			return nil, err
		}
		out.wide, err = pwm.NewSimple32(tim, pcfg)
		if err != nil {
			return nil, err
		}
	default:
		var tim pwm.Timer16
		switch in.Kind {
		case timer.KindGP16:
			tim, err = b.periph.GP16(oc.Timer)
		case timer.KindGP32:
			tim, err = b.periph.GP32(oc.Timer)
		default:
			tim, err = b.periph.Advanced(oc.Timer)
		}
		if err != nil {
			return nil, err
		}
		out.simple, err = pwm.NewSimple(tim, pcfg)
		if err != nil {
			return nil, err
		}
	}

	for _, ch := range out.Channels {
		out.SetDuty(ch, 0)
		out.Enable(ch)
	}
	return out, nil
}

// Output returns the output called name.
func (b *Board) Output(name string) (*Output, error) {
	o, ok := b.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOutput, name)
	}
	return o, nil
}

// Outputs returns every output in configuration order.
func (b *Board) Outputs() []*Output {
	return b.outputs
}

// Names returns the output names, sorted.
func (b *Board) Names() []string {
	names := make([]string, 0, len(b.byName))
	for n := range b.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Family returns the family the board was built for.
func (b *Board) Family() *timer.Family {
	return b.family
}

// Kind describes which driver runs the output.
func (o *Output) Kind() string {
	switch {
	case o.comp != nil:
		return "complementary"
	case o.wide != nil:
		return "pwm32"
	}
	return "pwm"
}

func (o *Output) Enable(ch pwm.Channel) {
	switch {
	case o.comp != nil:
		o.comp.Enable(ch)
	case o.wide != nil:
		o.wide.Enable(ch)
	default:
		o.simple.Enable(ch)
	}
}

func (o *Output) Disable(ch pwm.Channel) {
	switch {
	case o.comp != nil:
		o.comp.Disable(ch)
	case o.wide != nil:
		o.wide.Disable(ch)
	default:
		o.simple.Disable(ch)
	}
}

// MaxDuty is the exclusive upper bound of SetDuty.
func (o *Output) MaxDuty() uint32 {
	switch {
	case o.comp != nil:
		return uint32(o.comp.MaxDuty())
	case o.wide != nil:
		return o.wide.MaxDuty()
	}
	return uint32(o.simple.MaxDuty())
}

// SetDuty panics unless d < MaxDuty().
func (o *Output) SetDuty(ch pwm.Channel, d uint32) {
	switch {
	case o.comp != nil:
		o.comp.SetDuty(ch, narrow(ch, d))
	case o.wide != nil:
		o.wide.SetDuty(ch, d)
	default:
		o.simple.SetDuty(ch, narrow(ch, d))
	}
}

func narrow(ch pwm.Channel, d uint32) uint16 {
	if d > 0xFFFF {
		panic(fmt.Sprintf("board: duty %d on %v out of range", d, ch))
	}
	return uint16(d)
}

func (o *Output) Duty(ch pwm.Channel) uint32 {
	switch {
	case o.comp != nil:
		return uint32(o.comp.Duty(ch))
	case o.wide != nil:
		return o.wide.Duty(ch)
	}
	return uint32(o.simple.Duty(ch))
}

func (o *Output) Freq() physic.Frequency {
	switch {
	case o.comp != nil:
		return o.comp.Freq()
	case o.wide != nil:
		return o.wide.Freq()
	}
	return o.simple.Freq()
}

// SetFreq changes the frequency, returning pwm.ErrFrequency when it is
// out of reach instead of panicking.
func (o *Output) SetFreq(f physic.Frequency) error {
	var reachable bool
	switch {
	case o.comp != nil:
		reachable = o.comp.Reachable(f)
	case o.wide != nil:
		reachable = o.wide.Reachable(f)
	default:
		reachable = o.simple.Reachable(f)
	}
	if !reachable {
		return fmt.Errorf("%w: %v on %s", pwm.ErrFrequency, f, o.Timer)
	}
	switch {
	case o.comp != nil:
		o.comp.SetFreq(f)
	case o.wide != nil:
		o.wide.SetFreq(f)
	default:
		o.simple.SetFreq(f)
	}
	return nil
}

func (o *Output) Alignment() pwm.CenterAlignedMode {
	switch {
	case o.comp != nil:
		return o.comp.CenterAlignedMode()
	case o.wide != nil:
		return o.wide.CenterAlignedMode()
	}
	return o.simple.CenterAlignedMode()
}

func (o *Output) SetAlignment(mode pwm.CenterAlignedMode) {
	switch {
	case o.comp != nil:
		o.comp.SetCenterAlignedMode(mode)
	case o.wide != nil:
		o.wide.SetCenterAlignedMode(mode)
	default:
		o.simple.SetCenterAlignedMode(mode)
	}
}

// SetDeadTime sets the dead time of a complementary output.
func (o *Output) SetDeadTime(ticks uint16) error {
	if o.comp == nil {
		return fmt.Errorf("board: %s has no dead-time generator", o.Name)
	}
	o.comp.SetDeadTime(ticks)
	return nil
}

// Pin returns ch as a periph.io gpio.PinOut.
func (o *Output) Pin(ch pwm.Channel) gpio.PinOut {
	switch {
	case o.comp != nil:
		return o.comp.Output(ch)
	case o.wide != nil:
		return o.wide.Output(ch)
	}
	return o.simple.Output(ch)
}

// HasChannel reports whether ch was configured on the output.
func (o *Output) HasChannel(ch pwm.Channel) bool {
	for _, c := range o.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

func (o *Output) String() string {
	return fmt.Sprintf("%s: %s %s %v@%v max=%d", o.Name, o.Timer, o.Kind(), o.Alignment(), o.Freq(), o.MaxDuty())
}
