// Package timer provides the timer instances PWM drivers run on.
//
// Instances come from a family table and are handed out once each by
// Peripherals. Every instance shares one register implementation driven
// by the family's Layout; the tier types (GP16, GP32, Advanced) only
// decide which capabilities are exposed.
package timer

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"periph.io/x/conn/v3/physic"

	"timpwm/internal/debug"
	"timpwm/regs"
)

var (
	ErrUnknownFamily = errors.New("timer: unknown family")
	ErrUnknownTimer  = errors.New("timer: unknown timer")
	ErrTaken         = errors.New("timer: already taken")
	ErrWrongKind     = errors.New("timer: wrong timer kind")
	ErrNoClock       = errors.New("timer: bus clock not set")
)

// Clocks carries the timer kernel clock of each bus, as computed by the
// clock tree setup.
type Clocks struct {
	APB1Timer physic.Frequency
	APB2Timer physic.Frequency
}

func (c Clocks) bus(b Bus) physic.Frequency {
	if b == APB2 {
		return c.APB2Timer
	}
	return c.APB1Timer
}

// Peripherals hands out the timers of one chip. Each timer can be taken
// once.
type Peripherals struct {
	family *Family
	clocks Clocks
	mapper regs.Mapper
	rcc    regs.Block
	taken  map[string]bool

	tracked bool
}

type chipKey struct {
	family string
	mapper regs.Mapper
}

var (
	chipsMu sync.Mutex
	chips   = make(map[chipKey]bool)
)

// Take maps the RCC block of family and returns the instance set. It
// succeeds once per family and mapper until Release; a second Take
// returns ErrTaken. Mappers of a non-comparable type, such as a
// regs.MapperFunc closure, cannot be tracked and are not guarded.
func Take(family *Family, clocks Clocks, m regs.Mapper) (*Peripherals, error) {
	key := chipKey{family: family.Name, mapper: m}
	tracked := m != nil && reflect.TypeOf(m).Comparable()

	chipsMu.Lock()
	defer chipsMu.Unlock()
	if tracked && chips[key] {
		return nil, fmt.Errorf("%w: %s peripherals", ErrTaken, family.Name)
	}

	rcc, err := m.Map(family.RCC.Base, RCCSize)
	if err != nil {
		return nil, fmt.Errorf("timer: map RCC: %w", err)
	}
	if tracked {
		chips[key] = true
	}
	return &Peripherals{
		family:  family,
		clocks:  clocks,
		mapper:  m,
		tracked: tracked,
		rcc:     rcc,
		taken:   make(map[string]bool),
	}, nil
}

// Release lets Take hand out the family on the same mapper again. Timers
// taken from p must no longer be used.
func (p *Peripherals) Release() {
	if !p.tracked {
		return
	}
	chipsMu.Lock()
	delete(chips, chipKey{family: p.family.Name, mapper: p.mapper})
	chipsMu.Unlock()
	p.tracked = false
}

// Family returns the family the peripherals were taken from.
func (p *Peripherals) Family() *Family {
	return p.family
}

// Taken reports whether the named timer has been handed out.
func (p *Peripherals) Taken(name string) bool {
	return p.taken[name]
}

func (p *Peripherals) take(name string, want Kind) (*core, error) {
	in, ok := p.family.Instance(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnknownTimer, name, p.family.Name)
	}
	if in.Kind != want {
		return nil, fmt.Errorf("%w: %s is %v, not %v", ErrWrongKind, name, in.Kind, want)
	}
	if p.taken[name] {
		return nil, fmt.Errorf("%w: %s", ErrTaken, name)
	}
	clock := p.clocks.bus(in.Bus)
	if clock <= 0 {
		return nil, fmt.Errorf("%w: %v for %s", ErrNoClock, in.Bus, name)
	}
	b, err := p.mapper.Map(in.Base, BlockSize)
	if err != nil {
		return nil, fmt.Errorf("timer: map %s: %w", name, err)
	}
	p.taken[name] = true

	c := &core{
		name:   name,
		kind:   in.Kind,
		layout: &p.family.Layout,
		regs:   b,
		rcc:    p.rcc,
		bit:    in.Bit,
		clock:  clock,
	}
	if in.Bus == APB2 {
		c.enr, c.rstr = p.family.RCC.APB2ENR, p.family.RCC.APB2RSTR
	} else {
		c.enr, c.rstr = p.family.RCC.APB1ENR, p.family.RCC.APB1RSTR
	}
	if debug.Enabled() {
		debug.Println(fmt.Sprintf("[TIM] take %s %v base=%#x clock=%v", name, in.Kind, in.Base, clock))
	}
	return c, nil
}

// GP16 takes a 16-bit general purpose timer.
func (p *Peripherals) GP16(name string) (*GP16, error) {
	c, err := p.take(name, KindGP16)
	if err != nil {
		return nil, err
	}
	return &GP16{c: c}, nil
}

// GP32 takes a 32-bit general purpose timer.
func (p *Peripherals) GP32(name string) (*GP32, error) {
	c, err := p.take(name, KindGP32)
	if err != nil {
		return nil, err
	}
	return &GP32{c: &wide{c}}, nil
}

// Advanced takes an advanced control timer.
func (p *Peripherals) Advanced(name string) (*Advanced, error) {
	c, err := p.take(name, KindAdvanced)
	if err != nil {
		return nil, err
	}
	return &Advanced{c: &advanced{c}}, nil
}
