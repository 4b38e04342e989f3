package timer

import (
	"fmt"

	"periph.io/x/conn/v3/physic"

	"timpwm/internal/ll"
	"timpwm/regs"
)

// CR1 bits.
const (
	cr1CEN = 0
	cr1URS = 2
	cr1CMS = 5
	cr1CKD = 8
)

const (
	egrUG   = 1 << 0
	bdtrMOE = 15
)

// core implements the register operations shared by every tier.
type core struct {
	name   string
	kind   Kind
	layout *Layout
	regs   regs.Block
	rcc    regs.Block
	enr    uint32
	rstr   uint32
	bit    uint8
	clock  physic.Frequency

	claimed bool
}

// claim records that a driver owns the timer.
func (c *core) claim() error {
	if c.claimed {
		return fmt.Errorf("%w: %s already has a driver", ErrTaken, c.name)
	}
	c.claimed = true
	return nil
}

func (c *core) EnableClock() {
	regs.SetBit(c.rcc, c.enr, c.bit, true)
}

func (c *core) ResetPeripheral() {
	regs.SetBit(c.rcc, c.rstr, c.bit, true)
	regs.SetBit(c.rcc, c.rstr, c.bit, false)
}

func (c *core) Start() {
	regs.SetBit(c.regs, c.layout.CR1, cr1CEN, true)
}

func (c *core) Stop() {
	regs.SetBit(c.regs, c.layout.CR1, cr1CEN, false)
}

func (c *core) IsEnabled() bool {
	return regs.Bit(c.layout.CR1, cr1CEN).Get(c.regs) != 0
}

func (c *core) ClockFrequency() physic.Frequency {
	return c.clock
}

func (c *core) SetFrequency(f physic.Frequency) {
	c.setFrequency(f, 16)
}

func (c *core) setFrequency(f physic.Frequency, bits uint) {
	psc, arr, ok := ll.Prescale(c.clock, f, bits)
	if !ok {
		panic(fmt.Sprintf("timer: %s cannot run at %v from %v", c.name, f, c.clock))
	}
	c.regs.Write32(c.layout.PSC, psc)
	c.regs.Write32(c.layout.ARR, arr)

	// Load the new prescaler now without raising an update interrupt.
	regs.SetBit(c.regs, c.layout.CR1, cr1URS, true)
	c.regs.Write32(c.layout.EGR, egrUG)
	regs.SetBit(c.regs, c.layout.CR1, cr1URS, false)
}

func (c *core) Frequency() physic.Frequency {
	psc := c.regs.Read32(c.layout.PSC) & 0xFFFF
	return ll.WrapFrequency(c.clock, psc, c.arr())
}

// arr is the full period register; 16-bit timers read zero above bit 15.
func (c *core) arr() uint32 {
	return c.regs.Read32(c.layout.ARR)
}

func (c *core) EnableOutputs(bool) {}

func (c *core) ocmField(ch ll.Channel) regs.Field {
	i := uint32(ch.Index())
	return regs.Field{
		Offset: c.layout.CCMR1 + 4*(i/2),
		Shift:  uint8(4 + 8*(i%2)),
		Width:  3,
	}
}

func (c *core) SetOutputCompareMode(ch ll.Channel, mode ll.OutputCompareMode) {
	c.ocmField(ch).Set(c.regs, uint32(mode))
}

func (c *core) OutputCompareMode(ch ll.Channel) ll.OutputCompareMode {
	return ll.OutputCompareMode(c.ocmField(ch).Get(c.regs))
}

func (c *core) EnableChannel(ch ll.Channel, enable bool) {
	regs.SetBit(c.regs, c.layout.CCER, uint8(4*ch.Index()), enable)
}

func (c *core) ChannelEnabled(ch ll.Channel) bool {
	return regs.Bit(c.layout.CCER, uint8(4*ch.Index())).Get(c.regs) != 0
}

func (c *core) ccr(ch ll.Channel) uint32 {
	return c.layout.CCR1 + 4*uint32(ch.Index())
}

func (c *core) SetCompareValue(ch ll.Channel, v uint16) {
	c.regs.Write32(c.ccr(ch), uint32(v))
}

func (c *core) CompareValue(ch ll.Channel) uint16 {
	return uint16(c.regs.Read32(c.ccr(ch)))
}

func (c *core) MaxCompareValue() uint16 {
	return uint16(c.arr())
}

func (c *core) cms() regs.Field {
	return regs.Field{Offset: c.layout.CR1, Shift: cr1CMS, Width: 2}
}

func (c *core) SetCenterAlignedMode(mode ll.CenterAlignedMode) {
	c.cms().Set(c.regs, uint32(mode))
}

func (c *core) CenterAlignedMode() ll.CenterAlignedMode {
	switch v := c.cms().Get(c.regs); v {
	case 0:
		return ll.EdgeAligned
	case 1:
		return ll.CenterAlignedMode1
	case 2:
		return ll.CenterAlignedMode2
	case 3:
		return ll.CenterAlignedMode3
	default:
		panic(fmt.Sprintf("timer: %s has invalid CMS value %d", c.name, v))
	}
}

// wide adds the 32-bit register surface.
type wide struct {
	*core
}

func (w *wide) SetFrequency32(f physic.Frequency) {
	w.setFrequency(f, 32)
}

func (w *wide) SetCompareValue32(ch ll.Channel, v uint32) {
	w.regs.Write32(w.ccr(ch), v)
}

func (w *wide) CompareValue32(ch ll.Channel) uint32 {
	return w.regs.Read32(w.ccr(ch))
}

func (w *wide) MaxCompareValue32() uint32 {
	return w.arr()
}

// advanced adds the break and dead-time register and complementary
// outputs.
type advanced struct {
	*core
}

func (a *advanced) EnableOutputs(enable bool) {
	regs.SetBit(a.regs, a.layout.BDTR, bdtrMOE, enable)
}

func (a *advanced) SetDeadTimeClockDivision(div ll.ClockDivision) {
	regs.Field{Offset: a.layout.CR1, Shift: cr1CKD, Width: 2}.Set(a.regs, uint32(div))
}

func (a *advanced) SetDeadTimeValue(v uint8) {
	regs.Field{Offset: a.layout.BDTR, Shift: 0, Width: 8}.Set(a.regs, uint32(v))
}

func (a *advanced) EnableComplementaryChannel(ch ll.Channel, enable bool) {
	regs.SetBit(a.regs, a.layout.CCER, uint8(4*ch.Index()+2), enable)
}
