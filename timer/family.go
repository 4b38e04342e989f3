package timer

import (
	"fmt"
	"sort"
)

// Kind is the capability tier of a timer instance.
type Kind uint8

const (
	KindGP16 Kind = iota
	KindGP32
	KindAdvanced
)

func (k Kind) String() string {
	switch k {
	case KindGP16:
		return "gp16"
	case KindGP32:
		return "gp32"
	case KindAdvanced:
		return "advanced"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Bus is the peripheral bus a timer hangs off. It selects the kernel
// clock and the RCC registers.
type Bus uint8

const (
	APB1 Bus = iota + 1
	APB2
)

func (b Bus) String() string {
	if b == APB2 {
		return "APB2"
	}
	return "APB1"
}

// Layout holds the register offsets of a timer block.
type Layout struct {
	CR1   uint32
	EGR   uint32
	CCMR1 uint32 // CCMR2 follows at +4
	CCER  uint32
	CNT   uint32
	PSC   uint32
	ARR   uint32
	CCR1  uint32 // CCR2..CCR4 follow at +4 each
	BDTR  uint32
}

// STM32Layout is shared by every family in the table.
var STM32Layout = Layout{
	CR1:   0x00,
	EGR:   0x14,
	CCMR1: 0x18,
	CCER:  0x20,
	CNT:   0x24,
	PSC:   0x28,
	ARR:   0x2C,
	CCR1:  0x34,
	BDTR:  0x44,
}

// Register is one named register of a timer block.
type Register struct {
	Name   string
	Offset uint32
}

// Registers lists the registers of the layout in address order.
func (l Layout) Registers() []Register {
	return []Register{
		{"CR1", l.CR1},
		{"EGR", l.EGR},
		{"CCMR1", l.CCMR1},
		{"CCMR2", l.CCMR1 + 4},
		{"CCER", l.CCER},
		{"CNT", l.CNT},
		{"PSC", l.PSC},
		{"ARR", l.ARR},
		{"CCR1", l.CCR1},
		{"CCR2", l.CCR1 + 4},
		{"CCR3", l.CCR1 + 8},
		{"CCR4", l.CCR1 + 12},
		{"BDTR", l.BDTR},
	}
}

// RCC locates the reset and clock enable registers.
type RCC struct {
	Base     uintptr
	APB1RSTR uint32
	APB2RSTR uint32
	APB1ENR  uint32
	APB2ENR  uint32
}

// Instance describes one timer of a family.
type Instance struct {
	Name string
	Base uintptr
	Kind Kind
	Bus  Bus
	Bit  uint8 // enable and reset bit in the bus registers
}

// Family is a chip family: its RCC layout and its PWM capable timers.
type Family struct {
	Name   string
	RCC    RCC
	Layout Layout
	Timers []Instance
}

// Instance looks up a timer by name.
func (f *Family) Instance(name string) (Instance, bool) {
	for _, in := range f.Timers {
		if in.Name == name {
			return in, true
		}
	}
	return Instance{}, false
}

// Register window sizes.
const (
	BlockSize = 0x400
	RCCSize   = 0x100
)

var families = map[string]*Family{
	"stm32f1": {
		Name: "stm32f1",
		RCC: RCC{
			Base:     0x4002_1000,
			APB2RSTR: 0x0C,
			APB1RSTR: 0x10,
			APB2ENR:  0x18,
			APB1ENR:  0x1C,
		},
		Layout: STM32Layout,
		Timers: []Instance{
			{"TIM1", 0x4001_2C00, KindAdvanced, APB2, 11},
			{"TIM2", 0x4000_0000, KindGP16, APB1, 0},
			{"TIM3", 0x4000_0400, KindGP16, APB1, 1},
			{"TIM4", 0x4000_0800, KindGP16, APB1, 2},
			{"TIM8", 0x4001_3400, KindAdvanced, APB2, 13},
		},
	},
	"stm32f4": {
		Name: "stm32f4",
		RCC: RCC{
			Base:     0x4002_3800,
			APB1RSTR: 0x20,
			APB2RSTR: 0x24,
			APB1ENR:  0x40,
			APB2ENR:  0x44,
		},
		Layout: STM32Layout,
		Timers: []Instance{
			{"TIM1", 0x4001_0000, KindAdvanced, APB2, 0},
			{"TIM2", 0x4000_0000, KindGP32, APB1, 0},
			{"TIM3", 0x4000_0400, KindGP16, APB1, 1},
			{"TIM4", 0x4000_0800, KindGP16, APB1, 2},
			{"TIM5", 0x4000_0C00, KindGP32, APB1, 3},
			{"TIM8", 0x4001_0400, KindAdvanced, APB2, 1},
		},
	},
	"stm32g4": {
		Name: "stm32g4",
		RCC: RCC{
			Base:     0x4002_1000,
			APB1RSTR: 0x38,
			APB2RSTR: 0x40,
			APB1ENR:  0x58,
			APB2ENR:  0x60,
		},
		Layout: STM32Layout,
		Timers: []Instance{
			{"TIM1", 0x4001_2C00, KindAdvanced, APB2, 11},
			{"TIM2", 0x4000_0000, KindGP32, APB1, 0},
			{"TIM3", 0x4000_0400, KindGP16, APB1, 1},
			{"TIM4", 0x4000_0800, KindGP16, APB1, 2},
			{"TIM5", 0x4000_0C00, KindGP32, APB1, 3},
			{"TIM8", 0x4001_3400, KindAdvanced, APB2, 13},
			{"TIM20", 0x4001_5000, KindAdvanced, APB2, 20},
		},
	},
}

// LookupFamily returns the family table entry for name.
func LookupFamily(name string) (*Family, error) {
	f, ok := families[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
	}
	return f, nil
}

// Families returns the known family names, sorted.
func Families() []string {
	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
