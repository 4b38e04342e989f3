package timer

import (
	"errors"
	"reflect"
	"testing"

	"periph.io/x/conn/v3/physic"

	"timpwm/internal/ll"
	"timpwm/regs"
)

var key ll.Key

func takeF4(t *testing.T) (*Peripherals, *regs.MemoryMap) {
	t.Helper()
	fam, err := LookupFamily("stm32f4")
	if err != nil {
		t.Fatal(err)
	}
	mm := regs.NewMemoryMap()
	p, err := Take(fam, Clocks{APB1Timer: 32 * physic.MegaHertz, APB2Timer: 64 * physic.MegaHertz}, mm)
	if err != nil {
		t.Fatal(err)
	}
	return p, mm
}

func TestTakeOwnership(t *testing.T) {
	p, _ := takeF4(t)

	if _, err := p.GP16("TIM3"); err != nil {
		t.Fatalf("first take: %v", err)
	}
	if !p.Taken("TIM3") {
		t.Error("TIM3 not marked taken")
	}
	if _, err := p.GP16("TIM3"); !errors.Is(err, ErrTaken) {
		t.Errorf("second take err = %v, want ErrTaken", err)
	}
	if _, err := p.GP16("TIM2"); !errors.Is(err, ErrWrongKind) {
		t.Errorf("TIM2 as GP16 err = %v, want ErrWrongKind", err)
	}
	if _, err := p.Advanced("TIM3"); !errors.Is(err, ErrWrongKind) {
		t.Errorf("TIM3 as advanced err = %v, want ErrWrongKind", err)
	}
	if _, err := p.GP32("TIM9"); !errors.Is(err, ErrUnknownTimer) {
		t.Errorf("TIM9 err = %v, want ErrUnknownTimer", err)
	}
	// A failed take leaves the timer available.
	if _, err := p.GP32("TIM2"); err != nil {
		t.Errorf("TIM2 as GP32: %v", err)
	}
}

func TestTakeOncePerMapper(t *testing.T) {
	p, mm := takeF4(t)
	fam := p.Family()
	clocks := Clocks{APB1Timer: 32 * physic.MegaHertz, APB2Timer: 64 * physic.MegaHertz}

	if _, err := Take(fam, clocks, mm); !errors.Is(err, ErrTaken) {
		t.Fatalf("second Take err = %v, want ErrTaken", err)
	}
	g4, _ := LookupFamily("stm32g4")
	if _, err := Take(g4, clocks, mm); err != nil {
		t.Errorf("other family on the same mapper: %v", err)
	}

	p.Release()
	again, err := Take(fam, clocks, mm)
	if err != nil {
		t.Fatalf("Take after Release: %v", err)
	}
	if again.Taken("TIM3") {
		t.Error("fresh peripherals report TIM3 taken")
	}
	again.Release()
}

func TestTakeUntrackedMapper(t *testing.T) {
	fam, _ := LookupFamily("stm32f1")
	mm := regs.NewMemoryMap()
	fn := regs.MapperFunc(mm.Map)
	clocks := Clocks{APB1Timer: 72 * physic.MegaHertz, APB2Timer: 72 * physic.MegaHertz}
	for i := 0; i < 2; i++ {
		if _, err := Take(fam, clocks, fn); err != nil {
			t.Fatalf("Take %d through a func mapper: %v", i, err)
		}
	}
}

func TestClaimOnce(t *testing.T) {
	p, _ := takeF4(t)
	tim, err := p.GP16("TIM3")
	if err != nil {
		t.Fatal(err)
	}
	if err := tim.Claim(key); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if err := tim.Claim(key); !errors.Is(err, ErrTaken) {
		t.Errorf("second claim err = %v, want ErrTaken", err)
	}

	adv, _ := p.Advanced("TIM1")
	if err := adv.Claim(key); err != nil {
		t.Errorf("TIM1 claim: %v", err)
	}
}

func TestAccessorsNeedKey(t *testing.T) {
	want := reflect.TypeOf(ll.Key{})
	for name, m := range map[string]any{
		"GP16.CaptureCompare16":     (*GP16).CaptureCompare16,
		"GP32.CaptureCompare32":     (*GP32).CaptureCompare32,
		"Advanced.Complementary":    (*Advanced).Complementary,
		"Advanced.CaptureCompare16": (*Advanced).CaptureCompare16,
		"GP16.Claim":                (*GP16).Claim,
	} {
		if in := reflect.TypeOf(m).In(1); in != want {
			t.Errorf("%s takes %v, want ll.Key", name, in)
		}
	}

	// Neither an empty struct nor a look-alike declared elsewhere can
	// stand in for the key.
	for _, v := range []any{struct{}{}, struct{ _ [0]func() }{}} {
		if reflect.TypeOf(v).ConvertibleTo(want) {
			t.Errorf("%T converts to ll.Key", v)
		}
	}
}

func TestTakeNeedsBusClock(t *testing.T) {
	fam, _ := LookupFamily("stm32g4")
	p, err := Take(fam, Clocks{APB1Timer: 170 * physic.MegaHertz}, regs.NewMemoryMap())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Advanced("TIM1"); !errors.Is(err, ErrNoClock) {
		t.Errorf("err = %v, want ErrNoClock", err)
	}
}

func TestLookupFamily(t *testing.T) {
	for _, name := range Families() {
		f, err := LookupFamily(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		seen := map[uintptr]string{}
		for _, in := range f.Timers {
			if other, dup := seen[in.Base]; dup {
				t.Errorf("%s: %s and %s share base %#x", name, in.Name, other, in.Base)
			}
			seen[in.Base] = in.Name
		}
	}
	if _, err := LookupFamily("stm32h9"); !errors.Is(err, ErrUnknownFamily) {
		t.Errorf("err = %v, want ErrUnknownFamily", err)
	}
}

func TestEnableClockAndReset(t *testing.T) {
	p, mm := takeF4(t)
	tim, _ := p.Advanced("TIM8")
	cc := tim.CaptureCompare16(key)

	cc.EnableClock()
	cc.ResetPeripheral()

	rcc := mm.Block(0x4002_3800)
	if got := rcc.Read32(0x44); got != 1<<1 {
		t.Errorf("APB2ENR = %#x, want bit 1", got)
	}
	if got := rcc.Read32(0x24); got != 0 {
		t.Errorf("APB2RSTR = %#x, want released", got)
	}
	w := mm.Log.Writes
	if len(w) != 3 || w[1].Addr != 0x4002_3824 || w[1].Value != 1<<1 {
		t.Errorf("writes = %v", w)
	}
}

func TestSetFrequency16(t *testing.T) {
	p, mm := takeF4(t)
	tim, _ := p.GP16("TIM3")
	cc := tim.CaptureCompare16(key)

	mark := len(mm.Log.Writes)
	cc.SetFrequency(physic.KiloHertz)
	if got := cc.MaxCompareValue(); got != 31999 {
		t.Errorf("ARR = %d, want 31999", got)
	}
	if got := cc.Frequency(); got != physic.KiloHertz {
		t.Errorf("Frequency() = %v, want 1kHz", got)
	}

	// PSC, ARR, URS set, UG, URS clear.
	w := mm.Log.Since(mark)
	if len(w) != 5 {
		t.Fatalf("writes = %v", w)
	}
	if w[3].Addr != 0x4000_0414 || w[3].Value != 1 {
		t.Errorf("update event write = %v", w[3])
	}
	if w[2].Value&(1<<2) == 0 || w[4].Value&(1<<2) != 0 {
		t.Errorf("URS sequence = %v, %v", w[2], w[4])
	}
}

func TestSetFrequencyUnreachablePanics(t *testing.T) {
	p, _ := takeF4(t)
	tim, _ := p.GP16("TIM4")
	cc := tim.CaptureCompare16(key)

	for _, f := range []physic.Frequency{0, 64 * physic.MegaHertz, physic.Hertz / 1000} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("SetFrequency(%v) did not panic", f)
				}
			}()
			cc.SetFrequency(f)
		}()
	}
}

func TestCenterAlignedModeRoundTrip(t *testing.T) {
	p, _ := takeF4(t)
	tim, _ := p.GP16("TIM3")
	cc := tim.CaptureCompare16(key)

	for _, m := range []ll.CenterAlignedMode{ll.CenterAlignedMode2, ll.EdgeAligned, ll.CenterAlignedMode3, ll.CenterAlignedMode1} {
		cc.SetCenterAlignedMode(m)
		if got := cc.CenterAlignedMode(); got != m {
			t.Errorf("CenterAlignedMode() = %v, want %v", got, m)
		}
	}
}

func TestOutputCompareModeFields(t *testing.T) {
	p, mm := takeF4(t)
	tim, _ := p.GP16("TIM3")
	cc := tim.CaptureCompare16(key)

	cc.SetOutputCompareMode(ll.Ch1, ll.PwmMode1)
	cc.SetOutputCompareMode(ll.Ch2, ll.PwmMode2)
	cc.SetOutputCompareMode(ll.Ch3, ll.ForceActive)
	cc.SetOutputCompareMode(ll.Ch4, ll.Toggle)

	blk := mm.Block(0x4000_0400)
	if got := blk.Read32(0x18); got != 6<<4|7<<12 {
		t.Errorf("CCMR1 = %#x", got)
	}
	if got := blk.Read32(0x1C); got != 5<<4|3<<12 {
		t.Errorf("CCMR2 = %#x", got)
	}
	if got := cc.OutputCompareMode(ll.Ch2); got != ll.PwmMode2 {
		t.Errorf("OutputCompareMode(Ch2) = %v", got)
	}
}

func TestChannelEnableAndCompare(t *testing.T) {
	p, mm := takeF4(t)
	tim, _ := p.Advanced("TIM1")
	cc := tim.Complementary(key)

	cc.EnableChannel(ll.Ch3, true)
	cc.EnableComplementaryChannel(ll.Ch3, true)
	cc.SetCompareValue(ll.Ch4, 1234)

	blk := mm.Block(0x4001_0000)
	if got := blk.Read32(0x20); got != 1<<8|1<<10 {
		t.Errorf("CCER = %#x", got)
	}
	if !cc.ChannelEnabled(ll.Ch3) || cc.ChannelEnabled(ll.Ch1) {
		t.Error("ChannelEnabled mismatch")
	}
	if got := blk.Read32(0x40); got != 1234 {
		t.Errorf("CCR4 = %d", got)
	}
	if got := cc.CompareValue(ll.Ch4); got != 1234 {
		t.Errorf("CompareValue(Ch4) = %d", got)
	}
}

func TestEnableOutputsPerTier(t *testing.T) {
	p, mm := takeF4(t)
	gp, _ := p.GP16("TIM3")
	adv, _ := p.Advanced("TIM1")

	mark := len(mm.Log.Writes)
	gp.CaptureCompare16(key).EnableOutputs(true)
	if w := mm.Log.Since(mark); len(w) != 0 {
		t.Errorf("GP16 EnableOutputs wrote %v", w)
	}

	adv.CaptureCompare16(key).EnableOutputs(true)
	if got := mm.Block(0x4001_0000).Read32(0x44); got != 1<<15 {
		t.Errorf("BDTR = %#x, want MOE", got)
	}
	adv.CaptureCompare16(key).EnableOutputs(false)
	if got := mm.Block(0x4001_0000).Read32(0x44); got != 0 {
		t.Errorf("BDTR = %#x, want cleared", got)
	}
}

func TestDeadTimeRegisters(t *testing.T) {
	p, mm := takeF4(t)
	adv, _ := p.Advanced("TIM8")
	cc := adv.Complementary(key)

	cc.EnableOutputs(true)
	cc.SetDeadTimeValue(0xC5)
	cc.SetDeadTimeClockDivision(ll.Div4)

	blk := mm.Block(0x4001_0400)
	if got := blk.Read32(0x44); got != 1<<15|0xC5 {
		t.Errorf("BDTR = %#x", got)
	}
	if got := blk.Read32(0x00) >> 8 & 3; got != 2 {
		t.Errorf("CKD = %d", got)
	}
}

func TestGP32WideRegisters(t *testing.T) {
	p, _ := takeF4(t)
	tim, _ := p.GP32("TIM5")
	cc := tim.CaptureCompare32(key)

	cc.SetFrequency32(physic.Hertz)
	if got := cc.MaxCompareValue32(); got != 31_999_999 {
		t.Errorf("ARR = %d, want 31999999", got)
	}
	cc.SetCompareValue32(ll.Ch1, 0xFFFF_FFFF)
	if got := cc.CompareValue32(ll.Ch1); got != 0xFFFF_FFFF {
		t.Errorf("CCR1 = %#x", got)
	}
	if got := cc.Frequency(); got != physic.Hertz {
		t.Errorf("Frequency() = %v", got)
	}
}
