package board

import (
	"errors"
	"math"
	"testing"

	"periph.io/x/conn/v3/physic"

	"timpwm/config"
	"timpwm/pwm"
	"timpwm/regs"
	"timpwm/timer"
)

func newExample(t *testing.T) (*Board, *regs.MemoryMap) {
	t.Helper()
	cfg, err := config.Load([]byte(config.Example))
	if err != nil {
		t.Fatal(err)
	}
	mm := regs.NewMemoryMap()
	b, err := New(cfg, mm)
	if err != nil {
		t.Fatal(err)
	}
	return b, mm
}

func TestBuildExample(t *testing.T) {
	b, mm := newExample(t)

	tests := []struct {
		name string
		kind string
		max  uint32
	}{
		{"fan", "pwm", 3359},
		{"bridge", "complementary", 4199},
		{"servo", "pwm32", 1_679_999},
	}
	for _, tt := range tests {
		o, err := b.Output(tt.name)
		if err != nil {
			t.Fatal(err)
		}
		if o.Kind() != tt.kind || o.MaxDuty() != tt.max {
			t.Errorf("%s: kind %s max %d, want %s %d", tt.name, o.Kind(), o.MaxDuty(), tt.kind, tt.max)
		}
	}

	// Configured channels start enabled at zero duty.
	ccer := mm.Block(0x4000_0400).Read32(0x20)
	if ccer != 1|1<<4 {
		t.Errorf("TIM3 CCER = %#x", ccer)
	}
	// TIM1 channel 1 and its complement, dead time 84 ticks.
	tim1 := mm.Block(0x4001_0000)
	if tim1.Read32(0x20) != 1|1<<2 {
		t.Errorf("TIM1 CCER = %#x", tim1.Read32(0x20))
	}
	if tim1.Read32(0x44)&0xFF != 84 {
		t.Errorf("TIM1 DTG = %d", tim1.Read32(0x44)&0xFF)
	}

	if got := b.Names(); len(got) != 3 || got[0] != "bridge" {
		t.Errorf("Names() = %v", got)
	}
}

func TestOutputOperations(t *testing.T) {
	b, _ := newExample(t)
	o, _ := b.Output("bridge")

	o.SetDuty(pwm.Ch1, 2100)
	if got := o.Duty(pwm.Ch1); got != 2100 {
		t.Errorf("Duty = %d", got)
	}
	o.SetAlignment(pwm.EdgeAligned)
	if o.MaxDuty() != 8399 || o.Freq() != 20*physic.KiloHertz {
		t.Errorf("after edge: max %d freq %v", o.MaxDuty(), o.Freq())
	}
	if err := o.SetFreq(10 * physic.MegaHertz); err != nil {
		t.Errorf("10MHz: %v", err)
	}
	if err := o.SetFreq(200 * physic.MegaHertz); !errors.Is(err, pwm.ErrFrequency) {
		t.Errorf("200MHz: %v", err)
	}
	if err := o.SetDeadTime(500); err != nil {
		t.Error(err)
	}

	fan, _ := b.Output("fan")
	if err := fan.SetDeadTime(10); err == nil {
		t.Error("dead time accepted on a plain output")
	}
	defer func() {
		if recover() == nil {
			t.Error("duty above 16 bits did not panic")
		}
	}()
	fan.SetDuty(pwm.Ch1, 70000)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"wrong kind", `{"outputs": [{"name": "a", "timer": "TIM3", "frequency_hz": 1000, "complementary": true}]}`, timer.ErrWrongKind},
		{"wide on gp16", `{"outputs": [{"name": "a", "timer": "TIM4", "frequency_hz": 1000, "resolution": 32}]}`, timer.ErrWrongKind},
		{"unknown timer", `{"outputs": [{"name": "a", "timer": "TIM9", "frequency_hz": 1000}]}`, timer.ErrUnknownTimer},
		{"unreachable", `{"outputs": [{"name": "a", "timer": "TIM3", "frequency_hz": 1e9}]}`, pwm.ErrFrequency},
		{"unknown family", `{"family": "stm32x", "system_clock_hz": 1, "outputs": []}`, timer.ErrUnknownFamily},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load([]byte(tt.json))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := New(cfg, regs.NewMemoryMap()); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPWMDriver(t *testing.T) {
	b, _ := newExample(t)
	SetPWMDriver(b)
	defer SetPWMDriver(nil)
	drv := MustPWM()

	if drv.GetMaxValue() != 255 {
		t.Errorf("GetMaxValue() = %d", drv.GetMaxValue())
	}

	pin, err := b.PinID("fan", pwm.Ch2)
	if err != nil || pin != 1 {
		t.Fatalf("PinID = %d, %v", pin, err)
	}

	ticks, err := drv.ConfigureHardwarePWM(pin, 168_000)
	if err != nil {
		t.Fatal(err)
	}
	if ticks != 168_000 {
		t.Errorf("cycle ticks = %d", ticks)
	}
	fan, _ := b.Output("fan")
	if fan.Freq() != physic.KiloHertz || fan.MaxDuty() != 41999 {
		t.Errorf("fan %v max %d", fan.Freq(), fan.MaxDuty())
	}

	if err := drv.SetDutyCycle(pin, 128); err != nil {
		t.Fatal(err)
	}
	if got := fan.Duty(pwm.Ch2); got != 21081 {
		t.Errorf("duty = %d, want 21081", got)
	}
	if err := drv.DisablePWM(pin); err != nil {
		t.Fatal(err)
	}

	// The longest cycle rounds the servo period just past 32 bits.
	servo, err := b.PinID("servo", pwm.Ch1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := drv.ConfigureHardwarePWM(servo, math.MaxUint32); !errors.Is(err, pwm.ErrFrequency) {
		t.Errorf("overlong cycle err = %v, want ErrFrequency", err)
	}

	if _, err := b.PinID("fan", pwm.Ch3); err == nil {
		t.Error("unconfigured channel accepted")
	}
	if _, err := b.PinID("pump", pwm.Ch1); !errors.Is(err, ErrUnknownOutput) {
		t.Errorf("unknown output err = %v", err)
	}
	if err := drv.SetDutyCycle(PWMPin(40), 1); err == nil {
		t.Error("invalid pin accepted")
	}
}

func TestMustPWMPanicsUnset(t *testing.T) {
	SetPWMDriver(nil)
	defer func() {
		if recover() == nil {
			t.Error("MustPWM did not panic")
		}
	}()
	MustPWM()
}
