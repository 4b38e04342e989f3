package ll

import (
	"testing"

	"periph.io/x/conn/v3/physic"
)

func TestPrescale(t *testing.T) {
	tests := []struct {
		name     string
		clock, f physic.Frequency
		bits     uint
		psc, arr uint32
		ok       bool
	}{
		{"1kHz at 32MHz", 32 * physic.MegaHertz, physic.KiloHertz, 16, 0, 31999, true},
		{"2kHz at 32MHz", 32 * physic.MegaHertz, 2 * physic.KiloHertz, 16, 0, 15999, true},
		{"needs prescaler", 84 * physic.MegaHertz, 50 * physic.Hertz, 16, 25, 64614, true},
		{"32 bit period", 84 * physic.MegaHertz, 50 * physic.Hertz, 32, 0, 1679999, true},
		{"exact 16 bit", 65536 * physic.Hertz, physic.Hertz, 16, 0, 65535, true},
		{"one tick", 32 * physic.MegaHertz, 32 * physic.MegaHertz, 16, 0, 0, true},
		{"above clock", 32 * physic.MegaHertz, 64 * physic.MegaHertz, 16, 0, 0, false},
		{"zero", 32 * physic.MegaHertz, 0, 16, 0, 0, false},
		{"prescaler overflow", 168 * physic.MegaHertz, physic.Hertz / 100, 16, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			psc, arr, ok := Prescale(tt.clock, tt.f, tt.bits)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if psc != tt.psc || arr != tt.arr {
				t.Errorf("psc, arr = %d, %d, want %d, %d", psc, arr, tt.psc, tt.arr)
			}
		})
	}
}

func TestWrapFrequency(t *testing.T) {
	if got := WrapFrequency(32*physic.MegaHertz, 0, 31999); got != physic.KiloHertz {
		t.Errorf("got %v, want 1kHz", got)
	}
	if got := WrapFrequency(84*physic.MegaHertz, 83, 19999); got != 50*physic.Hertz {
		t.Errorf("got %v, want 50Hz", got)
	}
}
