package ll

import "testing"

func TestScale(t *testing.T) {
	tests := []struct {
		mode CenterAlignedMode
		want uint32
	}{
		{EdgeAligned, 1},
		{CenterAlignedMode1, 2},
		{CenterAlignedMode2, 2},
		{CenterAlignedMode3, 2},
	}
	for _, tt := range tests {
		if got := tt.mode.Scale(); got != tt.want {
			t.Errorf("%v.Scale() = %d, want %d", tt.mode, got, tt.want)
		}
	}
}

func TestChannelIndex(t *testing.T) {
	for i, ch := range Channels {
		if ch.Index() != i {
			t.Errorf("%v.Index() = %d, want %d", ch, ch.Index(), i)
		}
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for channel 5")
		}
	}()
	Channel(5).Index()
}

func TestParseCenterAlignedMode(t *testing.T) {
	for m := EdgeAligned; m <= CenterAlignedMode3; m++ {
		got, ok := ParseCenterAlignedMode(m.String())
		if !ok || got != m {
			t.Errorf("ParseCenterAlignedMode(%q) = %v, %v", m.String(), got, ok)
		}
	}
	if _, ok := ParseCenterAlignedMode("diagonal"); ok {
		t.Error("accepted unknown mode")
	}
}

func TestClockDivisionFactor(t *testing.T) {
	if Div1.Factor() != 1 || Div2.Factor() != 2 || Div4.Factor() != 4 {
		t.Errorf("factors = %d %d %d", Div1.Factor(), Div2.Factor(), Div4.Factor())
	}
}
