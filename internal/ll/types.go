package ll

import "strconv"

// Channel selects one of the four capture/compare channels.
type Channel uint8

const (
	Ch1 Channel = iota + 1
	Ch2
	Ch3
	Ch4
)

// Channels lists every channel in order.
var Channels = [4]Channel{Ch1, Ch2, Ch3, Ch4}

// Index returns the zero-based register index of the channel.
func (c Channel) Index() int {
	if c < Ch1 || c > Ch4 {
		panic("ll: invalid channel " + strconv.Itoa(int(c)))
	}
	return int(c - Ch1)
}

func (c Channel) String() string {
	return "CH" + strconv.Itoa(int(c))
}

// OutputCompareMode is the OCxM field encoding.
type OutputCompareMode uint8

const (
	Frozen OutputCompareMode = iota
	ActiveOnMatch
	InactiveOnMatch
	Toggle
	ForceInactive
	ForceActive
	PwmMode1
	PwmMode2
)

var ocModeNames = [...]string{
	"frozen", "active-on-match", "inactive-on-match", "toggle",
	"force-inactive", "force-active", "pwm1", "pwm2",
}

func (m OutputCompareMode) String() string {
	if int(m) < len(ocModeNames) {
		return ocModeNames[m]
	}
	return "ocmode(" + strconv.Itoa(int(m)) + ")"
}

// CenterAlignedMode is the CR1.CMS field encoding.
type CenterAlignedMode uint8

const (
	// EdgeAligned counts up only.
	EdgeAligned CenterAlignedMode = iota
	// CenterAlignedMode1 counts up and down, compare flags set while
	// counting down.
	CenterAlignedMode1
	// CenterAlignedMode2 sets compare flags while counting up.
	CenterAlignedMode2
	// CenterAlignedMode3 sets compare flags in both directions.
	CenterAlignedMode3
)

// Scale is the ratio between counter wrap frequency and output frequency:
// 1 when edge aligned, 2 for every centre aligned mode.
func (m CenterAlignedMode) Scale() uint32 {
	if m == EdgeAligned {
		return 1
	}
	return 2
}

func (m CenterAlignedMode) String() string {
	switch m {
	case EdgeAligned:
		return "edge"
	case CenterAlignedMode1:
		return "center1"
	case CenterAlignedMode2:
		return "center2"
	case CenterAlignedMode3:
		return "center3"
	}
	return "cms(" + strconv.Itoa(int(m)) + ")"
}

// ParseCenterAlignedMode is the inverse of CenterAlignedMode.String.
func ParseCenterAlignedMode(s string) (CenterAlignedMode, bool) {
	for m := EdgeAligned; m <= CenterAlignedMode3; m++ {
		if m.String() == s {
			return m, true
		}
	}
	return 0, false
}

// ClockDivision is the CR1.CKD field encoding.
type ClockDivision uint8

const (
	Div1 ClockDivision = iota
	Div2
	Div4
)

// Factor returns the division ratio.
func (d ClockDivision) Factor() uint32 {
	return 1 << d
}
