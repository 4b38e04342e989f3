package pwm

// dtgTicks decodes a BDTR.DTG byte into dead-time clock periods.
func dtgTicks(v uint8) uint32 {
	switch {
	case v&0x80 == 0:
		return uint32(v)
	case v&0xC0 == 0x80:
		return (64 + uint32(v&0x3F)) * 2
	case v&0xE0 == 0xC0:
		return (32 + uint32(v&0x1F)) * 8
	default:
		return (32 + uint32(v&0x1F)) * 16
	}
}

// DeadTimeTicks is the dead time in timer clock ticks produced by a
// clock division and DTG byte.
func DeadTimeTicks(div ClockDivision, dtg uint8) uint32 {
	return dtgTicks(dtg) * div.Factor()
}

// MaxDeadTime is the longest dead time the generator can insert, in
// timer clock ticks.
const MaxDeadTime = 1008 * 4

// EncodeDeadTime picks the clock division and DTG byte closest to ticks
// timer clock ticks. Ties go to the finer division.
func EncodeDeadTime(ticks uint32) (ClockDivision, uint8) {
	var (
		bestDiv ClockDivision
		bestDTG uint8
		bestErr = ^uint32(0)
	)
	for _, div := range [...]ClockDivision{Div1, Div2, Div4} {
		for v := 0; v < 256; v++ {
			got := DeadTimeTicks(div, uint8(v))
			e := got - ticks
			if got < ticks {
				e = ticks - got
			}
			if e < bestErr {
				bestDiv, bestDTG, bestErr = div, uint8(v), e
			}
		}
	}
	return bestDiv, bestDTG
}
