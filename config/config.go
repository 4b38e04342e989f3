// Package config loads the JSON description of a board's PWM outputs.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"periph.io/x/conn/v3/physic"

	"timpwm/internal/ll"
)

var ErrInvalid = errors.New("config: invalid")

// Board is the root of a configuration file.
type Board struct {
	Family string `json:"family"`
	Clocks Clocks `json:"clocks"`

	// SystemClockHz is the clock cycle ticks are counted in by the
	// hardware PWM interface.
	SystemClockHz uint32 `json:"system_clock_hz"`

	Outputs []Output `json:"outputs"`
}

// Clocks are the timer kernel clocks of the two peripheral buses.
type Clocks struct {
	APB1TimerHz uint32 `json:"apb1_timer_hz"`
	APB2TimerHz uint32 `json:"apb2_timer_hz"`
}

// Output is one PWM driver on one timer.
type Output struct {
	Name          string  `json:"name"`
	Timer         string  `json:"timer"`
	FrequencyHz   float64 `json:"frequency_hz"`
	Alignment     string  `json:"alignment"`
	Channels      []int   `json:"channels"`
	Resolution    int     `json:"resolution"`
	Complementary bool    `json:"complementary"`
	DeadTimeTicks uint16  `json:"dead_time_ticks"`
}

// Frequency returns FrequencyHz as a physic.Frequency.
func (o *Output) Frequency() physic.Frequency {
	return physic.Frequency(math.Round(o.FrequencyHz * float64(physic.Hertz)))
}

// AlignmentMode parses Alignment.
func (o *Output) AlignmentMode() (ll.CenterAlignedMode, error) {
	m, ok := ll.ParseCenterAlignedMode(o.Alignment)
	if !ok {
		return 0, fmt.Errorf("%w: output %q: alignment %q", ErrInvalid, o.Name, o.Alignment)
	}
	return m, nil
}

// Per family defaults: timer clocks at the usual maximum system clock.
var familyDefaults = map[string]struct {
	apb1, apb2, sys uint32
}{
	"stm32f1": {72_000_000, 72_000_000, 72_000_000},
	"stm32f4": {84_000_000, 168_000_000, 168_000_000},
	"stm32g4": {170_000_000, 170_000_000, 170_000_000},
}

// Load parses a JSON configuration and fills in defaults.
func Load(data []byte) (*Board, error) {
	var b Board
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	applyDefaults(&b)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// LoadFile reads and parses the file at path.
func LoadFile(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

func applyDefaults(b *Board) {
	if b.Family == "" {
		b.Family = "stm32f4"
	}
	if d, ok := familyDefaults[b.Family]; ok {
		if b.Clocks.APB1TimerHz == 0 {
			b.Clocks.APB1TimerHz = d.apb1
		}
		if b.Clocks.APB2TimerHz == 0 {
			b.Clocks.APB2TimerHz = d.apb2
		}
		if b.SystemClockHz == 0 {
			b.SystemClockHz = d.sys
		}
	}

	for i := range b.Outputs {
		o := &b.Outputs[i]
		if o.Alignment == "" {
			o.Alignment = ll.EdgeAligned.String()
		}
		if o.Resolution == 0 {
			o.Resolution = 16
		}
		if len(o.Channels) == 0 {
			o.Channels = []int{1}
		}
	}
}

// Validate checks everything that can be checked without the family
// table.
func (b *Board) Validate() error {
	if b.SystemClockHz == 0 {
		return fmt.Errorf("%w: system_clock_hz not set", ErrInvalid)
	}

	names := make(map[string]bool)
	timers := make(map[string]string)
	for i := range b.Outputs {
		o := &b.Outputs[i]
		if o.Name == "" {
			return fmt.Errorf("%w: output %d has no name", ErrInvalid, i)
		}
		if names[o.Name] {
			return fmt.Errorf("%w: duplicate output %q", ErrInvalid, o.Name)
		}
		names[o.Name] = true

		if o.Timer == "" {
			return fmt.Errorf("%w: output %q has no timer", ErrInvalid, o.Name)
		}
		if other, used := timers[o.Timer]; used {
			return fmt.Errorf("%w: outputs %q and %q share %s", ErrInvalid, other, o.Name, o.Timer)
		}
		timers[o.Timer] = o.Name

		if o.FrequencyHz <= 0 {
			return fmt.Errorf("%w: output %q: frequency_hz must be positive", ErrInvalid, o.Name)
		}
		if _, err := o.AlignmentMode(); err != nil {
			return err
		}
		if o.Resolution != 16 && o.Resolution != 32 {
			return fmt.Errorf("%w: output %q: resolution %d", ErrInvalid, o.Name, o.Resolution)
		}
		if o.Complementary && o.Resolution != 16 {
			return fmt.Errorf("%w: output %q: complementary outputs are 16 bit", ErrInvalid, o.Name)
		}
		if o.DeadTimeTicks != 0 && !o.Complementary {
			return fmt.Errorf("%w: output %q: dead time needs complementary outputs", ErrInvalid, o.Name)
		}

		var seen [5]bool
		for _, ch := range o.Channels {
			if ch < 1 || ch > 4 {
				return fmt.Errorf("%w: output %q: channel %d", ErrInvalid, o.Name, ch)
			}
			if seen[ch] {
				return fmt.Errorf("%w: output %q: channel %d listed twice", ErrInvalid, o.Name, ch)
			}
			seen[ch] = true
		}
	}
	return nil
}

// Example is a configuration for an STM32F4 board with a fan and a
// half bridge.
const Example = `{
  "family": "stm32f4",
  "outputs": [
    {"name": "fan", "timer": "TIM3", "frequency_hz": 25000, "channels": [1, 2]},
    {"name": "bridge", "timer": "TIM1", "frequency_hz": 20000, "alignment": "center1",
     "channels": [1], "complementary": true, "dead_time_ticks": 84},
    {"name": "servo", "timer": "TIM2", "frequency_hz": 50, "channels": [1], "resolution": 32}
  ]
}`
