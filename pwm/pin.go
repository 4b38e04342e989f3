package pwm

import (
	"fmt"

	"timpwm/internal/critical"
)

// OutputPin is the pin multiplexer side of a PWM output.
type OutputPin interface {
	// Low drives the pin low as a plain output.
	Low()

	// ConfigureAlternate hands the pin to alternate function af as a
	// push-pull output at the highest slew rate.
	ConfigureAlternate(af uint8)
}

// Pin is an output pin bound to a timer channel.
type Pin struct {
	Channel Channel
	pin     OutputPin
}

// ComplementaryPin is a pin bound to the inverted output of a channel.
type ComplementaryPin struct {
	Channel Channel
	pin     OutputPin
}

func setupPin(p OutputPin, af uint8) {
	critical.With(func() {
		p.Low()
		p.ConfigureAlternate(af)
	})
}

// NewPin routes ch to p. The pin is driven low before the switch so it
// never floats.
func NewPin(ch Channel, p OutputPin, af uint8) Pin {
	ch.Index()
	setupPin(p, af)
	return Pin{Channel: ch, pin: p}
}

// NewComplementaryPin routes the inverted output of ch to p.
func NewComplementaryPin(ch Channel, p OutputPin, af uint8) ComplementaryPin {
	ch.Index()
	setupPin(p, af)
	return ComplementaryPin{Channel: ch, pin: p}
}

func checkChannels(chs []Channel) error {
	var seen [4]bool
	for _, ch := range chs {
		i := ch.Index()
		if seen[i] {
			return fmt.Errorf("%w: %v used twice", ErrPins, ch)
		}
		seen[i] = true
	}
	return nil
}

func pinChannels(pins []Pin) []Channel {
	chs := make([]Channel, len(pins))
	for i, p := range pins {
		chs[i] = p.Channel
	}
	return chs
}
