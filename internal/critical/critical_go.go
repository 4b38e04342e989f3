//go:build !tinygo

package critical

// Host builds have no interrupts to mask.
type state struct{}

func disable() state {
	return state{}
}

func restore(state) {}
