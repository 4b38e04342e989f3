//go:build tinygo

package critical

import "runtime/interrupt"

func disable() interrupt.State {
	return interrupt.Disable()
}

func restore(s interrupt.State) {
	interrupt.Restore(s)
}
