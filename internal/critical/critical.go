// Package critical runs short register sequences with interrupts masked.
package critical

// With calls fn with interrupts disabled and restores the previous
// interrupt state afterwards, even if fn panics.
func With(fn func()) {
	state := disable()
	defer restore(state)
	fn()
}
