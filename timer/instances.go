package timer

import "timpwm/internal/ll"

// GP16 is a general purpose timer with 16-bit period and compare
// registers.
type GP16 struct {
	c *core
}

func (t *GP16) Name() string   { return t.c.name }
func (t *GP16) String() string { return t.c.name }

// CaptureCompare16 exposes the register operations to the drivers.
func (t *GP16) CaptureCompare16(ll.Key) ll.CaptureCompare16bit { return t.c }

// Claim hands the timer to one driver. A second claim returns ErrTaken.
func (t *GP16) Claim(ll.Key) error { return t.c.claim() }

// GP32 is a general purpose timer with 32-bit counter, period and compare
// registers. It also works with the 16-bit drivers.
type GP32 struct {
	c *wide
}

func (t *GP32) Name() string   { return t.c.name }
func (t *GP32) String() string { return t.c.name }

func (t *GP32) CaptureCompare16(ll.Key) ll.CaptureCompare16bit { return t.c }
func (t *GP32) CaptureCompare32(ll.Key) ll.CaptureCompare32bit { return t.c }
func (t *GP32) Claim(ll.Key) error                             { return t.c.claim() }

// Advanced is an advanced control timer: 16-bit registers, a master
// output enable, complementary outputs and a dead-time generator.
type Advanced struct {
	c *advanced
}

func (t *Advanced) Name() string   { return t.c.name }
func (t *Advanced) String() string { return t.c.name }

func (t *Advanced) CaptureCompare16(ll.Key) ll.CaptureCompare16bit { return t.c }
func (t *Advanced) Claim(ll.Key) error                             { return t.c.claim() }

func (t *Advanced) Complementary(ll.Key) ll.ComplementaryCaptureCompare16bit { return t.c }
