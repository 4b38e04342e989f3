//go:build stm32

package main

import (
	"machine"
	"time"

	"timpwm/bridge"
	"timpwm/pwm"
	"timpwm/regs"
	"timpwm/timer"
)

var (
	server *bridge.Server

	// Debug counters
	pollErrors uint32
	panics     uint32
)

func main() {
	InitDebugUART()
	pwm.SetDebugWriter(DebugPrintln)

	fam, err := timer.LookupFamily(familyName)
	if err != nil {
		DebugPrintln("unknown family " + familyName)
		halt()
	}

	windows, err := bridge.MapWindows(regs.Direct, bridge.FamilySpans(fam)...)
	if err != nil {
		DebugPrintln(err.Error())
		halt()
	}
	server = bridge.NewServer(windows...)
	DebugPrintln("bridge serving " + fam.Name)

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					panics++
				}
			}()

			if err := server.Poll(machine.Serial); err != nil {
				pollErrors++
				DebugPrintln("poll: " + err.Error())
			}
		}()

		time.Sleep(10 * time.Microsecond)
	}
}

func halt() {
	for {
		time.Sleep(time.Second)
	}
}
