//go:build stm32

package main

import "machine"

var (
	debugUART    *machine.UART
	debugEnabled bool
)

// InitDebugUART sets up the board's second UART at 115200 baud. The
// first one carries the bridge.
func InitDebugUART() {
	debugUART = machine.UART1
	if machine.Serial == machine.UART1 {
		// Only one UART on this board; stay quiet.
		return
	}
	if err := debugUART.Configure(machine.UARTConfig{BaudRate: 115200}); err != nil {
		return
	}
	debugEnabled = true
	DebugPrintln("=== timpwm bridge ===")
}

// DebugPrintln writes s and a line break to the debug UART.
func DebugPrintln(s string) {
	if !debugEnabled {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
