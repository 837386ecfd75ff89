//go:build rp2040 || rp2350 || stm32f4 || mimxrt1062

package svuart

import "runtime/interrupt"

// handleInterrupt adapts HandleInterrupt to the runtime/interrupt signature.
func (d *Driver) handleInterrupt(interrupt.Interrupt) {
	d.HandleInterrupt()
}
