package pmecc

import (
	"time"

	"github.com/Davincible/pmecc/pkg/pmecc/regs"
)

// Session is the only way the codec touches the accelerator. A real
// controller maps it onto memory-mapped registers; tests use a software
// model.
type Session interface {
	Read32(bank regs.Bank, off uint32) uint32
	Write32(bank regs.Bank, off uint32, val uint32)

	// Stream feeds page bytes to the accelerator data port in transfer
	// order. Controllers that snoop the NAND bus implement it as a no-op.
	Stream(p []byte) error
}

// waitFor polls cond until it holds or timeout elapses. The condition is
// always evaluated at least once, and once more after the deadline.
func waitFor(cond func() bool, timeout, interval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return cond()
		}
		if interval > 0 {
			time.Sleep(interval)
		}
	}
}
