package pmecc

import (
	"github.com/Davincible/pmecc/pkg/pmecc/regs"
)

// locate hands the error locator polynomial to the PMERRLOC unit and reads
// back the roots, each a 1-based bit position inside the sector codeword.
// ok is false when the number of roots differs from the polynomial degree:
// the syndromes do not describe a correctable error pattern.
func (c *Codec) locate(degree int) (roots []int, ok bool, err error) {
	hw := c.hw
	sigma := c.ws.Sigma()

	hw.Write32(regs.ErrLoc, regs.ELDIS, regs.ELDisable)

	for i := 0; i <= degree; i++ {
		hw.Write32(regs.ErrLoc, regs.SIGMA(i), uint32(sigma[i]))
	}

	val := uint32(degree) << regs.ELCfgNumShift
	if c.params.SectorSize == 1024 {
		val |= regs.ELCfgSector1024
	}
	hw.Write32(regs.ErrLoc, regs.ELCFG, val)
	hw.Write32(regs.ErrLoc, regs.ELEN, uint32(c.params.SearchLength()))

	done := waitFor(func() bool {
		return hw.Read32(regs.ErrLoc, regs.ELISR)&regs.ELCalcDone != 0
	}, c.cfg.Timeout, c.cfg.PollInterval)
	if !done {
		hw.Write32(regs.ErrLoc, regs.ELDIS, regs.ELDisable)
		return nil, false, &TimeoutError{Op: "error location", Timeout: c.cfg.Timeout}
	}

	found := int((hw.Read32(regs.ErrLoc, regs.ELISR) & regs.ELErrNumMask) >> regs.ELErrNumShift)
	if found != degree {
		return nil, false, nil
	}

	roots = make([]int, found)
	for i := range roots {
		roots[i] = int(hw.Read32(regs.ErrLoc, regs.EL(i)))
	}
	return roots, true, nil
}
