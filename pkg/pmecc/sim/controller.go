// Package sim is a software model of the PMECC accelerator and its error
// location unit. It computes real BCH redundancy, remainders and root
// searches, so a codec driven through it behaves like one driven by the
// hardware. It is used by tests and by the command line tool when no
// controller is attached.
package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Davincible/pmecc/pkg/pmecc/regs"
)

// ErrNotArmed is returned when page data is streamed while no transfer is
// in progress.
var ErrNotArmed = errors.New("sim: data streamed while accelerator idle")

// Option configures a Controller.
type Option func(*Controller)

// WithStuckBusy keeps the busy flag raised forever once a transfer starts.
func WithStuckBusy() Option {
	return func(c *Controller) { c.stuckBusy = true }
}

// WithStuckLocator makes the error location unit never report completion.
func WithStuckLocator() Option {
	return func(c *Controller) { c.stuckLocator = true }
}

// Controller implements the register interface of both units.
type Controller struct {
	mu sync.Mutex

	pmecc  map[uint32]uint32
	errloc map[uint32]uint32

	enabled        bool
	locatorEnabled bool
	armed          bool
	done           bool
	buf            []byte

	stuckBusy    bool
	stuckLocator bool

	transfers int
	searches  int
}

// New returns an idle controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		pmecc:  map[uint32]uint32{},
		errloc: map[uint32]uint32{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether the accelerator is enabled.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// LocatorEnabled reports whether a root search was started and not
// disabled since.
func (c *Controller) LocatorEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locatorEnabled
}

// Transfers returns the number of completed page transfers.
func (c *Controller) Transfers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transfers
}

// Searches returns the number of root searches run.
func (c *Controller) Searches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searches
}

// Read32 returns a register value. ISR is cleared by reading it.
func (c *Controller) Read32(bank regs.Bank, off uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch bank {
	case regs.PMECC:
		switch off {
		case regs.SR:
			var sr uint32
			if c.enabled {
				sr |= regs.SREnable
			}
			if c.armed && (c.stuckBusy || !c.done) {
				sr |= regs.SRBusy
			}
			return sr
		case regs.ISR:
			v := c.pmecc[regs.ISR]
			c.pmecc[regs.ISR] = 0
			return v
		}
		return c.pmecc[off]
	case regs.ErrLoc:
		return c.errloc[off]
	}
	return 0
}

// Write32 stores a register value and runs the side effects of control
// registers.
func (c *Controller) Write32(bank regs.Bank, off uint32, val uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch bank {
	case regs.PMECC:
		if off == regs.CTRL {
			c.control(val)
			return
		}
		c.pmecc[off] = val
	case regs.ErrLoc:
		switch off {
		case regs.ELDIS:
			if val&regs.ELDisable != 0 {
				c.locatorEnabled = false
				c.errloc[regs.ELISR] = 0
			}
		case regs.ELEN:
			c.errloc[off] = val
			c.locatorEnabled = true
			if !c.stuckLocator {
				c.search()
			}
		default:
			c.errloc[off] = val
		}
	}
}

func (c *Controller) control(val uint32) {
	if val&regs.CtrlRst != 0 {
		c.armed = false
		c.done = false
		c.buf = c.buf[:0]
		c.pmecc[regs.ISR] = 0
	}
	if val&regs.CtrlDisable != 0 {
		c.enabled = false
		c.armed = false
	}
	if val&regs.CtrlEnable != 0 {
		c.enabled = true
	}
	if val&regs.CtrlData != 0 && c.enabled {
		c.armed = true
		c.done = false
		c.buf = c.buf[:0]
	}
}

func (c *Controller) cfg() (capability, sectorSize, sectors int, write bool) {
	cfg := c.pmecc[regs.CFG]
	sectorSize = 512
	if cfg&regs.CfgSector1024 != 0 {
		sectorSize = 1024
	}
	return regs.Capability(cfg), sectorSize, regs.Sectors(cfg), cfg&regs.CfgWriteOp != 0
}

// Stream feeds transfer bytes. The computation runs once the expected
// number of bytes has arrived; surplus bytes are ignored.
func (c *Controller) Stream(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.armed {
		return ErrNotArmed
	}
	if c.done {
		return nil
	}

	c.buf = append(c.buf, p...)

	_, sectorSize, sectors, write := c.cfg()
	need := sectors * sectorSize
	if !write {
		need += int(c.pmecc[regs.SAREA]) + 1
	}
	if len(c.buf) < need {
		return nil
	}

	var err error
	if write {
		err = c.computeRedundancy()
	} else {
		err = c.computeRemainders()
	}
	if err != nil {
		return err
	}

	c.done = true
	c.transfers++
	return nil
}

func (c *Controller) code() (*code, int, int, error) {
	capability, sectorSize, sectors, _ := c.cfg()
	m := 12 + sectorSize/512
	bch, err := lookupCode(m, capability)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("sim: %w", err)
	}
	return bch, sectorSize, sectors, nil
}

func (c *Controller) computeRedundancy() error {
	bch, sectorSize, sectors, err := c.code()
	if err != nil {
		return err
	}
	eccBytes := (bch.parity + 7) / 8

	for s := 0; s < sectors; s++ {
		ecc := bch.encode(c.buf[s*sectorSize:(s+1)*sectorSize], eccBytes)

		words := make([]uint32, (eccBytes+3)/4)
		for j, b := range ecc {
			words[j/4] |= uint32(b) << (8 * (j % 4))
		}
		for w, v := range words {
			c.pmecc[regs.ECC(s, w)] = v
		}
	}
	return nil
}

func (c *Controller) computeRemainders() error {
	bch, sectorSize, sectors, err := c.code()
	if err != nil {
		return err
	}
	eccBytes := (bch.parity + 7) / 8

	spare := c.buf[sectors*sectorSize:]
	start := int(c.pmecc[regs.SADDR])
	if start+sectors*eccBytes > len(spare) {
		return fmt.Errorf("sim: ecc area [%d, %d) outside %d byte spare", start, start+sectors*eccBytes, len(spare))
	}

	var isr uint32
	for s := 0; s < sectors; s++ {
		data := c.buf[s*sectorSize : (s+1)*sectorSize]
		ecc := spare[start+s*eccBytes : start+(s+1)*eccBytes]

		rem := bch.remainders(data, ecc)
		words := make([]uint32, (len(rem)+1)/2)
		for k, r := range rem {
			if r != 0 {
				isr |= 1 << s
			}
			words[k/2] |= uint32(r) << (16 * (k % 2))
		}
		for w, v := range words {
			c.pmecc[regs.REM(s, w)] = v
		}
	}

	c.pmecc[regs.ISR] = isr
	return nil
}

// search runs the root search over the programmed polynomial.
func (c *Controller) search() {
	elcfg := c.errloc[regs.ELCFG]
	degree := int(elcfg>>regs.ELCfgNumShift) & 0x1f
	m := 13
	if elcfg&regs.ELCfgSector1024 != 0 {
		m = 14
	}

	capability, sectorSize, _, _ := c.cfg()
	bch, err := lookupCode(m, capability)
	if err != nil {
		return
	}

	sigma := make([]int, degree+1)
	for i := range sigma {
		sigma[i] = int(c.errloc[regs.SIGMA(i)])
	}

	codeword := sectorSize*8 + bch.parity
	roots := bch.search(sigma, codeword, int(c.errloc[regs.ELEN]))

	for i, r := range roots {
		if i >= regs.MaxSigma {
			break
		}
		c.errloc[regs.EL(i)] = uint32(r)
	}

	count := uint32(len(roots))
	if count > 0x1f {
		count = 0x1f
	}
	c.errloc[regs.ELISR] = regs.ELCalcDone | count<<regs.ELErrNumShift
	c.searches++
}
