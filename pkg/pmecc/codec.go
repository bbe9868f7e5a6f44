// Package pmecc implements page error correction on top of a programmable
// multibit ECC (PMECC) accelerator.
//
// The accelerator computes BCH redundancy while a page is written and
// per-sector partial syndromes while it is read. This package turns the
// partial syndromes into an error locator polynomial in software, hands the
// polynomial to the error location unit for the root search and flips the
// located bits in the caller's buffers.
//
// Example usage:
//
//	codec, err := pmecc.New(hw, chip, 4, 512)
//	if err != nil {
//		return err
//	}
//	res, err := codec.ReadPage(page, data, oob)
package pmecc

import (
	"fmt"
	"sync"

	"github.com/Davincible/pmecc/pkg/galois"
	"github.com/Davincible/pmecc/pkg/nand"
	"github.com/Davincible/pmecc/pkg/pmecc/regs"
)

// SectorStatus is the outcome of decoding one sector.
type SectorStatus int

const (
	SectorClean SectorStatus = iota
	SectorErased
	SectorCorrected
	SectorUncorrectable
)

func (s SectorStatus) String() string {
	switch s {
	case SectorClean:
		return "clean"
	case SectorErased:
		return "erased"
	case SectorCorrected:
		return "corrected"
	case SectorUncorrectable:
		return "uncorrectable"
	default:
		return fmt.Sprintf("SectorStatus(%d)", int(s))
	}
}

// SectorResult describes one sector of a page read.
type SectorResult struct {
	Status   SectorStatus
	Bitflips int
}

// Result summarises a page read.
type Result struct {
	Page        int
	Erased      bool
	Sectors     []SectorResult
	Corrected   int // bit flips repaired over the whole page
	MaxBitflips int // worst sector
	Failed      bool
}

// Stats accumulate over the lifetime of a Codec.
type Stats struct {
	Corrected int
	Failed    int
}

// Codec reads and writes pages through the accelerator. Page operations
// are serialised; the codec owns the decode workspace.
type Codec struct {
	mu sync.Mutex

	hw     Session
	chip   nand.Chip
	layout nand.LargePage
	params Params
	field  *galois.Field
	ws     *Workspace
	cfg    Config

	ecc   []byte
	rem   []uint32
	stats Stats
}

// New resolves the parameters for the chip geometry, prepares the lookup
// tables and configures the accelerator. Page sizes outside the hardware
// range return ErrFallbackToSoftware.
func New(hw Session, chip nand.Chip, capability, sectorSize int, opts ...Option) (*Codec, error) {
	if hw == nil {
		return nil, fmt.Errorf("pmecc: no accelerator session")
	}
	if chip == nil {
		return nil, fmt.Errorf("pmecc: no chip")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	params, err := Resolve(chip.Geometry(), capability, sectorSize)
	if err != nil {
		return nil, err
	}

	field, err := loadField(cfg, params.Degree)
	if err != nil {
		return nil, err
	}

	c := &Codec{
		hw:     hw,
		chip:   chip,
		layout: nand.LargePage{ECCBytes: params.EccTotal()},
		params: params,
		field:  field,
		ws:     NewWorkspace(field, capability),
		cfg:    cfg,
		ecc:    make([]byte, params.EccTotal()),
		rem:    make([]uint32, remainderWords(capability)),
	}
	c.init()

	cfg.Logger.Info("pmecc initialized",
		"capability", params.Capability,
		"sector_size", params.SectorSize,
		"sectors", params.SectorsPerPage,
		"ecc_bytes", params.EccTotal())

	return c, nil
}

func loadField(cfg Config, degree int) (*galois.Field, error) {
	switch {
	case cfg.Field != nil:
		if cfg.Field.Degree() != degree {
			return nil, fmt.Errorf("%w: lookup tables are GF(2^%d), sector size needs GF(2^%d)",
				ErrUnsupportedGeometry, cfg.Field.Degree(), degree)
		}
		return cfg.Field, nil
	case cfg.LookupROM != nil:
		f, err := galois.FromROM(cfg.LookupROM, degree, cfg.LookupOffset)
		if err != nil {
			return nil, fmt.Errorf("load lookup tables: %w", err)
		}
		return f, nil
	default:
		return galois.New(degree)
	}
}

// init programs the static configuration and leaves the accelerator enabled.
func (c *Codec) init() {
	p := c.params
	w := func(off, val uint32) { c.hw.Write32(regs.PMECC, off, val) }

	w(regs.CTRL, regs.CtrlRst)
	w(regs.CTRL, regs.CtrlDisable)
	w(regs.CFG, p.Config())

	// ecc occupies the tail of the spare area
	w(regs.SAREA, uint32(p.OOBSize-1))
	w(regs.SADDR, uint32(c.layout.Offset(p.OOBSize)))
	w(regs.EADDR, uint32(p.OOBSize-1))

	w(regs.CLK, 2)
	w(regs.IDR, 0xff)
	w(regs.CTRL, regs.CtrlEnable)
}

// Params returns the resolved parameters.
func (c *Codec) Params() Params { return c.params }

// Field returns the lookup tables in use.
func (c *Codec) Field() *galois.Field { return c.field }

// Stats returns the accumulated correction counters.
func (c *Codec) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// start resets the accelerator and arms it for one page in the given
// direction.
func (c *Codec) start(write bool) {
	w := func(off, val uint32) { c.hw.Write32(regs.PMECC, off, val) }

	w(regs.CTRL, regs.CtrlRst)
	w(regs.CTRL, regs.CtrlDisable)

	cfg := c.hw.Read32(regs.PMECC, regs.CFG)
	if write {
		cfg = (cfg | regs.CfgWriteOp) &^ regs.CfgAutoEnable
	} else {
		cfg = (cfg &^ regs.CfgWriteOp) | regs.CfgAutoEnable
	}
	w(regs.CFG, cfg)

	w(regs.CTRL, regs.CtrlEnable)
	w(regs.CTRL, regs.CtrlData)
}

func (c *Codec) disable() {
	c.hw.Write32(regs.PMECC, regs.CTRL, regs.CtrlDisable)
}

func (c *Codec) waitIdle(op string) error {
	idle := waitFor(func() bool {
		return c.hw.Read32(regs.PMECC, regs.SR)&regs.SRBusy == 0
	}, c.cfg.Timeout, c.cfg.PollInterval)
	if !idle {
		c.disable()
		return &TimeoutError{Op: op, Timeout: c.cfg.Timeout}
	}
	return nil
}

// Redundancy computes the redundancy bytes of a page without programming
// it. The result is EccTotal bytes, sector by sector.
func (c *Codec) Redundancy(data []byte) ([]byte, error) {
	if len(data) != c.params.PageSize {
		return nil, fmt.Errorf("%w: data is %d bytes, page is %d", nand.ErrBufferSize, len(data), c.params.PageSize)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.encode(data); err != nil {
		return nil, err
	}
	return append([]byte(nil), c.ecc...), nil
}

func (c *Codec) encode(data []byte) error {
	c.start(true)

	if err := c.hw.Stream(data); err != nil {
		c.disable()
		return fmt.Errorf("stream page data: %w", err)
	}
	if err := c.waitIdle("redundancy computation"); err != nil {
		return err
	}

	p := c.params
	for i := 0; i < p.SectorsPerPage; i++ {
		out := c.ecc[i*p.BytesPerSector : (i+1)*p.BytesPerSector]
		var word uint32
		for j := range out {
			if j%4 == 0 {
				word = c.hw.Read32(regs.PMECC, regs.ECC(i, j/4))
			}
			out[j] = byte(word >> (8 * (j % 4)))
		}
	}
	return nil
}

// WritePage computes the redundancy of data, stores it at the tail of the
// spare area and programs the page. A nil oob programs an otherwise erased
// spare area.
func (c *Codec) WritePage(page int, data, oob []byte) error {
	geom := c.chip.Geometry()

	spare := make([]byte, geom.OOBSize)
	if oob == nil {
		nand.Fill(spare)
	} else {
		if err := geom.CheckBuffers(data, oob); err != nil {
			return err
		}
		copy(spare, oob)
	}
	if len(data) != geom.PageSize {
		return fmt.Errorf("%w: data is %d bytes, page is %d", nand.ErrBufferSize, len(data), geom.PageSize)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.encode(data); err != nil {
		return err
	}
	if err := c.layout.Place(c.ecc, spare); err != nil {
		return err
	}
	if err := c.chip.ProgramPage(page, data, spare); err != nil {
		return fmt.Errorf("program page %d: %w", page, err)
	}

	c.cfg.Logger.Debug("page written", "page", page)
	return nil
}

// ReadPage reads a page and corrects it in place. Bit flips in the
// redundancy bytes are corrected in oob as well. A page whose redundancy
// area is entirely erased is reported as erased without decoding.
//
// If any sector holds more errors than the capability the remaining
// sectors are still corrected and an *UncorrectableError is returned
// together with the result.
func (c *Codec) ReadPage(page int, data, oob []byte) (Result, error) {
	if err := c.chip.Geometry().CheckBuffers(data, oob); err != nil {
		return Result{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	res := Result{
		Page:    page,
		Sectors: make([]SectorResult, c.params.SectorsPerPage),
	}

	c.start(false)

	if err := c.chip.ReadPage(page, data, oob); err != nil {
		c.disable()
		return res, fmt.Errorf("read page %d: %w", page, err)
	}
	if err := c.hw.Stream(data); err != nil {
		c.disable()
		return res, fmt.Errorf("stream page data: %w", err)
	}
	if err := c.hw.Stream(oob); err != nil {
		c.disable()
		return res, fmt.Errorf("stream spare area: %w", err)
	}
	if err := c.waitIdle("syndrome accumulation"); err != nil {
		return res, err
	}

	stat := c.hw.Read32(regs.PMECC, regs.ISR)

	if err := c.layout.Extract(oob, c.ecc); err != nil {
		return res, err
	}
	if nand.IsErased(c.ecc) {
		res.Erased = true
		for i := range res.Sectors {
			res.Sectors[i].Status = SectorErased
		}
		return res, nil
	}
	if stat == 0 {
		return res, nil
	}

	return c.correct(res, stat, data, oob)
}

func (c *Codec) correct(res Result, stat uint32, data, oob []byte) (Result, error) {
	p := c.params
	var failed []int

	for i := 0; i < p.SectorsPerPage; i++ {
		if stat&(1<<i) == 0 {
			continue
		}

		sector := data[i*p.SectorSize : (i+1)*p.SectorSize]
		n, ok, err := c.decodeSector(i, sector)
		if err != nil {
			return res, err
		}
		if !ok {
			res.Sectors[i].Status = SectorUncorrectable
			failed = append(failed, i)
			c.stats.Failed++
			c.cfg.Logger.Error("too many bit errors", "page", res.Page, "sector", i)
			continue
		}

		res.Sectors[i] = SectorResult{Status: SectorCorrected, Bitflips: n}
		res.Corrected += n
		res.MaxBitflips = max(res.MaxBitflips, n)
		c.stats.Corrected += n
		c.cfg.Logger.Debug("corrected bit errors", "page", res.Page, "sector", i, "bitflips", n)
	}

	// corrected redundancy goes back where it came from
	if err := c.layout.Place(c.ecc, oob); err != nil {
		return res, err
	}

	if len(failed) > 0 {
		res.Failed = true
		return res, &UncorrectableError{Page: res.Page, Sectors: failed}
	}
	return res, nil
}

// decodeSector runs syndrome computation, the key equation solver, the
// root search and the correction for one sector. ok is false when the
// sector is uncorrectable.
func (c *Codec) decodeSector(index int, sector []byte) (n int, ok bool, err error) {
	for w := range c.rem {
		c.rem[w] = c.hw.Read32(regs.PMECC, regs.REM(index, w))
	}

	c.ws.loadPartialSyndromes(c.rem)
	c.ws.substitute()

	degree := c.ws.solve()
	if degree > c.params.Capability {
		return 0, false, nil
	}

	roots, ok, err := c.locate(degree)
	if err != nil || !ok {
		return 0, false, err
	}

	n, err = correctSector(roots, sector, c.ecc, index, c.params)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}
