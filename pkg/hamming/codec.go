package hamming

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Davincible/pmecc/pkg/nand"
)

// smallPageOOB is the spare size of 512 byte page chips.
const smallPageOOB = 16

// UncorrectableError lists the steps of a page with more than one bit error.
type UncorrectableError struct {
	Page  int
	Steps []int
}

func (e *UncorrectableError) Error() string {
	return fmt.Sprintf("hamming: page %d: uncorrectable error in steps %v", e.Page, e.Steps)
}

func (e *UncorrectableError) Unwrap() error { return ErrUncorrectable }

// Result summarises a page read.
type Result struct {
	Page        int
	Erased      bool
	Corrected   int
	MaxBitflips int
	Failed      bool
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets the logger for correction events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLayout overrides the spare area layout chosen from the geometry.
func WithLayout(layout nand.Layout) Option {
	return func(c *Codec) { c.layout = layout }
}

// Codec protects whole pages with one code per 256 byte step.
type Codec struct {
	chip   nand.Chip
	layout nand.Layout
	steps  int
	logger *slog.Logger
}

// New returns a codec for the chip. Small page chips store the codes
// around the bad block marker, larger ones at the end of the spare area.
func New(chip nand.Chip, opts ...Option) (*Codec, error) {
	geom := chip.Geometry()
	if geom.PageSize%StepSize != 0 {
		return nil, fmt.Errorf("hamming: page size %d is not a multiple of %d", geom.PageSize, StepSize)
	}

	c := &Codec{
		chip:   chip,
		steps:  geom.PageSize / StepSize,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	total := c.steps * EccSize
	if geom.OOBSize <= smallPageOOB {
		c.layout = nand.SmallPage()
	} else {
		c.layout = nand.LargePage{ECCBytes: total}
	}

	for _, opt := range opts {
		opt(c)
	}

	// the layout must hold every code
	probe := make([]byte, geom.OOBSize)
	if err := c.layout.Place(make([]byte, total), probe); err != nil {
		return nil, fmt.Errorf("hamming: %d code bytes: %w", total, err)
	}

	return c, nil
}

// EccBytes returns the number of code bytes per page.
func (c *Codec) EccBytes() int { return c.steps * EccSize }

// Compute returns the codes of a page, step by step.
func (c *Codec) Compute(data []byte) []byte {
	ecc := make([]byte, c.EccBytes())
	for i := 0; i < c.steps; i++ {
		code := Calculate(data[i*StepSize : (i+1)*StepSize])
		copy(ecc[i*EccSize:], code[:])
	}
	return ecc
}

// WritePage computes the codes, places them in the spare area and
// programs the page. A nil oob programs an otherwise erased spare area.
func (c *Codec) WritePage(page int, data, oob []byte) error {
	geom := c.chip.Geometry()

	spare := make([]byte, geom.OOBSize)
	if oob == nil {
		nand.Fill(spare)
		oob = spare
	}
	if err := geom.CheckBuffers(data, oob); err != nil {
		return err
	}
	copy(spare, oob)

	if err := c.layout.Place(c.Compute(data), spare); err != nil {
		return err
	}
	if err := c.chip.ProgramPage(page, data, spare); err != nil {
		return fmt.Errorf("program page %d: %w", page, err)
	}
	return nil
}

// ReadPage reads a page and repairs single bit errors per step. A page
// whose codes are all erased is reported as erased without checking.
func (c *Codec) ReadPage(page int, data, oob []byte) (Result, error) {
	res := Result{Page: page}

	if err := c.chip.Geometry().CheckBuffers(data, oob); err != nil {
		return res, err
	}
	if err := c.chip.ReadPage(page, data, oob); err != nil {
		return res, fmt.Errorf("read page %d: %w", page, err)
	}

	stored := make([]byte, c.EccBytes())
	if err := c.layout.Extract(oob, stored); err != nil {
		return res, err
	}
	if nand.IsErased(stored) {
		res.Erased = true
		return res, nil
	}

	var failed []int
	for i := 0; i < c.steps; i++ {
		step := data[i*StepSize : (i+1)*StepSize]

		var read [EccSize]byte
		copy(read[:], stored[i*EccSize:])

		n, err := Correct(step, read, Calculate(step))
		if err != nil {
			failed = append(failed, i)
			c.logger.Error("uncorrectable step", "page", page, "step", i)
			continue
		}
		if n > 0 {
			c.logger.Debug("corrected bit error", "page", page, "step", i)
		}
		res.Corrected += n
		res.MaxBitflips = max(res.MaxBitflips, n)
	}

	if len(failed) > 0 {
		res.Failed = true
		return res, &UncorrectableError{Page: page, Steps: failed}
	}
	return res, nil
}
