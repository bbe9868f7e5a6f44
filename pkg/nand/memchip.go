package nand

import (
	"fmt"
)

// MemChip is an in-memory chip. Programming follows NAND semantics: bits
// can only be cleared, and only an erase sets them again.
type MemChip struct {
	geom Geometry
	raw  []byte
}

// NewMemChip returns a fully erased chip.
func NewMemChip(geom Geometry) (*MemChip, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	raw := make([]byte, geom.Pages()*geom.RawPageSize())
	Fill(raw)
	return &MemChip{geom: geom, raw: raw}, nil
}

// NewMemChipFromImage wraps a raw dump laid out as consecutive
// data+oob pages.
func NewMemChipFromImage(geom Geometry, image []byte) (*MemChip, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	if want := geom.Pages() * geom.RawPageSize(); len(image) != want {
		return nil, fmt.Errorf("%w: image is %d bytes, geometry needs %d", ErrBufferSize, len(image), want)
	}
	return &MemChip{geom: geom, raw: image}, nil
}

// Geometry implements Chip.
func (c *MemChip) Geometry() Geometry { return c.geom }

// Image returns the raw backing store. The slice aliases the chip.
func (c *MemChip) Image() []byte { return c.raw }

func (c *MemChip) page(page int) ([]byte, error) {
	if page < 0 || page >= c.geom.Pages() {
		return nil, fmt.Errorf("%w: page %d of %d", ErrOutOfRange, page, c.geom.Pages())
	}
	size := c.geom.RawPageSize()
	return c.raw[page*size : (page+1)*size], nil
}

// ReadPage implements Chip.
func (c *MemChip) ReadPage(page int, data, oob []byte) error {
	if err := c.geom.CheckBuffers(data, oob); err != nil {
		return err
	}
	raw, err := c.page(page)
	if err != nil {
		return err
	}
	copy(data, raw[:c.geom.PageSize])
	copy(oob, raw[c.geom.PageSize:])
	return nil
}

// ProgramPage implements Chip.
func (c *MemChip) ProgramPage(page int, data, oob []byte) error {
	if err := c.geom.CheckBuffers(data, oob); err != nil {
		return err
	}
	raw, err := c.page(page)
	if err != nil {
		return err
	}
	for i, b := range data {
		raw[i] &= b
	}
	for i, b := range oob {
		raw[c.geom.PageSize+i] &= b
	}
	return nil
}

// EraseBlock implements Chip.
func (c *MemChip) EraseBlock(block int) error {
	if block < 0 || block >= c.geom.Blocks {
		return fmt.Errorf("%w: block %d of %d", ErrOutOfRange, block, c.geom.Blocks)
	}
	size := c.geom.RawPageSize() * c.geom.PagesPerBlock
	Fill(c.raw[block*size : (block+1)*size])
	return nil
}

// FlipBit inverts one bit of a page. Offsets past the page size address the
// spare area. It bypasses program semantics and is meant for fault injection.
func (c *MemChip) FlipBit(page, offset, bit int) error {
	raw, err := c.page(page)
	if err != nil {
		return err
	}
	if offset < 0 || offset >= len(raw) || bit < 0 || bit > 7 {
		return fmt.Errorf("%w: byte %d bit %d of page %d", ErrOutOfRange, offset, bit, page)
	}
	raw[offset] ^= 1 << bit
	return nil
}
