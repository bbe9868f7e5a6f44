// Package nand describes the raw flash collaborators the ECC engines sit on:
// page geometry, page-level read/program/erase and the placement of
// redundancy bytes inside the spare (out-of-band) area.
package nand

import (
	"errors"
	"fmt"
)

// ErasedByte is the value of every byte of an erased page.
const ErasedByte = 0xff

// BadBlockMarkerBytes is the number of spare bytes reserved at the start of
// the out-of-band area for the factory bad block marker.
const BadBlockMarkerBytes = 2

var (
	// ErrOutOfRange is returned for a page or block index beyond the chip.
	ErrOutOfRange = errors.New("nand: address out of range")

	// ErrBufferSize is returned when a data or oob buffer does not match the geometry.
	ErrBufferSize = errors.New("nand: buffer size does not match geometry")
)

// Geometry describes the page organisation of a chip.
type Geometry struct {
	PageSize      int `json:"page_size"`
	OOBSize       int `json:"oob_size"`
	PagesPerBlock int `json:"pages_per_block"`
	Blocks        int `json:"blocks"`
}

// Pages returns the number of pages on the chip.
func (g Geometry) Pages() int {
	return g.PagesPerBlock * g.Blocks
}

// RawPageSize is the size of a page including its spare area.
func (g Geometry) RawPageSize() int {
	return g.PageSize + g.OOBSize
}

// Validate checks the geometry is usable.
func (g Geometry) Validate() error {
	if g.PageSize <= 0 || g.PageSize&(g.PageSize-1) != 0 {
		return fmt.Errorf("page size must be a power of two, got %d", g.PageSize)
	}
	if g.OOBSize <= BadBlockMarkerBytes {
		return fmt.Errorf("oob size must exceed %d bytes, got %d", BadBlockMarkerBytes, g.OOBSize)
	}
	if g.PagesPerBlock <= 0 {
		return fmt.Errorf("pages per block must be positive, got %d", g.PagesPerBlock)
	}
	if g.Blocks <= 0 {
		return fmt.Errorf("block count must be positive, got %d", g.Blocks)
	}
	return nil
}

// CheckBuffers verifies data and oob have exactly the page and spare sizes.
func (g Geometry) CheckBuffers(data, oob []byte) error {
	if len(data) != g.PageSize {
		return fmt.Errorf("%w: data is %d bytes, page is %d", ErrBufferSize, len(data), g.PageSize)
	}
	if len(oob) != g.OOBSize {
		return fmt.Errorf("%w: oob is %d bytes, spare is %d", ErrBufferSize, len(oob), g.OOBSize)
	}
	return nil
}

// Chip is the raw page I/O primitive. Implementations move bytes without
// any error correction and are assumed reliable at the byte level.
type Chip interface {
	Geometry() Geometry
	ReadPage(page int, data, oob []byte) error
	ProgramPage(page int, data, oob []byte) error
	EraseBlock(block int) error
}

// IsErased reports whether every byte of buf holds the erase value.
func IsErased(buf []byte) bool {
	for _, b := range buf {
		if b != ErasedByte {
			return false
		}
	}
	return true
}

// Fill sets every byte of buf to the erase value.
func Fill(buf []byte) {
	for i := range buf {
		buf[i] = ErasedByte
	}
}
