package pmecc

import (
	"fmt"

	"github.com/Davincible/pmecc/pkg/nand"
	"github.com/Davincible/pmecc/pkg/pmecc/regs"
)

// Supported field degrees.
const (
	Degree512  = 13
	Degree1024 = 14
)

// Params are the per-configuration constants derived once at setup.
//
// Redundancy bytes per sector for the supported combinations:
//
//	capability  512 byte sector  1024 byte sector
//	    2            4                 4
//	    4            7                 7
//	    8           13                14
//	   12           20                21
//	   24           39                42
type Params struct {
	Capability     int
	SectorSize     int
	SectorsPerPage int
	BytesPerSector int
	Degree         int // m
	CodewordLen    int // 2^m - 1

	PageSize int
	OOBSize  int
}

// FieldDegree returns m for a sector size.
func FieldDegree(sectorSize int) int {
	return 12 + sectorSize/512
}

// EccBytes returns the redundancy bytes per sector, ceil(m*cap/8).
func EccBytes(capability, sectorSize int) int {
	m := FieldDegree(sectorSize)
	return (m*capability + 7) / 8
}

// ValidCapability reports whether the controller supports the capability.
func ValidCapability(capability int) bool {
	_, ok := regs.BCHErr(capability)
	return ok
}

// ValidSectorSize reports whether the controller supports the sector size.
func ValidSectorSize(sectorSize int) bool {
	return sectorSize == 512 || sectorSize == 1024
}

// Resolve derives the ECC parameters for a chip. Page sizes the accelerator
// does not handle yield ErrFallbackToSoftware.
func Resolve(geom nand.Geometry, capability, sectorSize int) (Params, error) {
	if !ValidCapability(capability) {
		return Params{}, fmt.Errorf("%w: correction capability %d, should be 2, 4, 8, 12 or 24",
			ErrUnsupportedGeometry, capability)
	}
	if !ValidSectorSize(sectorSize) {
		return Params{}, fmt.Errorf("%w: sector size %d, should be 512 or 1024 bytes",
			ErrUnsupportedGeometry, sectorSize)
	}

	switch geom.PageSize {
	case 2048, 4096, 8192:
	default:
		return Params{}, fmt.Errorf("%w: page size %d", ErrFallbackToSoftware, geom.PageSize)
	}

	p := Params{
		Capability:     capability,
		SectorSize:     sectorSize,
		SectorsPerPage: geom.PageSize / sectorSize,
		BytesPerSector: EccBytes(capability, sectorSize),
		Degree:         FieldDegree(sectorSize),
		PageSize:       geom.PageSize,
		OOBSize:        geom.OOBSize,
	}
	p.CodewordLen = 1<<p.Degree - 1

	if _, ok := regs.PageSectors(p.SectorsPerPage); !ok {
		return Params{}, fmt.Errorf("%w: %d sectors per page", ErrUnsupportedGeometry, p.SectorsPerPage)
	}
	if p.EccTotal() > geom.OOBSize-nand.BadBlockMarkerBytes {
		return Params{}, fmt.Errorf("%w: no room for %d ecc bytes in %d byte spare area",
			ErrUnsupportedGeometry, p.EccTotal(), geom.OOBSize)
	}

	return p, nil
}

// EccTotal is the number of redundancy bytes per page.
func (p Params) EccTotal() int {
	return p.SectorsPerPage * p.BytesPerSector
}

// SearchLength is the codeword length in bits handed to the root search:
// sector data plus m*cap redundancy bits.
func (p Params) SearchLength() int {
	return p.SectorSize*8 + p.Degree*p.Capability
}

// Config returns the CFG register value for these parameters in read mode
// with automatic spare handling off.
func (p Params) Config() uint32 {
	bch, _ := regs.BCHErr(p.Capability)
	pages, _ := regs.PageSectors(p.SectorsPerPage)

	val := bch | pages
	if p.SectorSize == 1024 {
		val |= regs.CfgSector1024
	} else {
		val |= regs.CfgSector512
	}
	return val | regs.CfgReadOp | regs.CfgSpareDisable | regs.CfgAutoDisable
}

func (p Params) String() string {
	return fmt.Sprintf("cap=%d sector=%d sectors=%d ecc=%d/sector m=%d",
		p.Capability, p.SectorSize, p.SectorsPerPage, p.BytesPerSector, p.Degree)
}
