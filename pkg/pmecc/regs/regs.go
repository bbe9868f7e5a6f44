// Package regs defines the register map of the PMECC controller and of its
// error location (PMERRLOC) unit.
package regs

// Bank selects one of the two register windows.
type Bank uint8

const (
	// PMECC is the syndrome/redundancy accumulator.
	PMECC Bank = iota
	// ErrLoc is the error location (Chien search) unit.
	ErrLoc
)

func (b Bank) String() string {
	switch b {
	case PMECC:
		return "pmecc"
	case ErrLoc:
		return "pmerrloc"
	default:
		return "unknown"
	}
}

// PMECC register offsets.
const (
	CFG   uint32 = 0x000 // configuration
	SAREA uint32 = 0x004 // spare area size
	SADDR uint32 = 0x008 // ECC start address in spare
	EADDR uint32 = 0x00c // ECC end address in spare
	CLK   uint32 = 0x010 // clock control
	CTRL  uint32 = 0x014 // control
	SR    uint32 = 0x018 // status
	IER   uint32 = 0x01c // interrupt enable
	IDR   uint32 = 0x020 // interrupt disable
	IMR   uint32 = 0x024 // interrupt mask
	ISR   uint32 = 0x028 // per-sector error status

	eccBase    uint32 = 0x040
	remBase    uint32 = 0x240
	sectorSpan uint32 = 0x040
)

// ECC returns the offset of the 32-bit word holding redundancy bytes
// 4*word..4*word+3 of a sector.
func ECC(sector, word int) uint32 {
	return eccBase + uint32(sector)*sectorSpan + uint32(word)*4
}

// REM returns the offset of remainder word n of a sector. Each word packs
// two 16-bit partial syndromes, the lower one first.
func REM(sector, n int) uint32 {
	return remBase + uint32(sector)*sectorSpan + uint32(n)*4
}

// MaxSectors is the number of sectors the ECC/REM windows can address.
const MaxSectors = 8

// CFG fields.
const (
	CfgBCHErr2  uint32 = 0
	CfgBCHErr4  uint32 = 1
	CfgBCHErr8  uint32 = 2
	CfgBCHErr12 uint32 = 3
	CfgBCHErr24 uint32 = 4
	CfgBCHMask  uint32 = 0x7

	CfgSector512  uint32 = 0 << 4
	CfgSector1024 uint32 = 1 << 4

	CfgPage1Sector  uint32 = 0 << 8
	CfgPage2Sectors uint32 = 1 << 8
	CfgPage4Sectors uint32 = 2 << 8
	CfgPage8Sectors uint32 = 3 << 8
	CfgPageMask     uint32 = 3 << 8

	CfgReadOp  uint32 = 0 << 12
	CfgWriteOp uint32 = 1 << 12

	CfgSpareEnable  uint32 = 1 << 16
	CfgSpareDisable uint32 = 0 << 16

	CfgAutoEnable  uint32 = 1 << 20
	CfgAutoDisable uint32 = 0 << 20
)

// CTRL commands.
const (
	CtrlRst     uint32 = 1 << 0
	CtrlData    uint32 = 1 << 1
	CtrlUser    uint32 = 1 << 2
	CtrlEnable  uint32 = 1 << 4
	CtrlDisable uint32 = 1 << 5
)

// SR bits.
const (
	SRBusy   uint32 = 1 << 0
	SREnable uint32 = 1 << 4
)

// PMERRLOC register offsets.
const (
	ELCFG  uint32 = 0x000 // configuration
	ELPRIM uint32 = 0x004 // primitive polynomial
	ELEN   uint32 = 0x008 // search length in bits
	ELDIS  uint32 = 0x00c // disable
	ELSR   uint32 = 0x010 // status
	ELIER  uint32 = 0x014 // interrupt enable
	ELIDR  uint32 = 0x018 // interrupt disable
	ELIMR  uint32 = 0x01c // interrupt mask
	ELISR  uint32 = 0x020 // interrupt status

	sigmaBase uint32 = 0x028
	elBase    uint32 = 0x08c
)

// SIGMA returns the offset of locator polynomial coefficient i.
func SIGMA(i int) uint32 {
	return sigmaBase + uint32(i)*4
}

// EL returns the offset of error location result i.
func EL(i int) uint32 {
	return elBase + uint32(i)*4
}

// MaxSigma is the number of SIGMA registers (degree 24 plus the constant term).
const MaxSigma = 25

// PMERRLOC fields.
const (
	ELCfgSector512  uint32 = 0
	ELCfgSector1024 uint32 = 1
	ELCfgNumShift          = 16

	ELDisable uint32 = 1 << 0

	ELBusy uint32 = 1 << 0

	ELCalcDone    uint32 = 1 << 0
	ELErrNumMask  uint32 = 0x1f << 8
	ELErrNumShift        = 8
)

// BCHErr maps a correction capability to its CFG field.
func BCHErr(capability int) (uint32, bool) {
	switch capability {
	case 2:
		return CfgBCHErr2, true
	case 4:
		return CfgBCHErr4, true
	case 8:
		return CfgBCHErr8, true
	case 12:
		return CfgBCHErr12, true
	case 24:
		return CfgBCHErr24, true
	}
	return 0, false
}

// Capability is the inverse of BCHErr.
func Capability(cfg uint32) int {
	switch cfg & CfgBCHMask {
	case CfgBCHErr2:
		return 2
	case CfgBCHErr4:
		return 4
	case CfgBCHErr8:
		return 8
	case CfgBCHErr12:
		return 12
	case CfgBCHErr24:
		return 24
	}
	return 0
}

// PageSectors maps a sectors-per-page count to its CFG field.
func PageSectors(n int) (uint32, bool) {
	switch n {
	case 1:
		return CfgPage1Sector, true
	case 2:
		return CfgPage2Sectors, true
	case 4:
		return CfgPage4Sectors, true
	case 8:
		return CfgPage8Sectors, true
	}
	return 0, false
}

// Sectors is the inverse of PageSectors.
func Sectors(cfg uint32) int {
	return 1 << ((cfg & CfgPageMask) >> 8)
}

// SectorSize decodes the sector size field of CFG.
func SectorSize(cfg uint32) int {
	if cfg&CfgSector1024 != 0 {
		return 1024
	}
	return 512
}
