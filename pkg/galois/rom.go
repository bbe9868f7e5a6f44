package galois

import (
	"encoding/binary"
	"fmt"
)

// TableSize returns the number of int16 entries of each table in a lookup
// ROM for degree m.
func TableSize(m int) int {
	return 1 << m
}

// ROMSize returns the byte length of one lookup ROM region (index_of
// followed by alpha_to) for degree m.
func ROMSize(m int) int {
	return 2 * TableSize(m) * 2
}

// FromROM loads the tables from a lookup ROM image. At byte offset the ROM
// holds the index_of table followed immediately by the alpha_to table, both
// little-endian int16 with 2^m entries.
func FromROM(rom []byte, m, offset int) (*Field, error) {
	if m < MinDegree || m > MaxDegree {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDegree, m)
	}
	if offset < 0 || offset+ROMSize(m) > len(rom) {
		return nil, fmt.Errorf("%w: region [%d, %d) outside %d byte rom",
			ErrCorruptTable, offset, offset+ROMSize(m), len(rom))
	}

	size := TableSize(m)
	indexOf := make([]int16, size)
	alphaTo := make([]int16, size)

	region := rom[offset:]
	for i := 0; i < size; i++ {
		indexOf[i] = int16(binary.LittleEndian.Uint16(region[2*i:]))
		alphaTo[i] = int16(binary.LittleEndian.Uint16(region[2*(size+i):]))
	}

	return FromTables(m, indexOf, alphaTo)
}

// ROM encodes the field in the lookup ROM layout read by FromROM.
func (f *Field) ROM() []byte {
	size := TableSize(f.m)
	rom := make([]byte, ROMSize(f.m))
	for i := 0; i < size; i++ {
		binary.LittleEndian.PutUint16(rom[2*i:], uint16(f.indexOf[i]))
		binary.LittleEndian.PutUint16(rom[2*(size+i):], uint16(f.alphaTo[i]))
	}
	return rom
}
