package pmecc

// correctSector flips the located bits of one sector. Positions below the
// sector size address data, the following BytesPerSector bytes address the
// sector's slice of ecc. Every position is checked before any bit is
// touched.
func correctSector(roots []int, sector, ecc []byte, index int, p Params) (int, error) {
	limit := p.SectorSize + p.BytesPerSector

	for _, r := range roots {
		pos := r - 1
		if pos < 0 || pos/8 >= limit {
			return 0, &InternalConsistencyError{Sector: index, Position: pos, Limit: limit}
		}
	}

	for _, r := range roots {
		pos := r - 1
		bytePos := pos / 8
		bitPos := pos % 8

		if bytePos < p.SectorSize {
			sector[bytePos] ^= 1 << bitPos
		} else {
			// bit flip in the redundancy bytes
			ecc[index*p.BytesPerSector+bytePos-p.SectorSize] ^= 1 << bitPos
		}
	}

	return len(roots), nil
}
