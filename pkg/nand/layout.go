package nand

import "fmt"

// Layout maps the logical redundancy bytes of a page to spare-area offsets.
type Layout interface {
	// Place copies ecc into its slots inside oob.
	Place(ecc, oob []byte) error
	// Extract gathers the redundancy bytes from oob into ecc.
	Extract(oob, ecc []byte) error
}

// LargePage keeps the bad block marker in bytes 0-1 and stores the
// redundancy bytes contiguously at the end of the spare area. Everything in
// between is free for the upper layers.
type LargePage struct {
	ECCBytes int
}

// Offset returns the first spare byte holding redundancy.
func (l LargePage) Offset(oobSize int) int {
	return oobSize - l.ECCBytes
}

func (l LargePage) check(ecc, oob []byte) error {
	if len(ecc) != l.ECCBytes {
		return fmt.Errorf("%w: %d ecc bytes, layout holds %d", ErrBufferSize, len(ecc), l.ECCBytes)
	}
	if l.ECCBytes > len(oob)-BadBlockMarkerBytes {
		return fmt.Errorf("%w: %d ecc bytes do not fit a %d byte spare area", ErrBufferSize, l.ECCBytes, len(oob))
	}
	return nil
}

// Place implements Layout.
func (l LargePage) Place(ecc, oob []byte) error {
	if err := l.check(ecc, oob); err != nil {
		return err
	}
	copy(oob[l.Offset(len(oob)):], ecc)
	return nil
}

// Extract implements Layout.
func (l LargePage) Extract(oob, ecc []byte) error {
	if err := l.check(ecc, oob); err != nil {
		return err
	}
	copy(ecc, oob[l.Offset(len(oob)):])
	return nil
}

// Positions lists explicit spare offsets, one per redundancy byte.
type Positions []int

// SmallPage is the classic 16 byte spare layout of 512 byte pages: six
// redundancy bytes around the bad block marker in byte 5.
func SmallPage() Positions {
	return Positions{0, 1, 2, 3, 6, 7}
}

func (p Positions) check(ecc, oob []byte) error {
	if len(ecc) > len(p) {
		return fmt.Errorf("%w: %d ecc bytes, layout holds %d", ErrBufferSize, len(ecc), len(p))
	}
	for _, pos := range p[:len(ecc)] {
		if pos < 0 || pos >= len(oob) {
			return fmt.Errorf("%w: ecc slot %d outside %d byte spare area", ErrOutOfRange, pos, len(oob))
		}
	}
	return nil
}

// Place implements Layout.
func (p Positions) Place(ecc, oob []byte) error {
	if err := p.check(ecc, oob); err != nil {
		return err
	}
	for i, b := range ecc {
		oob[p[i]] = b
	}
	return nil
}

// Extract implements Layout.
func (p Positions) Extract(oob, ecc []byte) error {
	if err := p.check(ecc, oob); err != nil {
		return err
	}
	for i := range ecc {
		ecc[i] = oob[p[i]]
	}
	return nil
}
