// Package hamming implements the software single-bit correcting ECC used
// when a page size is not handled by the PMECC accelerator.
//
// Every 256 byte step gets 3 bytes of line and column parity in the
// SmartMedia layout: code[0] holds the inverted line parities rp7..rp0,
// code[1] rp15..rp8 and code[2] the column parities cp5..cp0 in bits 7..2.
// An erased step (all 0xff) has the code ff ff ff.
package hamming

import (
	"errors"
	"fmt"
	"math/bits"
)

const (
	// StepSize is the number of data bytes covered by one code.
	StepSize = 256
	// EccSize is the number of code bytes per step.
	EccSize = 3
)

// ErrUncorrectable is returned when a step holds more than one bit error.
var ErrUncorrectable = errors.New("hamming: uncorrectable error")

// Calculate computes the code of one step.
func Calculate(step []byte) [EccSize]byte {
	if len(step) != StepSize {
		panic(fmt.Sprintf("hamming: step is %d bytes, want %d", len(step), StepSize))
	}

	var col byte  // column parity accumulator
	var addr byte // xor of the indices of odd parity bytes
	odd := 0

	for i, b := range step {
		col ^= b
		if bits.OnesCount8(b)&1 != 0 {
			addr ^= byte(i)
			odd ^= 1
		}
	}

	// rp(2k+1) is bit k of addr, rp(2k) its complement when the block
	// parity is odd
	oddLines := addr
	evenLines := addr
	if odd != 0 {
		evenLines = ^addr
	}

	rp := interleave(evenLines, oddLines)
	cp := parity(col&0x55) |
		parity(col&0xaa)<<1 |
		parity(col&0x33)<<2 |
		parity(col&0xcc)<<3 |
		parity(col&0x0f)<<4 |
		parity(col&0xf0)<<5

	return [EccSize]byte{
		^byte(rp),
		^byte(rp >> 8),
		^(cp << 2),
	}
}

// Correct compares the stored code with the calculated one and repairs a
// single bit error in step. It returns the number of corrected bits; a
// single flipped bit in the code itself counts as one.
func Correct(step []byte, read, calc [EccSize]byte) (int, error) {
	b0 := read[0] ^ calc[0]
	b1 := read[1] ^ calc[1]
	b2 := read[2] ^ calc[2]

	if b0|b1|b2 == 0 {
		return 0, nil
	}

	if (b0^(b0>>1))&0x55 == 0x55 &&
		(b1^(b1>>1))&0x55 == 0x55 &&
		(b2^(b2>>1))&0x54 == 0x54 {
		offset := oddBits(b1)<<4 | oddBits(b0)
		bit := (b2>>3)&1 | (b2>>5)&1<<1 | (b2>>7)&1<<2
		step[offset] ^= 1 << bit
		return 1, nil
	}

	if bits.OnesCount8(b0)+bits.OnesCount8(b1)+bits.OnesCount8(b2) == 1 {
		return 1, nil
	}

	return 0, ErrUncorrectable
}

func parity(b byte) byte {
	return byte(bits.OnesCount8(b) & 1)
}

// interleave places bit k of even at bit 2k and bit k of odd at 2k+1.
func interleave(even, odd byte) uint16 {
	var out uint16
	for k := 0; k < 8; k++ {
		out |= uint16(even>>k&1) << (2 * k)
		out |= uint16(odd>>k&1) << (2*k + 1)
	}
	return out
}

// oddBits gathers bits 1, 3, 5 and 7 of b into a nibble.
func oddBits(b byte) byte {
	return (b>>1)&1 | (b>>3)&1<<1 | (b>>5)&1<<2 | (b>>7)&1<<3
}
