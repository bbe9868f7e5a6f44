// Package galois implements the GF(2^m) lookup tables used by the PMECC
// BCH decoder.
//
// Elements are stored in their polynomial (bit-vector) representation. Every
// nonzero element is a power of the primitive element alpha, so multiplication
// and division reduce to additions of exponents through two tables:
//
//	alphaTo[i] = alpha^i           (i = 0..n, alphaTo[n] == alphaTo[0] == 1)
//	indexOf[e] = log_alpha(e)      (indexOf[0] == -1, undefined)
//
// where n = 2^m - 1 is the codeword length of the field.
package galois

import (
	"errors"
	"fmt"
)

// MinDegree and MaxDegree bound the field degrees supported by New.
const (
	MinDegree = 3
	MaxDegree = 14
)

// Undefined is the value stored in indexOf[0]: zero has no logarithm.
const Undefined = -1

var (
	// ErrInvalidDegree is returned for a field degree without a primitive polynomial.
	ErrInvalidDegree = errors.New("galois: unsupported field degree")

	// ErrCorruptTable is returned when preloaded tables break the log/antilog invariant.
	ErrCorruptTable = errors.New("galois: corrupt lookup table")
)

// primitiveTaps lists, per degree, the nonzero terms of the primitive
// polynomial other than x^0 and x^m.
var primitiveTaps = map[int][]int{
	3:  {1},
	4:  {1},
	5:  {2},
	6:  {1},
	7:  {3},
	8:  {2, 3, 4},
	9:  {4},
	10: {3},
	11: {2},
	12: {1, 4, 6},
	13: {1, 3, 4},
	14: {1, 6, 10},
}

// Field is GF(2^m) described by its exponent and logarithm tables.
// A Field is immutable once built and safe for concurrent readers.
type Field struct {
	m       int
	n       int
	alphaTo []int16
	indexOf []int16
}

// New builds the lookup tables for GF(2^m) from the fixed primitive
// polynomial of degree m.
func New(m int) (*Field, error) {
	taps, ok := primitiveTaps[m]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDegree, m)
	}

	n := 1<<m - 1
	f := &Field{
		m:       m,
		n:       n,
		alphaTo: make([]int16, n+1),
		indexOf: make([]int16, n+1),
	}

	// alpha^m expressed in the lower powers: 1 + the taps
	poly := 1
	for _, t := range taps {
		poly |= 1 << t
	}
	f.alphaTo[m] = int16(poly)

	// alpha^0 .. alpha^(m-1) have degree < m, so they are plain shifts
	mask := 1
	for i := 0; i < m; i++ {
		f.alphaTo[i] = int16(mask)
		f.indexOf[mask] = int16(i)
		mask <<= 1
	}
	f.indexOf[poly] = int16(m)

	// msb of the LFSR
	mask >>= 1

	for i := m + 1; i <= n; i++ {
		prev := int(f.alphaTo[i-1])
		if prev&mask != 0 {
			f.alphaTo[i] = int16(poly ^ ((prev ^ mask) << 1))
		} else {
			f.alphaTo[i] = int16(prev << 1)
		}
		f.indexOf[f.alphaTo[i]] = int16(i % n)
	}

	f.indexOf[0] = Undefined

	return f, nil
}

// MustNew is like New but panics on an unsupported degree.
func MustNew(m int) *Field {
	f, err := New(m)
	if err != nil {
		panic(err)
	}
	return f
}

// FromTables wraps externally supplied tables, typically copied out of an
// on-chip ROM. Both tables must hold 2^m entries and satisfy the field
// invariant.
func FromTables(m int, indexOf, alphaTo []int16) (*Field, error) {
	if m < MinDegree || m > MaxDegree {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDegree, m)
	}

	n := 1<<m - 1
	if len(indexOf) != n+1 || len(alphaTo) != n+1 {
		return nil, fmt.Errorf("%w: want %d entries, got index_of=%d alpha_to=%d",
			ErrCorruptTable, n+1, len(indexOf), len(alphaTo))
	}

	f := &Field{
		m:       m,
		n:       n,
		alphaTo: append([]int16(nil), alphaTo...),
		indexOf: append([]int16(nil), indexOf...),
	}
	if err := f.Verify(); err != nil {
		return nil, err
	}
	return f, nil
}

// Verify checks that indexOf is the exact inverse of alphaTo.
func (f *Field) Verify() error {
	if f.indexOf[0] != Undefined {
		return fmt.Errorf("%w: index_of[0] = %d", ErrCorruptTable, f.indexOf[0])
	}
	for e := 1; e <= f.n; e++ {
		k := int(f.indexOf[e])
		if k < 0 || k >= f.n || int(f.alphaTo[k]) != e {
			return fmt.Errorf("%w: alpha_to[index_of[%d]] != %d", ErrCorruptTable, e, e)
		}
	}
	for k := 0; k <= f.n; k++ {
		e := int(f.alphaTo[k])
		if e <= 0 || e > f.n || int(f.indexOf[e]) != k%f.n {
			return fmt.Errorf("%w: index_of[alpha_to[%d]] != %d", ErrCorruptTable, k, k%f.n)
		}
	}
	return nil
}

// Degree returns m.
func (f *Field) Degree() int { return f.m }

// Len returns the codeword length n = 2^m - 1.
func (f *Field) Len() int { return f.n }

// AlphaTo returns alpha^i for 0 <= i <= n.
func (f *Field) AlphaTo(i int) int { return int(f.alphaTo[i]) }

// IndexOf returns log_alpha(e), or Undefined for zero.
func (f *Field) IndexOf(e int) int { return int(f.indexOf[e]) }

// Exp returns alpha^k for any integer exponent.
func (f *Field) Exp(k int) int {
	k %= f.n
	if k < 0 {
		k += f.n
	}
	return int(f.alphaTo[k])
}

// Mul multiplies two field elements.
func (f *Field) Mul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return int(f.alphaTo[(int(f.indexOf[a])+int(f.indexOf[b]))%f.n])
}

// Div divides a by b. It panics if b is zero.
func (f *Field) Div(a, b int) int {
	if b == 0 {
		panic("galois: division by zero")
	}
	if a == 0 {
		return 0
	}
	return int(f.alphaTo[(int(f.indexOf[a])+f.n-int(f.indexOf[b]))%f.n])
}

// Inv returns the multiplicative inverse of a nonzero element.
func (f *Field) Inv(a int) int {
	return f.Div(1, a)
}

// Square returns a*a. In characteristic 2 this is the Frobenius map.
func (f *Field) Square(a int) int {
	if a == 0 {
		return 0
	}
	return int(f.alphaTo[(2*int(f.indexOf[a]))%f.n])
}

// Pow raises a to the k-th power, k >= 0.
func (f *Field) Pow(a, k int) int {
	if k == 0 {
		return 1
	}
	if a == 0 {
		return 0
	}
	return f.Exp(int(f.indexOf[a]) * k)
}
