package sim

import (
	"math/big"
	"math/bits"
	"sync"

	"github.com/Davincible/pmecc/pkg/galois"
)

type codeKey struct {
	m, capability int
}

// code holds the polynomials of one BCH code.
type code struct {
	field     *galois.Field
	generator *big.Int // product of the distinct minimal polynomials
	parity    int      // m*cap redundancy bits
	minimal   []uint64 // m_(2k+1), k = 0..cap-1
}

var (
	codesMu sync.Mutex
	codes   = map[codeKey]*code{}
)

func lookupCode(m, capability int) (*code, error) {
	codesMu.Lock()
	defer codesMu.Unlock()

	key := codeKey{m, capability}
	if c, ok := codes[key]; ok {
		return c, nil
	}

	f, err := galois.New(m)
	if err != nil {
		return nil, err
	}

	c := &code{
		field:     f,
		generator: big.NewInt(1),
		parity:    m * capability,
		minimal:   make([]uint64, capability),
	}

	seen := map[int]bool{}
	for k := 0; k < capability; k++ {
		i := 2*k + 1
		c.minimal[k] = f.MinimalPolynomial(i)

		rep := cosetLeader(f.Conjugates(i))
		if seen[rep] {
			continue
		}
		seen[rep] = true
		c.generator = clmul(c.generator, new(big.Int).SetUint64(c.minimal[k]))
	}

	codes[key] = c
	return c, nil
}

func cosetLeader(coset []int) int {
	leader := coset[0]
	for _, e := range coset[1:] {
		leader = min(leader, e)
	}
	return leader
}

// clmul multiplies two GF(2) polynomials held as bit masks.
func clmul(a, b *big.Int) *big.Int {
	out := new(big.Int)
	shifted := new(big.Int)
	for i := 0; i < a.BitLen(); i++ {
		if a.Bit(i) == 1 {
			shifted.Lsh(b, uint(i))
			out.Xor(out, shifted)
		}
	}
	return out
}

// bitAt returns stream bit p of buf: byte p/8, least significant bit first.
func bitAt(buf []byte, p int) uint {
	return uint(buf[p/8]>>(p%8)) & 1
}

// encode returns the redundancy bytes of one sector: the coefficients of
// d(x)*x^P mod g(x), coefficient e stored as parity bit P-1-e.
func (c *code) encode(data []byte, eccBytes int) []byte {
	deg := c.generator.BitLen() - 1
	r := new(big.Int)

	step := func(b uint) {
		r.Lsh(r, 1)
		if b == 1 {
			r.SetBit(r, 0, 1)
		}
		if r.Bit(deg) == 1 {
			r.Xor(r, c.generator)
		}
	}

	for p := 0; p < len(data)*8; p++ {
		step(bitAt(data, p))
	}
	for q := 0; q < c.parity; q++ {
		step(0)
	}

	ecc := make([]byte, eccBytes)
	for e := 0; e < r.BitLen(); e++ {
		if r.Bit(e) == 1 {
			q := c.parity - 1 - e
			ecc[q/8] |= 1 << (q % 8)
		}
	}
	return ecc
}

// remainders divides the received codeword, sector data followed by the
// first P redundancy bits, by each odd minimal polynomial.
func (c *code) remainders(data, ecc []byte) []uint16 {
	out := make([]uint16, len(c.minimal))
	total := len(data)*8 + c.parity

	for k, poly := range c.minimal {
		deg := bits.Len64(poly) - 1
		var r uint64
		for p := 0; p < total; p++ {
			var b uint
			if p < len(data)*8 {
				b = bitAt(data, p)
			} else {
				b = bitAt(ecc, p-len(data)*8)
			}
			r = r<<1 | uint64(b)
			if r&(1<<deg) != 0 {
				r ^= poly
			}
		}
		out[k] = uint16(r)
	}
	return out
}

// search evaluates sigma at alpha^-e for the codeword bit at each stream
// position below length and returns the 1-based positions of the roots.
func (c *code) search(sigma []int, codeword, length int) []int {
	f := c.field
	n := f.Len()

	var roots []int
	for p := 0; p < length; p++ {
		e := codeword - 1 - p
		inv := (n - e%n) % n

		sum := 0
		for k, coef := range sigma {
			if coef == 0 {
				continue
			}
			sum ^= f.Mul(coef, f.Exp(inv*k))
		}
		if sum == 0 {
			roots = append(roots, p+1)
		}
	}
	return roots
}
