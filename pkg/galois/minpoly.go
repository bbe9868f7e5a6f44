package galois

// Conjugates returns the cyclotomic coset of exponent i: the distinct values
// i*2^k mod n in generation order.
func (f *Field) Conjugates(i int) []int {
	i %= f.n
	if i < 0 {
		i += f.n
	}

	coset := []int{i}
	for e := (2 * i) % f.n; e != i; e = (2 * e) % f.n {
		coset = append(coset, e)
	}
	return coset
}

// MinimalPolynomial returns the minimal polynomial over GF(2) of alpha^i as
// a bit mask, bit k holding the coefficient of x^k.
func (f *Field) MinimalPolynomial(i int) uint64 {
	// coefficients in GF(2^m); product of (x + alpha^c) over the coset
	poly := []int{1}
	for _, c := range f.Conjugates(i) {
		root := int(f.alphaTo[c])
		next := make([]int, len(poly)+1)
		for k, coef := range poly {
			next[k+1] ^= coef
			next[k] ^= f.Mul(coef, root)
		}
		poly = next
	}

	var mask uint64
	for k, coef := range poly {
		switch coef {
		case 0:
		case 1:
			mask |= 1 << k
		default:
			// a coset product always lands in GF(2)
			panic("galois: minimal polynomial left the prime field")
		}
	}
	return mask
}
