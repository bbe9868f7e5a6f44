package pmecc

// remainderWords is the number of 32-bit REM words holding cap partial
// syndromes of 16 bits each.
func remainderWords(capability int) int {
	return (capability + 1) / 2
}

// loadPartialSyndromes unpacks the accumulator remainder words of one
// sector. Partial syndrome i (i = 0..cap-1) sits in word i/2, in the upper
// half for odd i, and lands at odd index 2i+1.
func (ws *Workspace) loadPartialSyndromes(rem []uint32) {
	for i := 0; i < ws.cap; i++ {
		value := rem[i/2]
		if i&1 != 0 {
			value >>= 16
		}
		value &= 0xffff
		ws.partialSyn[2*i+1] = int(value)
	}
}

// substitute evaluates the remainders at alpha^i to get the odd syndromes,
// then squares them into the even ones.
func (ws *Workspace) substitute() {
	f := ws.field
	m := f.Degree()
	n := f.Len()
	si := ws.si

	for i := 1; i <= 2*ws.cap; i++ {
		si[i] = 0
	}

	for i := 1; i < 2*ws.cap; i += 2 {
		for j := 0; j < m; j++ {
			if ws.partialSyn[i]&(1<<j) != 0 {
				si[i] ^= f.AlphaTo((i * j) % n)
			}
		}
	}

	// S_2k = S_k^2
	for k := 1; k <= ws.cap; k++ {
		if si[k] == 0 {
			si[2*k] = 0
			continue
		}
		si[2*k] = f.AlphaTo((2 * f.IndexOf(si[k])) % n)
	}
}
