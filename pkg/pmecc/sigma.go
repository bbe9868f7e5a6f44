package pmecc

// solve runs the inverse-free Berlekamp iteration for binary BCH codes over
// the syndromes and leaves the error locator polynomial in row cap+1.
// Degrees (lmu) and iteration indices (mu) are kept doubled so that the
// half step of row 0 stays integral. It returns the locator degree.
func (ws *Workspace) solve() int {
	f := ws.field
	n := f.Len()
	capability := ws.cap
	num := 2*capability + 1
	last := capability + 1

	si := ws.si
	smu := ws.smu
	lmu := ws.lmu
	mu := ws.mu
	dmu := ws.dmu
	delta := ws.delta

	zeroCount := 0

	// row 0: sigma = 1, discrepancy 1, mu = -1/2
	mu[0] = -1
	clear(smu[0])
	smu[0][0] = 1
	dmu[0] = 1
	lmu[0] = 0
	delta[0] = (mu[0]*2 - lmu[0]) >> 1

	// row 1: sigma = 1, discrepancy S1
	mu[1] = 0
	clear(smu[1])
	smu[1][0] = 1
	dmu[1] = si[1]
	lmu[1] = 0
	delta[1] = (mu[1]*2 - lmu[1]) >> 1

	clear(smu[last])

	for i := 1; i <= capability; i++ {
		mu[i+1] = i << 1

		if dmu[i] == 0 {
			zeroCount++

			rest := capability - (lmu[i] >> 1) - 1
			threshold := rest / 2
			if rest&1 != 0 {
				threshold += 2
			} else {
				threshold++
			}

			if zeroCount == threshold {
				for j := 0; j <= (lmu[i]>>1)+1 && j < num; j++ {
					smu[last][j] = smu[i][j]
				}
				lmu[last] = lmu[i]
				return lmu[last] >> 1
			}

			clear(smu[i+1])
			for j := 0; j <= lmu[i]>>1 && j < num; j++ {
				smu[i+1][j] = smu[i][j]
			}
			lmu[i+1] = lmu[i]
		} else {
			ro := ws.rho(i)
			diff := mu[i] - mu[ro]

			if lmu[i]>>1 > (lmu[ro]>>1)+diff {
				lmu[i+1] = lmu[i]
			} else {
				lmu[i+1] = ((lmu[ro] >> 1) + diff) * 2
			}

			// sigma_i+1 = sigma_i + d_i/d_rho * x^diff * sigma_rho
			clear(smu[i+1])
			for k := 0; k <= lmu[ro]>>1 && k < num; k++ {
				if smu[ro][k] == 0 {
					continue
				}
				if k+diff >= num {
					break
				}
				a := f.IndexOf(dmu[i])
				b := f.IndexOf(dmu[ro])
				c := f.IndexOf(smu[ro][k])
				smu[i+1][k+diff] = f.AlphaTo((a + (n - b) + c) % n)
			}

			for k := 0; k <= lmu[i]>>1 && k < num; k++ {
				smu[i+1][k] ^= smu[i][k]
			}
		}

		delta[i+1] = (mu[i+1]*2 - lmu[i+1]) >> 1

		// no discrepancy after the last iteration
		if i >= capability {
			continue
		}

		// d_i+1 = S_2i+1 + sum sigma_k * S_2i+1-k
		base := 2*i + 1
		dmu[i+1] = si[base]
		for k := 1; k <= lmu[i+1]>>1 && k < num; k++ {
			idx := base - k
			if idx < 1 {
				break
			}
			if smu[i+1][k] != 0 && si[idx] != 0 {
				a := f.IndexOf(smu[i+1][k])
				c := f.IndexOf(si[idx])
				dmu[i+1] ^= f.AlphaTo((a + c) % n)
			}
		}
	}

	return lmu[last] >> 1
}

// rho picks the earlier row with a nonzero discrepancy and the largest
// order. The lowest index wins a tie. Row 0 always qualifies.
func (ws *Workspace) rho(i int) int {
	ro := 0
	largest := -1
	for j := 0; j < i; j++ {
		if ws.dmu[j] != 0 && ws.delta[j] > largest {
			largest = ws.delta[j]
			ro = j
		}
	}
	return ro
}
