package pmecc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/pmecc/pkg/galois"
)

// loadSyndromes fills S_1..S_2cap for errors at the given exponents.
func loadSyndromes(ws *Workspace, exponents []int) {
	f := ws.field
	for j := 1; j <= 2*ws.cap; j++ {
		s := 0
		for _, e := range exponents {
			s ^= f.Exp(j * e)
		}
		ws.si[j] = s
	}
}

func evalSigma(f *galois.Field, sigma []int, x int) int {
	sum := 0
	for k, coef := range sigma {
		sum ^= f.Mul(coef, f.Pow(x, k))
	}
	return sum
}

func TestSolveFindsLocator(t *testing.T) {
	f := galois.MustNew(13)
	rng := rand.New(rand.NewSource(1))

	for _, capability := range []int{2, 4, 8, 12, 24} {
		ws := NewWorkspace(f, capability)

		for errs := 0; errs <= capability; errs++ {
			exponents := rng.Perm(4096 + 13*capability)[:errs]
			loadSyndromes(ws, exponents)

			degree := ws.solve()
			require.Equal(t, errs, degree, "cap %d, %d errors", capability, errs)

			sigma := ws.Sigma()
			require.Len(t, sigma, degree+1)
			assert.Equal(t, 1, sigma[0])
			for _, e := range exponents {
				assert.Zero(t, evalSigma(f, sigma, f.Exp(-e)), "cap %d: root for exponent %d", capability, e)
			}
		}
	}
}

func TestSolveReusesWorkspace(t *testing.T) {
	f := galois.MustNew(14)
	ws := NewWorkspace(f, 8)

	loadSyndromes(ws, []int{5, 900, 7000, 8000, 12, 3})
	require.Equal(t, 6, ws.solve())
	first := append([]int(nil), ws.Sigma()...)

	loadSyndromes(ws, []int{77})
	require.Equal(t, 1, ws.solve())

	loadSyndromes(ws, []int{5, 900, 7000, 8000, 12, 3})
	require.Equal(t, 6, ws.solve())
	assert.Equal(t, first, ws.Sigma())
}

func TestSubstituteSquaresEvenSyndromes(t *testing.T) {
	f := galois.MustNew(13)
	ws := NewWorkspace(f, 4)

	ws.loadPartialSyndromes([]uint32{0x0001_0003, 0x0000_0100})

	assert.Equal(t, 3, ws.partialSyn[1])
	assert.Equal(t, 1, ws.partialSyn[3])
	assert.Equal(t, 0x100, ws.partialSyn[5])
	assert.Equal(t, 0, ws.partialSyn[7])

	ws.substitute()
	si := ws.Syndromes()

	// r(x) = 1 + x at alpha^1
	assert.Equal(t, 1^f.Exp(1), si[1])
	// r(x) = 1 at alpha^3
	assert.Equal(t, 1, si[3])
	// r(x) = x^8 at alpha^5
	assert.Equal(t, f.Exp(40), si[5])
	assert.Zero(t, si[7])

	for k := 1; k <= 4; k++ {
		assert.Equal(t, f.Square(si[k]), si[2*k], "S_%d", 2*k)
	}
}

func TestSolveZeroSyndromes(t *testing.T) {
	ws := NewWorkspace(galois.MustNew(13), 4)
	loadSyndromes(ws, nil)
	assert.Zero(t, ws.solve())
	assert.Equal(t, []int{1}, ws.Sigma())
}

func TestRhoLowestIndexWinsTie(t *testing.T) {
	ws := NewWorkspace(galois.MustNew(13), 8)

	copy(ws.dmu, []int{1, 5, 0, 7, 9, 3})
	copy(ws.delta, []int{-1, 2, 4, 2, 2, 1})

	// row 2 has the largest order but no discrepancy
	assert.Equal(t, 1, ws.rho(5))
	assert.Equal(t, 1, ws.rho(4))
	assert.Equal(t, 0, ws.rho(1))

	ws.delta[4] = 3
	assert.Equal(t, 4, ws.rho(5))
	assert.Equal(t, 1, ws.rho(4))
}
