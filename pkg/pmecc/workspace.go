package pmecc

import (
	"github.com/Davincible/pmecc/pkg/galois"
)

// Workspace is the scratch state of the per-sector decode pipeline. It is
// sized once from the capability and reused for every sector; it must not
// be shared between concurrent page operations.
type Workspace struct {
	field *galois.Field
	cap   int

	partialSyn []int // raw remainders, odd indices 1..2cap-1
	si         []int // syndromes S_1..S_2cap

	smu   [][]int // sigma rows 0..cap+1, 2cap+1 coefficients each
	lmu   []int   // doubled polynomial degree per row
	mu    []int   // doubled iteration index per row
	dmu   []int   // discrepancy per row
	delta []int   // order per row
}

// NewWorkspace allocates the scratch buffers for a capability.
func NewWorkspace(f *galois.Field, capability int) *Workspace {
	num := 2*capability + 1
	rows := capability + 2

	ws := &Workspace{
		field:      f,
		cap:        capability,
		partialSyn: make([]int, num),
		si:         make([]int, num),
		smu:        make([][]int, rows),
		lmu:        make([]int, rows),
		mu:         make([]int, rows),
		dmu:        make([]int, rows),
		delta:      make([]int, rows),
	}
	for i := range ws.smu {
		ws.smu[i] = make([]int, num)
	}
	return ws
}

// Capability returns the correction capability the workspace was sized for.
func (ws *Workspace) Capability() int { return ws.cap }

// Syndromes returns S_0..S_2cap; index 0 is unused.
func (ws *Workspace) Syndromes() []int { return ws.si }

// Sigma returns the coefficients of the final error locator polynomial,
// constant term first. Only valid after solve.
func (ws *Workspace) Sigma() []int {
	deg := ws.lmu[ws.cap+1] >> 1
	row := ws.smu[ws.cap+1]
	if deg+1 > len(row) {
		return row
	}
	return row[:deg+1]
}
