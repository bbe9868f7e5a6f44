package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/pmecc/pkg/pmecc/regs"
)

func TestCodeRemaindersOfCodeword(t *testing.T) {
	for _, tc := range []struct{ m, capability int }{{13, 2}, {13, 8}, {14, 4}, {14, 24}} {
		bch, err := lookupCode(tc.m, tc.capability)
		require.NoError(t, err)
		assert.LessOrEqual(t, bch.generator.BitLen()-1, bch.parity)

		sectorSize := 512 * (tc.m - 12)
		eccBytes := (bch.parity + 7) / 8

		rng := rand.New(rand.NewSource(int64(tc.m*100 + tc.capability)))
		data := make([]byte, sectorSize)
		rng.Read(data)

		ecc := bch.encode(data, eccBytes)
		for k, r := range bch.remainders(data, ecc) {
			assert.Zero(t, r, "m=%d cap=%d: remainder %d", tc.m, tc.capability, k)
		}

		data[17] ^= 0x10
		nonzero := false
		for _, r := range bch.remainders(data, ecc) {
			nonzero = nonzero || r != 0
		}
		assert.True(t, nonzero)
	}
}

func TestCodeZeroSector(t *testing.T) {
	bch, err := lookupCode(13, 4)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 7), bch.encode(make([]byte, 512), 7))
}

func configure(c *Controller, cfg uint32, spare int) {
	c.Write32(regs.PMECC, regs.CFG, cfg)
	c.Write32(regs.PMECC, regs.SAREA, uint32(spare-1))
	c.Write32(regs.PMECC, regs.SADDR, uint32(spare-28))
	c.Write32(regs.PMECC, regs.CTRL, regs.CtrlRst)
	c.Write32(regs.PMECC, regs.CTRL, regs.CtrlEnable)
}

func TestControllerWriteThenRead(t *testing.T) {
	c := New()
	// 4 bit, 512 byte sectors, 4 sectors
	configure(c, regs.CfgBCHErr4|regs.CfgPage4Sectors|regs.CfgWriteOp, 64)

	assert.ErrorIs(t, c.Stream([]byte{1}), ErrNotArmed)

	c.Write32(regs.PMECC, regs.CTRL, regs.CtrlData)
	assert.NotZero(t, c.Read32(regs.PMECC, regs.SR)&regs.SRBusy)

	page := make([]byte, 2048)
	page[100] = 0x5a
	require.NoError(t, c.Stream(page[:1000]))
	assert.NotZero(t, c.Read32(regs.PMECC, regs.SR)&regs.SRBusy)
	require.NoError(t, c.Stream(page[1000:]))
	assert.Zero(t, c.Read32(regs.PMECC, regs.SR)&regs.SRBusy)
	assert.Equal(t, 1, c.Transfers())

	ecc := make([]byte, 28)
	for s := 0; s < 4; s++ {
		for j := 0; j < 7; j++ {
			word := c.Read32(regs.PMECC, regs.ECC(s, j/4))
			ecc[s*7+j] = byte(word >> (8 * (j % 4)))
		}
	}
	assert.NotEqual(t, make([]byte, 7), ecc[:7])
	assert.Equal(t, make([]byte, 21), ecc[7:])

	spare := make([]byte, 64)
	copy(spare[64-28:], ecc)
	page[1500] ^= 0x01

	c.Write32(regs.PMECC, regs.CFG, regs.CfgBCHErr4|regs.CfgPage4Sectors)
	c.Write32(regs.PMECC, regs.CTRL, regs.CtrlData)
	require.NoError(t, c.Stream(page))
	require.NoError(t, c.Stream(spare))

	assert.Equal(t, uint32(1<<2), c.Read32(regs.PMECC, regs.ISR))
	assert.Zero(t, c.Read32(regs.PMECC, regs.ISR), "status clears on read")
}

func TestControllerSearch(t *testing.T) {
	c := New()
	configure(c, regs.CfgBCHErr4|regs.CfgPage4Sectors, 64)

	bch, err := lookupCode(13, 4)
	require.NoError(t, err)

	length := 512*8 + 13*4
	pos := 1234
	e := length - 1 - pos

	c.Write32(regs.ErrLoc, regs.ELDIS, regs.ELDisable)
	c.Write32(regs.ErrLoc, regs.SIGMA(0), 1)
	c.Write32(regs.ErrLoc, regs.SIGMA(1), uint32(bch.field.Exp(e)))
	c.Write32(regs.ErrLoc, regs.ELCFG, 1<<regs.ELCfgNumShift)
	c.Write32(regs.ErrLoc, regs.ELEN, uint32(length))

	assert.True(t, c.LocatorEnabled())
	isr := c.Read32(regs.ErrLoc, regs.ELISR)
	assert.NotZero(t, isr&regs.ELCalcDone)
	assert.Equal(t, uint32(1), (isr&regs.ELErrNumMask)>>regs.ELErrNumShift)
	assert.Equal(t, uint32(pos+1), c.Read32(regs.ErrLoc, regs.EL(0)))
	assert.Equal(t, 1, c.Searches())

	c.Write32(regs.ErrLoc, regs.ELDIS, regs.ELDisable)
	assert.False(t, c.LocatorEnabled())
	assert.Zero(t, c.Read32(regs.ErrLoc, regs.ELISR))
}

func TestControllerFaults(t *testing.T) {
	c := New(WithStuckBusy(), WithStuckLocator())
	configure(c, regs.CfgBCHErr2|regs.CfgPage1Sector|regs.CfgWriteOp, 16)

	c.Write32(regs.PMECC, regs.CTRL, regs.CtrlData)
	require.NoError(t, c.Stream(make([]byte, 512)))
	assert.NotZero(t, c.Read32(regs.PMECC, regs.SR)&regs.SRBusy)
	assert.True(t, c.Enabled())

	c.Write32(regs.PMECC, regs.CTRL, regs.CtrlDisable)
	assert.False(t, c.Enabled())
	assert.Zero(t, c.Read32(regs.PMECC, regs.SR))

	c.Write32(regs.ErrLoc, regs.ELEN, 100)
	assert.Zero(t, c.Read32(regs.ErrLoc, regs.ELISR)&regs.ELCalcDone)
	assert.Zero(t, c.Searches())
}
