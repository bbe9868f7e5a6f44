package ecc

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/pmecc/pkg/nand"
	"github.com/Davincible/pmecc/pkg/pmecc"
	"github.com/Davincible/pmecc/pkg/pmecc/sim"
)

var (
	largeGeometry = nand.Geometry{PageSize: 2048, OOBSize: 64, PagesPerBlock: 4, Blocks: 2}
	smallGeometry = nand.Geometry{PageSize: 512, OOBSize: 16, PagesPerBlock: 32, Blocks: 1}
)

func TestSetupSelectsEngine(t *testing.T) {
	tests := []struct {
		name     string
		geom     nand.Geometry
		hw       bool
		force    bool
		want     Kind
		eccBytes int
	}{
		{name: "accelerator", geom: largeGeometry, hw: true, want: KindPMECC, eccBytes: 28},
		{name: "small page falls back", geom: smallGeometry, hw: true, want: KindHamming, eccBytes: 6},
		{name: "no session", geom: largeGeometry, want: KindHamming, eccBytes: 24},
		{name: "forced software", geom: largeGeometry, hw: true, force: true, want: KindHamming, eccBytes: 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chip, err := nand.NewMemChip(tt.geom)
			require.NoError(t, err)

			var hw pmecc.Session
			if tt.hw {
				hw = sim.New()
			}

			engine, err := Setup(chip, hw, Settings{Capability: 4, SectorSize: 512, ForceSoftware: tt.force})
			require.NoError(t, err)
			assert.Equal(t, tt.want, engine.Kind())
			assert.Equal(t, tt.eccBytes, engine.EccBytes())
			assert.Equal(t, tt.want == KindPMECC, engine.PMECC() != nil)
		})
	}
}

func TestSetupPropagatesConfigErrors(t *testing.T) {
	chip, err := nand.NewMemChip(largeGeometry)
	require.NoError(t, err)

	_, err = Setup(chip, sim.New(), Settings{Capability: 24, SectorSize: 512})
	assert.ErrorIs(t, err, pmecc.ErrUnsupportedGeometry)
}

func TestEngineRoundTrip(t *testing.T) {
	for _, geom := range []nand.Geometry{largeGeometry, smallGeometry} {
		chip, err := nand.NewMemChip(geom)
		require.NoError(t, err)

		engine, err := Setup(chip, sim.New(), Settings{Capability: 4, SectorSize: 512})
		require.NoError(t, err)

		want := make([]byte, geom.PageSize)
		rand.New(rand.NewSource(int64(geom.PageSize))).Read(want)
		require.NoError(t, engine.WritePage(0, want, nil))
		require.NoError(t, chip.FlipBit(0, 77, 6))

		data := make([]byte, geom.PageSize)
		oob := make([]byte, geom.OOBSize)
		res, err := engine.ReadPage(0, data, oob)
		require.NoError(t, err, engine.Describe())
		assert.Equal(t, want, data)
		assert.Equal(t, 1, res.Corrected)
		assert.Equal(t, 1, res.MaxBitflips)
	}
}

func TestEngineUncorrectable(t *testing.T) {
	chip, err := nand.NewMemChip(smallGeometry)
	require.NoError(t, err)

	engine, err := Setup(chip, nil, Settings{})
	require.NoError(t, err)

	require.NoError(t, engine.WritePage(0, make([]byte, smallGeometry.PageSize), nil))
	require.NoError(t, chip.FlipBit(0, 1, 0))
	require.NoError(t, chip.FlipBit(0, 2, 0))

	res, err := engine.ReadPage(0, make([]byte, smallGeometry.PageSize), make([]byte, smallGeometry.OOBSize))
	assert.True(t, IsUncorrectable(err))
	assert.True(t, res.Failed)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "pmecc", KindPMECC.String())
	assert.Equal(t, "hamming", KindHamming.String())
	assert.Equal(t, "Kind(5)", Kind(5).String())
}
