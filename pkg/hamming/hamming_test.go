package hamming

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/pmecc/pkg/nand"
)

func randomStep(seed int64) []byte {
	step := make([]byte, StepSize)
	rand.New(rand.NewSource(seed)).Read(step)
	return step
}

func TestCalculateKnownCodes(t *testing.T) {
	erased := bytes.Repeat([]byte{0xff}, StepSize)
	assert.Equal(t, [EccSize]byte{0xff, 0xff, 0xff}, Calculate(erased))

	zero := make([]byte, StepSize)
	assert.Equal(t, [EccSize]byte{0xff, 0xff, 0xff}, Calculate(zero))

	// single set bit: byte 0 bit 0
	one := make([]byte, StepSize)
	one[0] = 0x01
	code := Calculate(one)
	// odd parity in byte 0: every even line parity set, odd ones clear
	assert.Equal(t, byte(^byte(0x55)), code[0])
	assert.Equal(t, byte(^byte(0x55)), code[1])
	// column 0: cp0, cp2, cp4
	assert.Equal(t, byte(^byte(0x54)), code[2])
}

func TestCorrectEverySingleBit(t *testing.T) {
	orig := randomStep(1)
	calc := Calculate(orig)

	for offset := 0; offset < StepSize; offset++ {
		for bit := 0; bit < 8; bit++ {
			step := append([]byte(nil), orig...)
			step[offset] ^= 1 << bit

			n, err := Correct(step, calc, Calculate(step))
			require.NoError(t, err, "byte %d bit %d", offset, bit)
			assert.Equal(t, 1, n)
			if !bytes.Equal(orig, step) {
				t.Fatalf("byte %d bit %d not repaired", offset, bit)
			}
		}
	}
}

func TestCorrectCodeBitError(t *testing.T) {
	step := randomStep(2)
	calc := Calculate(step)

	for i := 0; i < EccSize; i++ {
		for bit := 2; bit < 8; bit++ {
			read := calc
			read[i] ^= 1 << bit

			before := append([]byte(nil), step...)
			n, err := Correct(step, read, calc)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			assert.Equal(t, before, step)
		}
	}
}

func TestCorrectDoubleBitError(t *testing.T) {
	orig := randomStep(3)
	calc := Calculate(orig)

	step := append([]byte(nil), orig...)
	step[10] ^= 0x01
	step[200] ^= 0x40

	_, err := Correct(step, calc, Calculate(step))
	assert.ErrorIs(t, err, ErrUncorrectable)
}

func TestCorrectClean(t *testing.T) {
	step := randomStep(4)
	calc := Calculate(step)
	n, err := Correct(step, calc, calc)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		geom nand.Geometry
	}{
		{name: "small page", geom: nand.Geometry{PageSize: 512, OOBSize: 16, PagesPerBlock: 32, Blocks: 1}},
		{name: "large page", geom: nand.Geometry{PageSize: 2048, OOBSize: 64, PagesPerBlock: 4, Blocks: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chip, err := nand.NewMemChip(tt.geom)
			require.NoError(t, err)
			codec, err := New(chip)
			require.NoError(t, err)
			assert.Equal(t, tt.geom.PageSize/StepSize*EccSize, codec.EccBytes())

			want := make([]byte, tt.geom.PageSize)
			rand.New(rand.NewSource(9)).Read(want)
			require.NoError(t, codec.WritePage(1, want, nil))

			// one flip per step
			for s := 0; s < tt.geom.PageSize/StepSize; s++ {
				require.NoError(t, chip.FlipBit(1, s*StepSize+s*7, s%8))
			}

			data := make([]byte, tt.geom.PageSize)
			oob := make([]byte, tt.geom.OOBSize)
			res, err := codec.ReadPage(1, data, oob)
			require.NoError(t, err)
			assert.Equal(t, want, data)
			assert.Equal(t, tt.geom.PageSize/StepSize, res.Corrected)
			assert.Equal(t, 1, res.MaxBitflips)
			assert.False(t, res.Erased)
		})
	}
}

func TestCodecSmallPageKeepsBadBlockMarker(t *testing.T) {
	geom := nand.Geometry{PageSize: 512, OOBSize: 16, PagesPerBlock: 32, Blocks: 1}
	chip, err := nand.NewMemChip(geom)
	require.NoError(t, err)
	codec, err := New(chip)
	require.NoError(t, err)

	require.NoError(t, codec.WritePage(0, bytes.Repeat([]byte{0x11}, 512), nil))

	data := make([]byte, 512)
	oob := make([]byte, 16)
	require.NoError(t, chip.ReadPage(0, data, oob))
	assert.Equal(t, byte(0xff), oob[5])
	assert.Equal(t, bytes.Repeat([]byte{0xff}, 8), oob[8:])
}

func TestCodecErasedAndUncorrectable(t *testing.T) {
	geom := nand.Geometry{PageSize: 2048, OOBSize: 64, PagesPerBlock: 4, Blocks: 1}
	chip, err := nand.NewMemChip(geom)
	require.NoError(t, err)
	codec, err := New(chip)
	require.NoError(t, err)

	data := make([]byte, geom.PageSize)
	oob := make([]byte, geom.OOBSize)
	res, err := codec.ReadPage(0, data, oob)
	require.NoError(t, err)
	assert.True(t, res.Erased)

	require.NoError(t, codec.WritePage(2, make([]byte, geom.PageSize), nil))
	require.NoError(t, chip.FlipBit(2, 300, 0))
	require.NoError(t, chip.FlipBit(2, 400, 3))
	require.NoError(t, chip.FlipBit(2, 1000, 1))

	res, err = codec.ReadPage(2, data, oob)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUncorrectable))

	var uerr *UncorrectableError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, []int{1}, uerr.Steps)
	assert.True(t, res.Failed)
	assert.Equal(t, 1, res.Corrected)
	assert.Zero(t, data[1000])
}

func TestNewRejectsLayout(t *testing.T) {
	chip, err := nand.NewMemChip(nand.Geometry{PageSize: 1024, OOBSize: 16, PagesPerBlock: 1, Blocks: 1})
	require.NoError(t, err)

	_, err = New(chip)
	assert.ErrorIs(t, err, nand.ErrBufferSize)

	_, err = New(chip, WithLayout(nand.LargePage{ECCBytes: 12}))
	assert.NoError(t, err)
}
