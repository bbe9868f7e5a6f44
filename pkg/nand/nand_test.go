package nand

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGeometry = Geometry{PageSize: 2048, OOBSize: 64, PagesPerBlock: 4, Blocks: 2}

func TestGeometryValidate(t *testing.T) {
	tests := []struct {
		name    string
		geom    Geometry
		wantErr bool
	}{
		{name: "valid", geom: testGeometry},
		{name: "page not power of two", geom: Geometry{PageSize: 2000, OOBSize: 64, PagesPerBlock: 1, Blocks: 1}, wantErr: true},
		{name: "tiny oob", geom: Geometry{PageSize: 512, OOBSize: 2, PagesPerBlock: 1, Blocks: 1}, wantErr: true},
		{name: "no pages", geom: Geometry{PageSize: 512, OOBSize: 16, Blocks: 1}, wantErr: true},
		{name: "no blocks", geom: Geometry{PageSize: 512, OOBSize: 16, PagesPerBlock: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.geom.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMemChipProgramAndErase(t *testing.T) {
	chip, err := NewMemChip(testGeometry)
	require.NoError(t, err)

	data := make([]byte, testGeometry.PageSize)
	oob := make([]byte, testGeometry.OOBSize)
	require.NoError(t, chip.ReadPage(3, data, oob))
	assert.True(t, IsErased(data))
	assert.True(t, IsErased(oob))

	for i := range data {
		data[i] = byte(i)
	}
	oob[10] = 0x0f
	require.NoError(t, chip.ProgramPage(3, data, oob))

	gotData := make([]byte, len(data))
	gotOOB := make([]byte, len(oob))
	require.NoError(t, chip.ReadPage(3, gotData, gotOOB))
	assert.Equal(t, data, gotData)
	assert.Equal(t, byte(0x0f), gotOOB[10])

	// programming can only clear bits
	data2 := bytes.Repeat([]byte{0xf0}, len(data))
	require.NoError(t, chip.ProgramPage(3, data2, oob))
	require.NoError(t, chip.ReadPage(3, gotData, gotOOB))
	assert.Equal(t, byte(0x01)&0xf0, gotData[1])
	assert.Equal(t, byte(0xff)&0xf0, gotData[255])

	require.NoError(t, chip.EraseBlock(0))
	require.NoError(t, chip.ReadPage(3, gotData, gotOOB))
	assert.True(t, IsErased(gotData))

	assert.ErrorIs(t, chip.EraseBlock(2), ErrOutOfRange)
	assert.ErrorIs(t, chip.ReadPage(8, gotData, gotOOB), ErrOutOfRange)
	assert.ErrorIs(t, chip.ReadPage(0, gotData[:10], gotOOB), ErrBufferSize)
}

func TestMemChipFlipBit(t *testing.T) {
	chip, err := NewMemChip(testGeometry)
	require.NoError(t, err)

	require.NoError(t, chip.FlipBit(1, 0, 3))
	require.NoError(t, chip.FlipBit(1, testGeometry.PageSize+63, 7))

	data := make([]byte, testGeometry.PageSize)
	oob := make([]byte, testGeometry.OOBSize)
	require.NoError(t, chip.ReadPage(1, data, oob))
	assert.Equal(t, byte(0xf7), data[0])
	assert.Equal(t, byte(0x7f), oob[63])

	assert.ErrorIs(t, chip.FlipBit(1, testGeometry.RawPageSize(), 0), ErrOutOfRange)
	assert.ErrorIs(t, chip.FlipBit(1, 0, 8), ErrOutOfRange)
}

func TestMemChipFromImage(t *testing.T) {
	geom := Geometry{PageSize: 512, OOBSize: 16, PagesPerBlock: 1, Blocks: 1}
	image := bytes.Repeat([]byte{0xa5}, geom.RawPageSize())

	chip, err := NewMemChipFromImage(geom, image)
	require.NoError(t, err)
	assert.Equal(t, image, chip.Image())

	_, err = NewMemChipFromImage(geom, image[1:])
	assert.ErrorIs(t, err, ErrBufferSize)
}

func TestLargePageLayout(t *testing.T) {
	layout := LargePage{ECCBytes: 4}
	oob := bytes.Repeat([]byte{0xff}, 16)
	ecc := []byte{1, 2, 3, 4}

	require.NoError(t, layout.Place(ecc, oob))
	assert.Equal(t, []byte{1, 2, 3, 4}, oob[12:])
	assert.Equal(t, 12, layout.Offset(len(oob)))

	got := make([]byte, 4)
	require.NoError(t, layout.Extract(oob, got))
	assert.Equal(t, ecc, got)

	assert.ErrorIs(t, layout.Place(ecc[:3], oob), ErrBufferSize)
	assert.ErrorIs(t, LargePage{ECCBytes: 15}.Place(make([]byte, 15), oob), ErrBufferSize)
}

func TestPositionsLayout(t *testing.T) {
	layout := SmallPage()
	oob := bytes.Repeat([]byte{0xff}, 16)
	ecc := []byte{0xa0, 0xa1, 0xa2, 0xa3, 0xa4, 0xa5}

	require.NoError(t, layout.Place(ecc, oob))
	assert.Equal(t, byte(0xff), oob[5], "bad block marker untouched")
	assert.Equal(t, byte(0xa4), oob[6])

	got := make([]byte, len(ecc))
	require.NoError(t, layout.Extract(oob, got))
	assert.Equal(t, ecc, got)

	assert.ErrorIs(t, layout.Place(make([]byte, 7), oob), ErrBufferSize)
	assert.ErrorIs(t, Positions{20}.Place([]byte{1}, oob), ErrOutOfRange)
}
