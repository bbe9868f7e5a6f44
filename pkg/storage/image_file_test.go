package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/pmecc/pkg/nand"
)

var testGeometry = nand.Geometry{PageSize: 2048, OOBSize: 64, PagesPerBlock: 2, Blocks: 2}

func TestImageFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images", "flash.bin")
	img := NewImageFile(path)
	assert.False(t, img.Exists())

	chip, err := nand.NewMemChip(testGeometry)
	require.NoError(t, err)
	require.NoError(t, chip.FlipBit(1, 5, 2))

	ecc := ECCInfo{Mode: "pmecc", Capability: 4, SectorSize: 512}
	require.NoError(t, img.Save(chip, ecc))
	assert.True(t, img.Exists())
	assert.Equal(t, path+".json", img.ManifestPath())

	loaded, manifest, err := img.Load()
	require.NoError(t, err)
	assert.Equal(t, testGeometry, manifest.Geometry)
	assert.Equal(t, ecc, manifest.ECC)
	assert.Equal(t, ManifestVersion, manifest.Version)
	assert.Equal(t, chip.Image(), loaded.Image())
	assert.Len(t, manifest.Digest, 64)

	require.NoError(t, img.Delete())
	assert.False(t, img.Exists())
	require.NoError(t, img.Delete())
}

func TestImageFileDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.bin")
	img := NewImageFile(path)

	chip, err := nand.NewMemChip(testGeometry)
	require.NoError(t, err)
	require.NoError(t, img.Save(chip, ECCInfo{Mode: "hamming"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[100] ^= 0x01
	require.NoError(t, os.WriteFile(path, raw, 0600))

	_, _, err = img.Load()
	assert.ErrorIs(t, err, ErrDigestMismatch)
}

func TestImageFileMissingManifest(t *testing.T) {
	img := NewImageFile(filepath.Join(t.TempDir(), "none.bin"))
	_, _, err := img.Load()
	assert.Error(t, err)
}

func TestDigest(t *testing.T) {
	// SHA3-256 of the empty string
	assert.Equal(t, "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a", Digest(nil))
}
