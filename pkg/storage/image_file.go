// Package storage persists raw NAND images together with a JSON manifest
// describing the geometry and ECC setup they were written with.
package storage

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/sha3"

	"github.com/Davincible/pmecc/pkg/nand"
)

const (
	ManifestVersion = 1
	ManifestSuffix  = ".json"
)

// ErrDigestMismatch is returned when an image no longer matches the digest
// recorded in its manifest.
var ErrDigestMismatch = errors.New("storage: image digest mismatch")

// ImageFile is a raw dump of consecutive data+oob pages with a manifest
// next to it.
type ImageFile struct {
	filepath string
}

// ECCInfo records how the pages of an image are protected.
type ECCInfo struct {
	Mode       string `json:"mode"` // pmecc or hamming
	Capability int    `json:"capability,omitempty"`
	SectorSize int    `json:"sector_size,omitempty"`
}

// Manifest is stored as <image>.json.
type Manifest struct {
	Version  int           `json:"version"`
	Geometry nand.Geometry `json:"geometry"`
	ECC      ECCInfo       `json:"ecc"`
	Digest   string        `json:"sha3_256"`
}

func NewImageFile(filepath string) *ImageFile {
	return &ImageFile{
		filepath: filepath,
	}
}

// Path returns the image path.
func (s *ImageFile) Path() string { return s.filepath }

// ManifestPath returns the manifest path.
func (s *ImageFile) ManifestPath() string { return s.filepath + ManifestSuffix }

// Digest returns the hex SHA3-256 of an image.
func Digest(image []byte) string {
	sum := sha3.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// Save writes the chip contents and the manifest.
func (s *ImageFile) Save(chip *nand.MemChip, ecc ECCInfo) error {
	image := chip.Image()

	manifest := Manifest{
		Version:  ManifestVersion,
		Geometry: chip.Geometry(),
		ECC:      ecc,
		Digest:   Digest(image),
	}

	jsonData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	dir := filepath.Dir(s.filepath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(s.filepath, image, 0600); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := os.WriteFile(s.ManifestPath(), jsonData, 0600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// LoadManifest reads only the manifest.
func (s *ImageFile) LoadManifest() (*Manifest, error) {
	jsonData, err := os.ReadFile(s.ManifestPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(jsonData, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	if manifest.Version != ManifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", manifest.Version)
	}

	return &manifest, nil
}

// Load reads the image, checks it against the manifest digest and wraps it
// in a chip.
func (s *ImageFile) Load() (*nand.MemChip, *Manifest, error) {
	manifest, err := s.LoadManifest()
	if err != nil {
		return nil, nil, err
	}

	image, err := os.ReadFile(s.filepath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}

	if got := Digest(image); got != manifest.Digest {
		return nil, nil, fmt.Errorf("%w: %s has %s, manifest says %s", ErrDigestMismatch, s.filepath, got, manifest.Digest)
	}

	chip, err := nand.NewMemChipFromImage(manifest.Geometry, image)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load image: %w", err)
	}

	return chip, manifest, nil
}

func (s *ImageFile) Exists() bool {
	_, err := os.Stat(s.filepath)
	return err == nil
}

// Delete removes the image and its manifest.
func (s *ImageFile) Delete() error {
	for _, path := range []string{s.filepath, s.ManifestPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}
