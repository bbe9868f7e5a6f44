package pmecc

import (
	"errors"
	"fmt"
	"time"

	"github.com/Davincible/pmecc/pkg/galois"
)

var (
	// ErrInvalidDegree is returned when no field can be built for the configuration.
	ErrInvalidDegree = galois.ErrInvalidDegree

	// ErrUnsupportedGeometry rejects a capability, sector size or page layout
	// the controller cannot serve. It is terminal at setup.
	ErrUnsupportedGeometry = errors.New("pmecc: unsupported geometry")

	// ErrFallbackToSoftware is not a failure: the page size is not handled by
	// the accelerator and the caller should select software ECC instead.
	ErrFallbackToSoftware = errors.New("pmecc: page size not handled by hardware, use software ECC")

	// ErrHardwareTimeout is returned when syndrome accumulation or the root
	// search did not complete in time.
	ErrHardwareTimeout = errors.New("pmecc: hardware timeout")

	// ErrUncorrectable marks a page with at least one sector holding more
	// bit errors than the capability.
	ErrUncorrectable = errors.New("pmecc: too many bit errors")

	// ErrInternalConsistency means a located error fell outside the sector.
	// The solver and the locator disagree and correction must not proceed.
	ErrInternalConsistency = errors.New("pmecc: error location outside sector")
)

// TimeoutError reports which hardware wait expired.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("pmecc: timeout after %s waiting for %s", e.Timeout, e.Op)
}

func (e *TimeoutError) Unwrap() error { return ErrHardwareTimeout }

// UncorrectableError lists the sectors of a page that could not be corrected.
type UncorrectableError struct {
	Page    int
	Sectors []int
}

func (e *UncorrectableError) Error() string {
	return fmt.Sprintf("pmecc: page %d: too many bit errors in sectors %v", e.Page, e.Sectors)
}

func (e *UncorrectableError) Unwrap() error { return ErrUncorrectable }

// InternalConsistencyError carries the offending error position.
type InternalConsistencyError struct {
	Sector   int
	Position int // bit offset within sector data + redundancy
	Limit    int // first byte offset outside the sector
}

func (e *InternalConsistencyError) Error() string {
	return fmt.Sprintf("pmecc: sector %d: error at bit %d (byte %d) beyond %d byte codeword",
		e.Sector, e.Position, e.Position/8, e.Limit)
}

func (e *InternalConsistencyError) Unwrap() error { return ErrInternalConsistency }
