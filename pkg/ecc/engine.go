// Package ecc selects the page ECC engine for a chip once at setup: the
// PMECC accelerator when the geometry allows it, software Hamming
// otherwise.
package ecc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Davincible/pmecc/pkg/galois"
	"github.com/Davincible/pmecc/pkg/hamming"
	"github.com/Davincible/pmecc/pkg/nand"
	"github.com/Davincible/pmecc/pkg/pmecc"
)

// Kind tags the engine variant.
type Kind int

const (
	KindPMECC Kind = iota
	KindHamming
)

func (k Kind) String() string {
	switch k {
	case KindPMECC:
		return "pmecc"
	case KindHamming:
		return "hamming"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsUncorrectable reports whether err is an uncorrectable read from
// either engine.
func IsUncorrectable(err error) bool {
	return errors.Is(err, pmecc.ErrUncorrectable) ||
		errors.Is(err, hamming.ErrUncorrectable)
}

// Result is the engine independent summary of a page read.
type Result struct {
	Page        int
	Erased      bool
	Corrected   int
	MaxBitflips int
	Failed      bool
	Sectors     []pmecc.SectorResult // PMECC only
}

// Settings are the engine parameters.
type Settings struct {
	Capability   int
	SectorSize   int
	Timeout      time.Duration
	Logger       *slog.Logger
	LookupROM    []byte
	LookupOffset int
	Field        *galois.Field

	// ForceSoftware skips the accelerator
	ForceSoftware bool
}

// Engine is exactly one of the two codecs.
type Engine struct {
	kind    Kind
	pmecc   *pmecc.Codec
	hamming *hamming.Codec
}

// Setup picks the engine. Without a hardware session, or when the page
// size is outside the accelerator's range, software Hamming is used.
// Every other PMECC setup error is returned.
func Setup(chip nand.Chip, hw pmecc.Session, s Settings) (*Engine, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if hw != nil && !s.ForceSoftware {
		opts := []pmecc.Option{pmecc.WithLogger(logger)}
		if s.Timeout > 0 {
			opts = append(opts, pmecc.WithTimeout(s.Timeout))
		}
		if s.Field != nil {
			opts = append(opts, pmecc.WithField(s.Field))
		}
		if s.LookupROM != nil {
			opts = append(opts, pmecc.WithLookupTable(s.LookupROM, s.LookupOffset))
		}

		codec, err := pmecc.New(hw, chip, s.Capability, s.SectorSize, opts...)
		switch {
		case err == nil:
			return &Engine{kind: KindPMECC, pmecc: codec}, nil
		case errors.Is(err, pmecc.ErrFallbackToSoftware):
			logger.Warn("page size not handled by PMECC, using software ECC",
				"page_size", chip.Geometry().PageSize)
		default:
			return nil, err
		}
	}

	codec, err := hamming.New(chip, hamming.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &Engine{kind: KindHamming, hamming: codec}, nil
}

// Kind returns the selected variant.
func (e *Engine) Kind() Kind { return e.kind }

// PMECC returns the accelerator codec, nil for the software engine.
func (e *Engine) PMECC() *pmecc.Codec { return e.pmecc }

// EccBytes returns the number of redundancy bytes per page.
func (e *Engine) EccBytes() int {
	if e.kind == KindPMECC {
		return e.pmecc.Params().EccTotal()
	}
	return e.hamming.EccBytes()
}

// Describe returns a one line summary of the engine parameters.
func (e *Engine) Describe() string {
	if e.kind == KindPMECC {
		return fmt.Sprintf("%s %s", e.kind, e.pmecc.Params())
	}
	return fmt.Sprintf("%s step=%d ecc=%d/step", e.kind, hamming.StepSize, hamming.EccSize)
}

// WritePage encodes and programs a page.
func (e *Engine) WritePage(page int, data, oob []byte) error {
	if e.kind == KindPMECC {
		return e.pmecc.WritePage(page, data, oob)
	}
	return e.hamming.WritePage(page, data, oob)
}

// ReadPage reads and corrects a page. Uncorrectable pages return the
// partially corrected result with an error matched by IsUncorrectable.
func (e *Engine) ReadPage(page int, data, oob []byte) (Result, error) {
	if e.kind == KindPMECC {
		res, err := e.pmecc.ReadPage(page, data, oob)
		return Result{
			Page:        res.Page,
			Erased:      res.Erased,
			Corrected:   res.Corrected,
			MaxBitflips: res.MaxBitflips,
			Failed:      res.Failed,
			Sectors:     res.Sectors,
		}, err
	}

	res, err := e.hamming.ReadPage(page, data, oob)
	return Result{
		Page:        res.Page,
		Erased:      res.Erased,
		Corrected:   res.Corrected,
		MaxBitflips: res.MaxBitflips,
		Failed:      res.Failed,
	}, err
}
