package pmecc

import (
	"io"
	"log/slog"
	"time"

	"github.com/Davincible/pmecc/pkg/galois"
)

// DefaultTimeout bounds every hardware wait.
const DefaultTimeout = 100 * time.Millisecond

// Config holds the codec configuration.
type Config struct {
	// Logger receives correction and failure events (optional)
	Logger *slog.Logger

	// Timeout bounds the syndrome accumulation and root search waits
	Timeout time.Duration

	// PollInterval is the delay between two status register reads
	PollInterval time.Duration

	// Field is a prebuilt set of lookup tables (optional)
	Field *galois.Field

	// LookupROM and LookupOffset locate the tables in an on-chip ROM image (optional)
	LookupROM    []byte
	LookupOffset int
}

func defaultConfig() Config {
	return Config{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Timeout:      DefaultTimeout,
		PollInterval: 10 * time.Microsecond,
	}
}

// Option is a functional option for configuring the Codec.
type Option func(*Config)

// WithLogger sets the logger for correction events.
//
// Example:
//
//	codec, err := pmecc.New(hw, chip, 4, 512, pmecc.WithLogger(slog.Default()))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithTimeout sets the bound for each hardware wait.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithPollInterval sets the delay between status polls. Zero spins.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval >= 0 {
			c.PollInterval = interval
		}
	}
}

// WithField supplies prebuilt lookup tables. The field degree must match the
// sector size.
func WithField(f *galois.Field) Option {
	return func(c *Config) {
		c.Field = f
	}
}

// WithLookupTable loads the lookup tables from a ROM image at the given byte
// offset instead of building them in RAM.
func WithLookupTable(rom []byte, offset int) Option {
	return func(c *Config) {
		c.LookupROM = rom
		c.LookupOffset = offset
	}
}
