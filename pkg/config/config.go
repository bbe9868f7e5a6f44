// Package config provides configuration management for the pmecc CLI tool
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Davincible/pmecc/pkg/nand"
	"github.com/Davincible/pmecc/pkg/pmecc"
)

// ECC modes
const (
	ModeAuto     = "auto"     // PMECC when the geometry allows it
	ModePMECC    = "pmecc"    // PMECC or fail
	ModeSoftware = "software" // Hamming only
)

// Config represents the main configuration structure
type Config struct {
	Version string        `json:"version"`
	NAND    nand.Geometry `json:"nand"`
	ECC     ECCConfig     `json:"ecc"`
	UI      UIConfig      `json:"ui"`
}

// ECCConfig contains the engine settings
type ECCConfig struct {
	Mode                  string `json:"mode"`                     // auto, pmecc, software
	Capability            int    `json:"capability"`               // Default: 4
	SectorSize            int    `json:"sector_size"`              // Default: 512
	LookupTableOffset512  int    `json:"lookup_table_offset_512"`  // ROM offset of the GF(2^13) tables, -1 builds in RAM
	LookupTableOffset1024 int    `json:"lookup_table_offset_1024"` // ROM offset of the GF(2^14) tables, -1 builds in RAM
	TimeoutMS             int    `json:"timeout_ms"`               // Hardware wait bound
}

// UIConfig contains user interface settings
type UIConfig struct {
	UseColor  bool   `json:"use_color"` // Enable colored output
	Verbosity string `json:"verbosity"` // quiet, normal, verbose
}

// ConfigManager manages configuration loading and saving
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() (*ConfigManager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewConfigManagerAt(configPath)
}

// NewConfigManagerAt creates a configuration manager for an explicit path
func NewConfigManagerAt(configPath string) (*ConfigManager, error) {
	cm := &ConfigManager{configPath: configPath}

	// Load or create default config
	if err := cm.LoadConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cm.config = DefaultConfig()
		if err := cm.SaveConfig(); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	}

	return cm, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0.0",
		NAND: nand.Geometry{
			PageSize:      2048,
			OOBSize:       64,
			PagesPerBlock: 64,
			Blocks:        16,
		},
		ECC: ECCConfig{
			Mode:                  ModeAuto,
			Capability:            4,
			SectorSize:            512,
			LookupTableOffset512:  -1,
			LookupTableOffset1024: -1,
			TimeoutMS:             int(pmecc.DefaultTimeout / time.Millisecond),
		},
		UI: UIConfig{
			UseColor:  true,
			Verbosity: "normal",
		},
	}
}

// Timeout returns the hardware wait bound
func (c ECCConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// LookupTableOffset returns the ROM offset for a sector size, or -1
func (c ECCConfig) LookupTableOffset(sectorSize int) int {
	if sectorSize == 1024 {
		return c.LookupTableOffset1024
	}
	return c.LookupTableOffset512
}

// Validate checks the configuration for values no engine accepts
func (c *Config) Validate() error {
	if err := c.NAND.Validate(); err != nil {
		return fmt.Errorf("nand: %w", err)
	}

	switch c.ECC.Mode {
	case ModeAuto, ModePMECC, ModeSoftware:
	default:
		return fmt.Errorf("ecc: unknown mode %q", c.ECC.Mode)
	}

	if c.ECC.Mode != ModeSoftware {
		if !pmecc.ValidCapability(c.ECC.Capability) {
			return fmt.Errorf("ecc: capability %d, should be 2, 4, 8, 12 or 24", c.ECC.Capability)
		}
		if !pmecc.ValidSectorSize(c.ECC.SectorSize) {
			return fmt.Errorf("ecc: sector size %d, should be 512 or 1024", c.ECC.SectorSize)
		}
	}

	if c.ECC.TimeoutMS <= 0 {
		return fmt.Errorf("ecc: timeout must be positive, got %dms", c.ECC.TimeoutMS)
	}

	switch c.UI.Verbosity {
	case "quiet", "normal", "verbose":
	default:
		return fmt.Errorf("ui: unknown verbosity %q", c.UI.Verbosity)
	}

	return nil
}

// LoadConfig loads the configuration from disk
func (cm *ConfigManager) LoadConfig() error {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	cm.config = config
	return nil
}

// SaveConfig saves the configuration to disk
func (cm *ConfigManager) SaveConfig() error {
	// Ensure config directory exists
	configDir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cm.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfig returns the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// SetConfig updates the configuration
func (cm *ConfigManager) SetConfig(config *Config) {
	cm.config = config
}

// Path returns the configuration file path
func (cm *ConfigManager) Path() string {
	return cm.configPath
}

// getConfigPath returns the configuration file path
func getConfigPath() (string, error) {
	// Check for custom config path
	if customPath := os.Getenv("PMECC_CONFIG"); customPath != "" {
		return customPath, nil
	}

	// Use XDG_CONFIG_HOME if set
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "pmecc", "config.json"), nil
	}

	// Default to ~/.config/pmecc/config.json
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "pmecc", "config.json"), nil
}
