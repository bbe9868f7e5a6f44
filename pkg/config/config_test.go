package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100*time.Millisecond, cfg.ECC.Timeout())
	assert.Equal(t, -1, cfg.ECC.LookupTableOffset(512))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "default", modify: func(*Config) {}},
		{name: "bad mode", modify: func(c *Config) { c.ECC.Mode = "bch" }, wantErr: true},
		{name: "bad capability", modify: func(c *Config) { c.ECC.Capability = 6 }, wantErr: true},
		{name: "software ignores capability", modify: func(c *Config) {
			c.ECC.Mode = ModeSoftware
			c.ECC.Capability = 0
		}},
		{name: "bad sector size", modify: func(c *Config) { c.ECC.SectorSize = 256 }, wantErr: true},
		{name: "zero timeout", modify: func(c *Config) { c.ECC.TimeoutMS = 0 }, wantErr: true},
		{name: "bad geometry", modify: func(c *Config) { c.NAND.PageSize = 1000 }, wantErr: true},
		{name: "bad verbosity", modify: func(c *Config) { c.UI.Verbosity = "loud" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigManagerCreatesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pmecc", "config.json")

	cm, err := NewConfigManagerAt(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cm.GetConfig())
	assert.FileExists(t, path)

	cfg := cm.GetConfig()
	cfg.ECC.Capability = 8
	cfg.ECC.LookupTableOffset1024 = 0x8000
	cm.SetConfig(cfg)
	require.NoError(t, cm.SaveConfig())

	reloaded, err := NewConfigManagerAt(path)
	require.NoError(t, err)
	assert.Equal(t, 8, reloaded.GetConfig().ECC.Capability)
	assert.Equal(t, 0x8000, reloaded.GetConfig().ECC.LookupTableOffset(1024))
	assert.Equal(t, path, reloaded.Path())
}

func TestConfigManagerPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ecc": {"capability": 12}}`), 0600))

	cm, err := NewConfigManagerAt(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cm.GetConfig().ECC.Capability)
	assert.Equal(t, 512, cm.GetConfig().ECC.SectorSize)
	assert.Equal(t, 2048, cm.GetConfig().NAND.PageSize)
}

func TestConfigManagerRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0600))

	_, err := NewConfigManagerAt(path)
	assert.Error(t, err)
}

func TestConfigPathFromEnvironment(t *testing.T) {
	t.Setenv("PMECC_CONFIG", "/tmp/custom.json")
	path, err := getConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.json", path)

	t.Setenv("PMECC_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	path, err = getConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "pmecc", "config.json"), path)
}
