package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Davincible/pmecc/internal/validation"
	"github.com/Davincible/pmecc/pkg/config"
	"github.com/Davincible/pmecc/pkg/ecc"
	"github.com/Davincible/pmecc/pkg/nand"
	"github.com/Davincible/pmecc/pkg/pmecc"
	"github.com/Davincible/pmecc/pkg/pmecc/sim"
	"github.com/Davincible/pmecc/pkg/storage"
)

// loadConfig returns the user configuration, or the defaults when it is
// missing or invalid
func loadConfig() *config.Config {
	cm, err := config.NewConfigManager()
	if err != nil {
		slog.Warn("Using default configuration", "error", err)
		return config.DefaultConfig()
	}

	cfg := cm.GetConfig()
	if err := cfg.Validate(); err != nil {
		slog.Warn("Invalid configuration, using defaults", "path", cm.Path(), "error", err)
		return config.DefaultConfig()
	}
	return cfg
}

// setupColor disables colours when configured off or when w is not a terminal
func setupColor(cfg *config.Config, w io.Writer) {
	f, ok := w.(*os.File)
	color.NoColor = !cfg.UI.UseColor || !ok || !term.IsTerminal(int(f.Fd()))
}

// pick returns the flag value when set, the configured value otherwise
func pick(cmd *cobra.Command, flag string, value, configured int) int {
	if cmd.Flags().Changed(flag) {
		return value
	}
	return configured
}

// openEngine sets up the engine recorded in an image manifest. Images
// protected by PMECC are served by the software model of the accelerator.
func openEngine(chip nand.Chip, info storage.ECCInfo, cfg *config.Config, romPath string) (*ecc.Engine, error) {
	settings := ecc.Settings{
		Capability: info.Capability,
		SectorSize: info.SectorSize,
		Timeout:    cfg.ECC.Timeout(),
		Logger:     slog.Default(),
	}

	if romPath != "" {
		rom, err := os.ReadFile(romPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read lookup rom: %w", err)
		}
		settings.LookupROM = rom
		settings.LookupOffset = max(cfg.ECC.LookupTableOffset(info.SectorSize), 0)
	}

	var hw pmecc.Session
	switch info.Mode {
	case ecc.KindPMECC.String():
		hw = sim.New()
	case ecc.KindHamming.String():
		settings.ForceSoftware = true
	default:
		return nil, fmt.Errorf("unknown ecc mode %q in manifest", info.Mode)
	}

	engine, err := ecc.Setup(chip, hw, settings)
	if err != nil {
		return nil, err
	}
	if engine.Kind().String() != info.Mode {
		return nil, fmt.Errorf("image was written with %s, geometry only allows %s", info.Mode, engine.Kind())
	}
	return engine, nil
}

// loadImage opens an image and the engine protecting it
func loadImage(path string, cfg *config.Config, romPath string) (*storage.ImageFile, *nand.MemChip, *ecc.Engine, error) {
	img := storage.NewImageFile(path)
	chip, manifest, err := img.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	engine, err := openEngine(chip, manifest.ECC, cfg, romPath)
	if err != nil {
		return nil, nil, nil, err
	}
	return img, chip, engine, nil
}

// readPageInput returns page data from a file or a hex string, padded with
// the erase value
func readPageInput(inputFile, hexData string, pageSize int) ([]byte, error) {
	var payload []byte
	switch {
	case inputFile != "" && hexData != "":
		return nil, fmt.Errorf("use either --input or --hex, not both")
	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		payload = data
	case hexData != "":
		hexData = strings.Join(strings.Fields(validation.SanitizeInput(hexData)), "")
		if err := validation.ValidateHex(hexData); err != nil {
			return nil, fmt.Errorf("invalid --hex: %w", err)
		}
		data, _ := hex.DecodeString(hexData)
		payload = data
	default:
		return nil, fmt.Errorf("no page data, use --input or --hex")
	}

	if len(payload) > pageSize {
		return nil, fmt.Errorf("input is %d bytes, page holds %d", len(payload), pageSize)
	}

	page := make([]byte, pageSize)
	nand.Fill(page)
	copy(page, payload)
	return page, nil
}

func printJSON(w io.Writer, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(jsonData))
	return nil
}
