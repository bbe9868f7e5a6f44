package cli

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davincible/pmecc/internal/validation"
	"github.com/Davincible/pmecc/pkg/config"
	"github.com/Davincible/pmecc/pkg/ecc"
	"github.com/Davincible/pmecc/pkg/nand"
	"github.com/Davincible/pmecc/pkg/pmecc/sim"
	"github.com/Davincible/pmecc/pkg/storage"
)

func NewFormatCommand() *cobra.Command {
	var (
		pageSize      int
		oobSize       int
		pagesPerBlock int
		blocks        int
		capability    int
		sectorSize    int
		software      bool
	)

	cmd := &cobra.Command{
		Use:   "format [image]",
		Short: "Create an erased NAND image",
		Long: `Create a fully erased NAND image and record its geometry and ECC setup in
a manifest next to it. Unset flags are taken from the configuration file.

PMECC is used when the page size allows it (2048, 4096 or 8192 bytes),
software Hamming ECC otherwise.`,
		Example: `  # 2k pages with 64 byte spare, 4 bit correction per 512 bytes
  pmecc format flash.bin --page-size 2048 --oob-size 64 --cap 4

  # 24 bit correction per 1024 bytes
  pmecc format flash.bin --page-size 4096 --oob-size 224 --cap 24 --sector 1024`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			w := cmd.OutOrStdout()
			setupColor(cfg, w)

			geom := nand.Geometry{
				PageSize:      pick(cmd, "page-size", pageSize, cfg.NAND.PageSize),
				OOBSize:       pick(cmd, "oob-size", oobSize, cfg.NAND.OOBSize),
				PagesPerBlock: pick(cmd, "pages-per-block", pagesPerBlock, cfg.NAND.PagesPerBlock),
				Blocks:        pick(cmd, "blocks", blocks, cfg.NAND.Blocks),
			}
			if err := validation.ValidatePageSize(geom.PageSize); err != nil {
				return err
			}
			if err := geom.Validate(); err != nil {
				return fmt.Errorf("invalid geometry: %w", err)
			}

			capability := pick(cmd, "cap", capability, cfg.ECC.Capability)
			sectorSize := pick(cmd, "sector", sectorSize, cfg.ECC.SectorSize)
			mode := cfg.ECC.Mode
			if software {
				mode = config.ModeSoftware
			}
			if mode != config.ModeSoftware {
				if err := validation.ValidateCapability(capability); err != nil {
					return err
				}
				if err := validation.ValidateSectorSize(sectorSize); err != nil {
					return err
				}
			}

			chip, err := nand.NewMemChip(geom)
			if err != nil {
				return err
			}

			engine, err := ecc.Setup(chip, sim.New(), ecc.Settings{
				Capability:    capability,
				SectorSize:    sectorSize,
				Timeout:       cfg.ECC.Timeout(),
				Logger:        slog.Default(),
				ForceSoftware: mode == config.ModeSoftware,
			})
			if err != nil {
				return fmt.Errorf("failed to set up ECC: %w", err)
			}
			if mode == config.ModePMECC && engine.Kind() != ecc.KindPMECC {
				return fmt.Errorf("page size %d is not handled by PMECC", geom.PageSize)
			}

			info := storage.ECCInfo{Mode: engine.Kind().String()}
			if engine.Kind() == ecc.KindPMECC {
				info.Capability = capability
				info.SectorSize = sectorSize
			}

			img := storage.NewImageFile(args[0])
			if err := img.Save(chip, info); err != nil {
				return err
			}

			if outputJSON, _ := cmd.Flags().GetBool("json"); outputJSON {
				return printJSON(w, map[string]interface{}{
					"image":     img.Path(),
					"geometry":  geom,
					"ecc":       info,
					"ecc_bytes": engine.EccBytes(),
				})
			}

			green := color.New(color.FgGreen, color.Bold)
			cyan := color.New(color.FgCyan)

			green.Fprintf(w, "✓ Created %s\n", img.Path())
			cyan.Fprintf(w, "  Geometry: %d pages of %d+%d bytes (%d blocks)\n",
				geom.Pages(), geom.PageSize, geom.OOBSize, geom.Blocks)
			cyan.Fprintf(w, "  ECC:      %s, %d bytes per page\n", engine.Describe(), engine.EccBytes())

			return nil
		},
	}

	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Page data size in bytes")
	cmd.Flags().IntVar(&oobSize, "oob-size", 0, "Spare area size in bytes")
	cmd.Flags().IntVar(&pagesPerBlock, "pages-per-block", 0, "Pages per erase block")
	cmd.Flags().IntVar(&blocks, "blocks", 0, "Number of erase blocks")
	cmd.Flags().IntVarP(&capability, "cap", "t", 0, "Correctable bits per sector (2, 4, 8, 12, 24)")
	cmd.Flags().IntVarP(&sectorSize, "sector", "s", 0, "ECC sector size (512 or 1024)")
	cmd.Flags().BoolVar(&software, "software", false, "Use software Hamming ECC")

	return cmd
}
