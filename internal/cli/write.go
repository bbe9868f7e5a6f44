package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davincible/pmecc/internal/validation"
	"github.com/Davincible/pmecc/pkg/storage"
)

func NewWriteCommand() *cobra.Command {
	var (
		page      int
		inputFile string
		hexData   string
	)

	cmd := &cobra.Command{
		Use:   "write [image]",
		Short: "Program a page with ECC",
		Long: `Program one page of an image. The redundancy is computed by the engine
recorded in the image manifest and stored in the spare area. Data shorter
than a page is padded with 0xFF.

Like real NAND, programming only clears bits: write to erased pages.`,
		Example: `  # Program page 3 from a file
  pmecc write flash.bin --page 3 --input sector.bin

  # Program a few bytes
  pmecc write flash.bin --page 0 --hex deadbeef`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			w := cmd.OutOrStdout()
			setupColor(cfg, w)

			romPath, _ := cmd.Flags().GetString("rom")
			img, chip, engine, err := loadImage(args[0], cfg, romPath)
			if err != nil {
				return err
			}

			geom := chip.Geometry()
			if err := validation.ValidatePage(page, geom.Pages()); err != nil {
				return err
			}

			data, err := readPageInput(inputFile, hexData, geom.PageSize)
			if err != nil {
				return err
			}

			if err := engine.WritePage(page, data, nil); err != nil {
				return fmt.Errorf("failed to write page %d: %w", page, err)
			}

			manifest, err := img.LoadManifest()
			if err != nil {
				return err
			}
			if err := img.Save(chip, manifest.ECC); err != nil {
				return err
			}

			if outputJSON, _ := cmd.Flags().GetBool("json"); outputJSON {
				return printJSON(w, map[string]interface{}{
					"image":  img.Path(),
					"page":   page,
					"digest": storage.Digest(chip.Image()),
				})
			}

			color.New(color.FgGreen, color.Bold).Fprintf(w, "✓ Programmed page %d (%s)\n", page, engine.Kind())
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 0, "Page number")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Read page data from file")
	cmd.Flags().StringVar(&hexData, "hex", "", "Page data as hex")

	return cmd
}
