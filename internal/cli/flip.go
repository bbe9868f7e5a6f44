package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davincible/pmecc/internal/validation"
	"github.com/Davincible/pmecc/pkg/storage"
)

func NewFlipCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flip [image] [page:offset:bit...]",
		Short: "Inject bit errors into an image",
		Long: `Invert single bits of the raw image to simulate flash bit errors. Offsets
count from the start of the page, offsets past the page data address the
spare area. The manifest digest is updated so the image still loads.`,
		Example: `  # Two bit errors in page 0, one in the spare area of a 2k page
  pmecc flip flash.bin 0:3:0 0:2050:7`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			w := cmd.OutOrStdout()
			setupColor(cfg, w)

			flips := make([]validation.BitFlip, 0, len(args)-1)
			for _, arg := range args[1:] {
				flip, err := validation.ParseBitFlip(arg)
				if err != nil {
					return err
				}
				flips = append(flips, flip)
			}

			img := storage.NewImageFile(args[0])
			chip, manifest, err := img.Load()
			if err != nil {
				return err
			}

			for _, f := range flips {
				if err := chip.FlipBit(f.Page, f.Offset, f.Bit); err != nil {
					return fmt.Errorf("failed to flip %d:%d:%d: %w", f.Page, f.Offset, f.Bit, err)
				}
			}

			if err := img.Save(chip, manifest.ECC); err != nil {
				return err
			}

			if outputJSON, _ := cmd.Flags().GetBool("json"); outputJSON {
				return printJSON(w, map[string]interface{}{
					"image":   img.Path(),
					"flipped": flips,
				})
			}

			color.New(color.FgYellow, color.Bold).Fprintf(w, "⚡ Flipped %d bits in %s\n", len(flips), img.Path())
			return nil
		},
	}

	return cmd
}
