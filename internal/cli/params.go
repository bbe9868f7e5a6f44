package cli

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davincible/pmecc/pkg/hamming"
	"github.com/Davincible/pmecc/pkg/nand"
	"github.com/Davincible/pmecc/pkg/pmecc"
)

func NewParamsCommand() *cobra.Command {
	var (
		pageSize   int
		oobSize    int
		capability int
		sectorSize int
	)

	cmd := &cobra.Command{
		Use:   "params",
		Short: "Show the ECC parameters for a geometry",
		Long: `Derive the ECC parameters for a page geometry without touching an image:
sectors per page, redundancy bytes and the Galois field degree, or the
software fallback when the page size is not handled by PMECC.`,
		Example: `  pmecc params --page-size 4096 --oob-size 224 --cap 24 --sector 1024`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			w := cmd.OutOrStdout()
			setupColor(cfg, w)

			geom := nand.Geometry{
				PageSize:      pick(cmd, "page-size", pageSize, cfg.NAND.PageSize),
				OOBSize:       pick(cmd, "oob-size", oobSize, cfg.NAND.OOBSize),
				PagesPerBlock: 1,
				Blocks:        1,
			}
			capability := pick(cmd, "cap", capability, cfg.ECC.Capability)
			sectorSize := pick(cmd, "sector", sectorSize, cfg.ECC.SectorSize)
			outputJSON, _ := cmd.Flags().GetBool("json")

			green := color.New(color.FgGreen, color.Bold)
			yellow := color.New(color.FgYellow, color.Bold)
			cyan := color.New(color.FgCyan)

			p, err := pmecc.Resolve(geom, capability, sectorSize)
			if errors.Is(err, pmecc.ErrFallbackToSoftware) {
				steps := geom.PageSize / hamming.StepSize
				if outputJSON {
					return printJSON(w, map[string]interface{}{
						"engine":    "hamming",
						"steps":     steps,
						"ecc_bytes": steps * hamming.EccSize,
					})
				}
				yellow.Fprintf(w, "Page size %d is not handled by PMECC, software Hamming ECC\n", geom.PageSize)
				cyan.Fprintf(w, "  %d steps of %d bytes, %d ecc bytes per page\n",
					steps, hamming.StepSize, steps*hamming.EccSize)
				return nil
			}
			if err != nil {
				return err
			}

			if outputJSON {
				return printJSON(w, map[string]interface{}{
					"engine":           "pmecc",
					"capability":       p.Capability,
					"sector_size":      p.SectorSize,
					"sectors_per_page": p.SectorsPerPage,
					"bytes_per_sector": p.BytesPerSector,
					"ecc_bytes":        p.EccTotal(),
					"degree":           p.Degree,
					"search_length":    p.SearchLength(),
				})
			}

			green.Fprintf(w, "✓ PMECC %s\n", p)
			cyan.Fprintf(w, "  ECC bytes per page: %d of %d spare\n", p.EccTotal(), p.OOBSize)
			cyan.Fprintf(w, "  Codeword length:    %d bits per sector\n", p.SearchLength())
			return nil
		},
	}

	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Page data size in bytes")
	cmd.Flags().IntVar(&oobSize, "oob-size", 0, "Spare area size in bytes")
	cmd.Flags().IntVarP(&capability, "cap", "t", 0, "Correctable bits per sector")
	cmd.Flags().IntVarP(&sectorSize, "sector", "s", 0, "ECC sector size")

	return cmd
}
