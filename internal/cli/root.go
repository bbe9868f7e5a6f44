package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the command tree.
func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pmecc",
		Short: "BCH page ECC for NAND flash images",
		Long: `pmecc protects NAND flash pages with multibit BCH error correction as
computed by a PMECC accelerator, falling back to single-bit Hamming codes
for page sizes the accelerator does not handle.

It works on raw NAND images (data and spare area of every page) and lets
you write pages with ECC, inject bit errors and read pages back through
the correction pipeline.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			switch loadConfig().UI.Verbosity {
			case "quiet":
				level = slog.LevelError
			case "verbose":
				level = slog.LevelDebug
			}
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				level = slog.LevelDebug
			}

			if level != slog.LevelWarn {
				slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
					Level: level,
				})))
			}
		},
	}

	rootCmd.AddCommand(
		NewFormatCommand(),
		NewWriteCommand(),
		NewReadCommand(),
		NewFlipCommand(),
		NewTablesCommand(),
		NewParamsCommand(),
		NewConfigCommand(),
	)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("rom", "", "Load the Galois field tables from this ROM image")

	return rootCmd
}
