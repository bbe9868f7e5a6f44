package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davincible/pmecc/pkg/config"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		Long: `Show or reset the configuration file. The file lives at
$PMECC_CONFIG, $XDG_CONFIG_HOME/pmecc/config.json or
~/.config/pmecc/config.json and holds the default geometry and ECC
settings used by format and params.`,
	}

	cmd.AddCommand(
		newConfigShowCommand(),
		newConfigPathCommand(),
		newConfigResetCommand(),
	)

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, err := config.NewConfigManager()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cm.GetConfig())
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, err := config.NewConfigManager()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cm.Path())
			return nil
		},
	}
}

func newConfigResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cm, err := config.NewConfigManager()
			if err != nil {
				return err
			}

			cm.SetConfig(config.DefaultConfig())
			if err := cm.SaveConfig(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			w := cmd.OutOrStdout()
			setupColor(cm.GetConfig(), w)
			color.New(color.FgGreen, color.Bold).Fprintf(w, "✓ Configuration reset: %s\n", cm.Path())
			return nil
		},
	}
}
