// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdukit/sdukit/internal/config"
)

// newConfigCommand creates the `sdukit config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect sdukit configuration",
		Long: `Inspect sdukit configuration.

Configuration is read from the file given with --config, else sdukit.cue in
the working directory, else config.cue in the user config directory
($XDG_CONFIG_HOME/sdukit on Linux). SDUKIT_* environment variables override
file values, e.g. SDUKIT_BUILD_OUTPUT_DIR=dist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the user config directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	return cfgCmd
}

func showConfig(app *App) error {
	source := SubtitleStyle.Render("(defaults and environment)")
	if app.cfgPath != "" {
		source = app.cfgPath
	}
	fmt.Fprintf(app.stdout, "%s %s\n\n", CmdStyle.Render("// source:"), source)
	fmt.Fprint(app.stdout, config.GenerateCUE(app.cfg))
	return nil
}
