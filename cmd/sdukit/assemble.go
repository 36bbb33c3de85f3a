// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdukit/sdukit/internal/assemble"
	"github.com/sdukit/sdukit/pkg/coord"
)

type assembleFlags struct {
	output     string
	exclusions string
	includeAll bool
}

func newAssembleCommand(app *App) *cobra.Command {
	var f assembleFlags
	cmd := &cobra.Command{
		Use:   "assemble [workspace-dir]",
		Short: "Assemble a deployable unit from a workspace",
		Long: `Assemble resolves the workspace's profile, feature and extension modules
and their dependencies, computes the load order and writes one stored
archive with a manifest listing that order.

Modules of the workspace that are still building are waited for; other
artifacts come from the configured repositories.`,
		Example: `  sdukit assemble
  sdukit assemble ./shop --exclusions org.legacy:*,com.example:debug-tools
  sdukit assemble --output dist/shop.sdu`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssemble(cmd, app, workspaceArg(args), f)
		},
	}
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "archive path (default <output_dir>/<artifact>-<version>.sdu)")
	cmd.Flags().StringVar(&f.exclusions, "exclusions", "", "comma-separated group:artifact patterns to leave out, * allowed")
	cmd.Flags().BoolVar(&f.includeAll, "include-all", true, "include feature and extension modules of an aggregate workspace")
	return cmd
}

func runAssemble(cmd *cobra.Command, app *App, dir string, f assembleFlags) error {
	exclusions, err := coord.ParseExclusions(f.exclusions)
	if err != nil {
		return err
	}
	includeAll := app.cfg.Build.IncludeAll
	if cmd.Flags().Changed("include-all") {
		includeAll = f.includeAll
	}

	run, err := app.openWorkspace(dir, includeAll)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	plan, err := run.collect(ctx, exclusions)
	if err != nil {
		return err
	}

	h, err := assemble.New(assemble.Options{Logger: app.logger.WithPrefix("assemble")}).Assemble(ctx, assemble.Request{
		Project:    run.project,
		Artifacts:  plan.Artifacts,
		Tree:       plan.Tree,
		Output:     f.output,
		OutputDir:  run.outputDir(app.cfg.Build.OutputDir),
		Exclusions: exclusions,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓"), h.Path)
	for i, s := range h.Manifest.Slots() {
		app.logger.Debug("slot", "n", i, "coordinate", s.Coordinate())
	}
	return nil
}

func workspaceArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}
