// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdukit/sdukit/internal/combine"
	"github.com/sdukit/sdukit/pkg/coord"
)

type combineFlags struct {
	project    string
	output     string
	outputDir  string
	allowEmpty bool
}

func newCombineCommand(app *App) *cobra.Command {
	var f combineFlags
	cmd := &cobra.Command{
		Use:   "combine <input>...",
		Short: "Merge deployable units, keeping the newest version of each module",
		Long: `Combine merges already assembled units into one. Inputs may be archive
files, directories (every *.sdu inside) or glob patterns such as
"build/**/*.sdu". When two inputs carry the same module, the higher
version is kept and takes over the load-order slot of the older one.`,
		Example: `  sdukit combine --project com.example:suite:2.0 shop.sdu billing.sdu
  sdukit combine --project com.example:suite:2.0 "units/**/*.sdu" --output suite.sdu`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCombine(cmd, app, args, f)
		},
	}
	cmd.Flags().StringVarP(&f.project, "project", "p", "", "group:artifact:version naming the merged unit (required)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "archive path (default <output-dir>/<artifact>-<version>.sdu)")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "directory for the default archive name (default build.output_dir)")
	cmd.Flags().BoolVar(&f.allowEmpty, "allow-empty", false, "warn instead of failing when no members are found")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func runCombine(cmd *cobra.Command, app *App, inputs []string, f combineFlags) error {
	project, err := coord.Parse(f.project)
	if err != nil {
		return err
	}
	if missing := project.Missing(); len(missing) > 0 {
		return &coord.InvalidCoordinateError{Value: f.project, Reason: "missing " + strings.Join(missing, ", ")}
	}
	outputDir := f.outputDir
	if outputDir == "" {
		outputDir = app.cfg.Build.OutputDir
	}
	failOnEmpty := app.cfg.Combine.FailOnEmpty && !f.allowEmpty

	h, err := combine.New(combine.Options{Logger: app.logger.WithPrefix("combine")}).Combine(cmd.Context(), combine.Request{
		Project:     project,
		Inputs:      inputs,
		Output:      f.output,
		OutputDir:   outputDir,
		FailOnEmpty: failOnEmpty,
	})
	if err != nil {
		return err
	}
	if h == nil {
		fmt.Fprintln(app.stdout, WarningStyle.Render("nothing to combine, no archive written"))
		return nil
	}
	fmt.Fprintf(app.stdout, "%s %s (%d members)\n", SuccessStyle.Render("✓"), h.Path, len(h.Entries))
	return nil
}
