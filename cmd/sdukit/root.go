// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the sdukit command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "sdukit",
		Short: "Assemble and combine single deployable units",
		Long: TitleStyle.Render("sdukit") + SubtitleStyle.Render(" - single deployable unit toolkit") + `

sdukit packages a multi-module product into one archive. It resolves the
dependency graph between profile, feature and extension modules, orders
them so every parent loads before its children, and writes a byte-stable
stored ZIP whose manifest records that order.

` + SubtitleStyle.Render("Examples:") + `
  sdukit assemble                 Assemble the workspace in the current directory
  sdukit tree --format toml       Print the load order
  sdukit combine -p g:suite:1.0 a.sdu b.sdu
  sdukit config show              Show the effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			baseDir := ""
			if cmd.Name() == "assemble" || cmd.Name() == "tree" {
				baseDir = workspaceArg(args)
			}
			return app.load(cmd.Context(), baseDir)
		},
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Err: err}
	})
	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging and detailed error output")
	root.PersistentFlags().StringVar(&app.cfgFile, "config", "", "config file (default is ./sdukit.cue or $XDG_CONFIG_HOME/sdukit/config.cue)")

	root.AddCommand(
		newAssembleCommand(app),
		newCombineCommand(app),
		newTreeCommand(app),
		newConfigCommand(app),
		newVersionCommand(app),
	)
	return root
}

func newVersionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sdukit version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(app.stdout, getVersionString())
			return nil
		},
	}
}

// getVersionString prefers ldflags, then the module version recorded by
// go install.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute runs the CLI and exits with the classified exit code on failure.
func Execute() {
	app := NewApp(Dependencies{})
	if err := run(context.Background(), app, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}

// run executes one invocation. Command errors are rendered here so that
// fang's own error printer only sees the exit code.
func run(ctx context.Context, app *App, args []string) error {
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	err := fang.Execute(ctx, root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(_ io.Writer, _ fang.Styles, _ error) {}),
	)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return exitErr
	}
	rendered := renderError(app.stderr, err, app.verbose)
	if errors.As(err, &exitErr) {
		rendered.Code = exitErr.Code
	}
	return rendered
}
