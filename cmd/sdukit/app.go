// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/sdukit/sdukit/internal/config"
)

type (
	// App is the composition root of the CLI. Command handlers receive it and
	// reach configuration and output through it, never through globals.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer

		// set by the persistent pre-run
		verbose bool
		cfgFile string
		cfg     *config.Config
		cfgPath string
		logger  *log.Logger
	}

	// Dependencies are the injection points for NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config config.Provider
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp builds an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{Config: deps.Config, stdout: deps.Stdout, stderr: deps.Stderr}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	app.logger = newLogger(app.stderr, log.InfoLevel)
	return app
}

// load reads configuration relative to baseDir and configures the logger.
func (a *App) load(ctx context.Context, baseDir string) error {
	cfg, path, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.cfgFile, BaseDir: baseDir})
	if err != nil {
		return err
	}
	a.cfg, a.cfgPath = cfg, path

	level := log.InfoLevel
	if parsed, err := log.ParseLevel(cfg.Log.Level); err == nil {
		level = parsed
	}
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger = newLogger(a.stderr, level)
	return nil
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix: "sdukit",
		Level:  level,
	})
}
