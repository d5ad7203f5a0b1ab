// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/pharbuilder/pharbuilder/internal/build"
	"github.com/pharbuilder/pharbuilder/internal/config"
	"github.com/pharbuilder/pharbuilder/pkg/composer"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: all Cobra command handlers receive an App reference and delegate
	// through it.
	App struct {
		Config  config.Provider
		Builder BuilderFactory
		stdout  io.Writer
		stderr  io.Writer
		verbose bool
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config  config.Provider
		Builder BuilderFactory
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// BuilderFactory creates the builder for one package run.
	BuilderFactory func(project *composer.Project, settings *config.Settings, opts ...build.Option) ArchiveBuilder

	// ArchiveBuilder writes one archive.
	ArchiveBuilder interface {
		Build(ctx context.Context) (*build.Result, error)
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Builder == nil {
		deps.Builder = func(project *composer.Project, settings *config.Settings, opts ...build.Option) ArchiveBuilder {
			return build.New(project, settings, opts...)
		}
	}

	return &App{
		Config:  deps.Config,
		Builder: deps.Builder,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}
}

// logger returns the diagnostics logger for the current verbosity.
func (a *App) logger() *log.Logger {
	level := log.InfoLevel
	if a.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}

// loadProject opens the project in the directory named by args (default ".")
// and resolves its settings.
func (a *App) loadProject(ctx context.Context, args []string, flags *pflag.FlagSet) (*composer.Project, *config.Settings, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	project, err := composer.Open(dir)
	if err != nil {
		return nil, nil, err
	}
	settings, err := a.Config.Load(ctx, project, config.LoadOptions{Flags: flags})
	if err != nil {
		return nil, nil, err
	}
	return project, settings, nil
}
