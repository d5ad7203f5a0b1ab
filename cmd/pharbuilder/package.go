// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/pharbuilder/pharbuilder/internal/build"

	"github.com/spf13/cobra"
)

// newPackageCommand creates the `phar-builder package` command.
func newPackageCommand(app *App) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "package [dir]",
		Short: "Package a Composer project into a PHAR archive",
		Long: `Package a Composer project into a self-executing PHAR archive.

The project sources declared under "autoload" and the packages installed in
the vendor directory are selected, documentation, tests and version-control
metadata are left out, and the archive is written with a stub that runs the
entry point.

Unless --include-dev is given, dev-only packages are left out and the
vendor autoload registries are rewritten in place so that they no longer
load them. Run 'composer install' again to restore them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, settings, err := app.loadProject(cmd.Context(), args, cmd.Flags())
			if err != nil {
				return failure(err, "load project")
			}

			logger := app.logger()
			logger.Debug("settings resolved", "name", settings.Name, "entry-point", settings.EntryPoint,
				"compression", settings.Compression, "include-dev", settings.IncludeDev)

			reporter := newProgressReporter(app.stdout, quiet)
			builder := app.Builder(project, settings,
				build.WithLogger(logger),
				build.WithReporter(reporter),
			)
			if _, err := builder.Build(cmd.Context()); err != nil {
				return failure(err, "package project")
			}
			return nil
		},
	}

	addSettingsFlags(cmd.Flags())
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print the summary only")

	return cmd
}
