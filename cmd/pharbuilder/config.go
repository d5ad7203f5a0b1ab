// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `phar-builder config` command.
func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [dir]",
		Short: "Show the resolved build settings",
		Long: `Show the resolved build settings as YAML.

Settings are layered, later sources winning: built-in defaults, the
"extra.phar-builder" section of composer.json, PHAR_BUILDER_* environment
variables (e.g. PHAR_BUILDER_COMPRESSION=gzip) and command-line flags.
The flags are the same as for the package command.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, settings, err := app.loadProject(cmd.Context(), args, cmd.Flags())
			if err != nil {
				return failure(err, "load settings")
			}

			fmt.Fprintf(app.stdout, "# %s\n", project.ManifestPath())
			if err := writeYAML(app.stdout, settings); err != nil {
				return failure(err, "encode settings")
			}
			return nil
		},
	}

	addSettingsFlags(cmd.Flags())

	return cmd
}
