// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/pharbuilder/pharbuilder/internal/config"

	"github.com/spf13/pflag"
)

// addSettingsFlags registers the flags that override build settings. Only
// flags set on the command line take effect; the others leave the manifest
// and environment values alone.
func addSettingsFlags(flags *pflag.FlagSet) {
	flags.String("name", "", "archive file name (default <package>.phar)")
	flags.String("output-dir", "", "directory the archive is written to, relative to the project")
	flags.String("entry-point", "", "project file the archive runs (default the first \"bin\" entry)")
	flags.String("compression", "", "compression of text entries: none, gzip or bzip2")
	flags.StringSlice("include", nil, "extra file or directory to package (repeatable)")
	flags.StringSlice("exclude", nil, "path to leave out of every selected directory (repeatable)")
	flags.Bool("include-dev", false, "package dev-only packages and autoload-dev sources")
	flags.Bool(config.NoShebangFlag, false, "omit the #! line from the stub")
	flags.String("signature", "", "signature algorithm: sha1, sha256 or sha512")
	flags.String("runtime", "", "interpreter named in the #! line")
	flags.String("alias", "", "name the archive maps itself under (default the archive name)")
	flags.Int64("timestamp", 0, "entry timestamp in Unix seconds (default $SOURCE_DATE_EPOCH or 0)")
}
