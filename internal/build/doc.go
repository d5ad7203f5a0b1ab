// SPDX-License-Identifier: MPL-2.0

// Package build turns a Composer project into a PHAR archive.
//
// A Builder reads the project metadata, selects the files to package and
// feeds them to a phar.Writer in a fixed order: autoload sources, explicit
// autoload files, placeholders for the always-loaded files of excluded
// dev-only packages, extra includes, the vendor directory, the Composer
// manifest and lock file, and finally the entry point. Before the vendor
// directory is walked, the always-load registries are rewritten so that the
// archive never requires a file of an excluded package.
//
// The rewrite modifies the project's vendor directory in place and is not
// rolled back when a later step fails.
package build
