// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for phar-builder.
//
// This package implements the Cobra command hierarchy: the root command and
// the package, inspect and config subcommands. Handlers delegate to the
// build, config and phar packages through the App composition root and turn
// failures into actionable errors at this boundary.
package cmd
