// SPDX-License-Identifier: MPL-2.0

// Package config resolves build settings using Viper, with the project's
// composer.json as the settings file.
//
// Settings are layered, lowest precedence first: built-in defaults, the
// extra.phar-builder section of composer.json, PHAR_BUILDER_* environment
// variables and command-line flags. The composer.json section is validated
// against a CUE schema (settings_schema.cue) before it is merged, so typos and
// wrong types are reported with the offending field's path.
package config
