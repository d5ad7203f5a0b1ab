// SPDX-License-Identifier: MPL-2.0

// Package composer reads the metadata of a Composer-managed PHP project.
//
// A [Project] wraps a project root and gives access to:
//
//   - the manifest (composer.json) through [Manifest], addressed by
//     "/"-separated key paths such as "extra/phar-builder/output-dir"
//   - the lock file (composer.lock) through [LockFile], read once and memoized
//   - the computed [SourceSpec]: autoload source directories and files, the
//     vendor directory, dev-only packages to exclude and the placeholder files
//     that stand in for their always-loaded files
//   - the always-load registry generated by Composer
//     (vendor/composer/autoload_files.php and the $files table of
//     autoload_static.php), which [Project.RemoveAutoloadEntries] rewrites to
//     drop the entries of excluded packages
//
// All returned paths are slash-separated and relative to the project root.
package composer
