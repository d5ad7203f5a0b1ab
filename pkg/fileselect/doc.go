// SPDX-License-Identifier: MPL-2.0

// Package fileselect decides which files of a project directory belong in an
// archive. A fixed policy drops version-control metadata, hidden files,
// Composer manifests, editor backups, spec files and anything below a
// documentation or test directory; callers add their own exclusions and,
// optionally, dockerignore-style patterns from a .pharignore file.
package fileselect
