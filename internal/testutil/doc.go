// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include filesystem operations (MustMkdirAll, MustWriteFile,
// MustReadFile), environment management (MustSetenv), a deterministic
// FakeClock, and the Project fixture builder that lays out a Composer
// project (manifest, lock file, sources, vendor directory and generated
// autoload registries) in a temporary directory.
package testutil
