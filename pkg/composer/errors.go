// SPDX-License-Identifier: MPL-2.0

package composer

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadableManifest is returned when composer.json is missing, unreadable or not valid JSON.
	ErrUnreadableManifest = errors.New("unreadable manifest")
	// ErrMissingLockFile is returned when composer.lock does not exist.
	ErrMissingLockFile = errors.New("missing lock file")
	// ErrUnreadableLockFile is returned when composer.lock exists but cannot be read or parsed.
	ErrUnreadableLockFile = errors.New("unreadable lock file")
	// ErrAutoloadRewrite is returned when the always-load registry cannot be parsed or written.
	ErrAutoloadRewrite = errors.New("autoload registry rewrite failed")
	// ErrAutoloadAlreadyRewritten is returned when the registry rewrite is requested twice for one project.
	ErrAutoloadAlreadyRewritten = errors.New("autoload registry already rewritten")
)

// RegistryFormatError reports a line of a generated registry file that does
// not follow the expected layout. It wraps ErrAutoloadRewrite.
type RegistryFormatError struct {
	File string
	Line int
	Text string
}

// Error implements the error interface.
func (e *RegistryFormatError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.File, e.Text)
	}
	return fmt.Sprintf("%s:%d: unexpected registry line %q", e.File, e.Line, e.Text)
}

// Unwrap returns ErrAutoloadRewrite for errors.Is() compatibility.
func (e *RegistryFormatError) Unwrap() error { return ErrAutoloadRewrite }
