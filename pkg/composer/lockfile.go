// SPDX-License-Identifier: MPL-2.0

package composer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

type (
	// LockFile is the part of composer.lock consumed by the builder.
	LockFile struct {
		// Packages are the production dependencies.
		Packages []LockedPackage `json:"packages"`
		// PackagesDev are the development-only dependencies.
		PackagesDev []LockedPackage `json:"packages-dev"`
	}

	// LockedPackage is one resolved package of the lock file.
	LockedPackage struct {
		Name     string          `json:"name"`
		Version  string          `json:"version"`
		Autoload PackageAutoload `json:"autoload"`
	}

	// PackageAutoload holds the always-load files a package registers.
	PackageAutoload struct {
		Files []string `json:"files"`
	}
)

// UnmarshalJSON accepts both an object and the empty array PHP emits for an
// empty autoload section.
func (a *PackageAutoload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		*a = PackageAutoload{}
		return nil
	}
	type plain PackageAutoload
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*a = PackageAutoload(p)
	return nil
}

// LoadLockFile reads the lock file at path. A missing file yields
// ErrMissingLockFile; any other read or parse failure yields ErrUnreadableLockFile.
func LoadLockFile(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingLockFile, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnreadableLockFile, err)
	}
	return ParseLockFile(path, data)
}

// ParseLockFile parses lock file content. path is only used for messages.
func ParseLockFile(path string, data []byte) (*LockFile, error) {
	var lf LockFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableLockFile, path, err)
	}
	return &lf, nil
}

// DevPackageNames returns the names of development-only packages in lock file order.
func (l *LockFile) DevPackageNames() []string {
	var names orderedSet
	for _, pkg := range l.PackagesDev {
		if pkg.Name != "" {
			names.add(pkg.Name)
		}
	}
	return names.items
}

// DevPackage returns the development-only package with the given name.
func (l *LockFile) DevPackage(name string) (LockedPackage, bool) {
	for _, pkg := range l.PackagesDev {
		if pkg.Name == name {
			return pkg, true
		}
	}
	return LockedPackage{}, false
}
