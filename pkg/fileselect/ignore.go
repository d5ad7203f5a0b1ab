// SPDX-License-Identifier: MPL-2.0

package fileselect

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/moby/patternmatcher/ignorefile"
)

// IgnoreFileName is the per-project ignore file, in .dockerignore syntax.
const IgnoreFileName = ".pharignore"

// LoadIgnoreFile reads root/.pharignore. A project without one has no
// patterns and no error.
func LoadIgnoreFile(root string) ([]string, error) {
	f, err := os.Open(filepath.Join(root, IgnoreFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", IgnoreFileName, err)
	}
	defer func() { _ = f.Close() }()

	patterns, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}
	return patterns, nil
}
