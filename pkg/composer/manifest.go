// SPDX-License-Identifier: MPL-2.0

package composer

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ManifestFileName is the name of the project manifest.
	ManifestFileName = "composer.json"
	// LockFileName is the name of the dependency lock file.
	LockFileName = "composer.lock"

	// DefaultVendorDir is used when the manifest does not configure config/vendor-dir.
	DefaultVendorDir = "vendor"

	keyDelimiter = "/"
)

// Manifest is a parsed composer.json. Values are addressed by "/"-separated
// key paths; lookups are case-insensitive.
type Manifest struct {
	path string
	v    *viper.Viper
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableManifest, err)
	}
	return ParseManifest(path, data)
}

// ParseManifest parses manifest content. path is only used for messages.
func ParseManifest(path string, data []byte) (*Manifest, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableManifest, path, err)
	}
	return &Manifest{path: path, v: v}, nil
}

// Path returns the file the manifest was read from.
func (m *Manifest) Path() string { return m.path }

// Value returns the value at keyPath, or false if any segment is missing.
func (m *Manifest) Value(keyPath string) (any, bool) {
	keyPath = strings.Trim(keyPath, keyDelimiter)
	if keyPath == "" || !m.v.IsSet(keyPath) {
		return nil, false
	}
	return m.v.Get(keyPath), true
}

// String returns the string value at keyPath. Non-string values are absent.
func (m *Manifest) String(keyPath string) (string, bool) {
	raw, ok := m.Value(keyPath)
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

// Section returns the object at keyPath, or nil when it is absent or not an object.
func (m *Manifest) Section(keyPath string) map[string]any {
	raw, ok := m.Value(keyPath)
	if !ok {
		return nil
	}
	section, _ := raw.(map[string]any)
	return section
}

// Name returns the package name declared by the manifest.
func (m *Manifest) Name() string {
	name, _ := m.String("name")
	return name
}

// VendorDir returns the configured dependency-install directory.
func (m *Manifest) VendorDir() string {
	if dir, ok := m.String("config/vendor-dir"); ok && strings.TrimSpace(dir) != "" {
		return normalizePath(dir)
	}
	return DefaultVendorDir
}

// stringList coerces a scalar-or-list manifest value into strings.
func stringList(raw any) []string {
	switch val := raw.(type) {
	case string:
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return val
	default:
		return nil
	}
}

// sortedKeys returns the keys of m in lexical order so that traversal of
// autoload maps does not depend on map iteration order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
