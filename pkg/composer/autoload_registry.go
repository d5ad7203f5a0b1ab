// SPDX-License-Identifier: MPL-2.0

package composer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// FilesRegistryName is Composer's generated list of always-loaded files.
	FilesRegistryName = "autoload_files.php"
	// StaticRegistryName is Composer's generated static initializer.
	StaticRegistryName = "autoload_static.php"
)

// RegistryKind selects the layout of a generated registry file.
type RegistryKind int

const (
	// FilesRegistry is autoload_files.php: a returned array of files.
	FilesRegistry RegistryKind = iota
	// StaticRegistry is autoload_static.php: a public static $files table.
	StaticRegistry
)

var (
	filesBlockStart  = regexp.MustCompile(`^\s*return array\s*\($`)
	staticBlockStart = regexp.MustCompile(`^\s*public static \$files = array\s*\($`)
	blockEnd         = regexp.MustCompile(`^\s*\);$`)

	// '<hash>' => <base> . '<path>',
	registryEntryRe = regexp.MustCompile(`^(\s*)'([^']+)' => (\$vendorDir|\$baseDir|__DIR__ \. '[^']*') \. '([^']*)',$`)
)

// vendorBases are the base expressions Composer uses for paths inside the vendor directory.
var vendorBases = map[string]bool{
	"$vendorDir":      true,
	"__DIR__ . '/..'": true,
}

type (
	// RegistryEntry is one always-load registration.
	RegistryEntry struct {
		Indent string
		Hash   string
		Base   string
		Path   string

		// blank lines that precede the entry in the table
		leading []string
	}

	// AutoloadRegistry is a parsed generated registry file. Lines outside the
	// files table are kept verbatim, as are blank lines inside it; the table
	// is regenerated from Entries.
	AutoloadRegistry struct {
		Entries []RegistryEntry

		head []string
		// blank lines between the last entry and the end of the table
		trailing []string
		tail     []string
		eol      string
		hasTable bool
	}
)

// Package reports whether the entry registers a file of the named package.
func (e RegistryEntry) Package(name string) bool {
	return vendorBases[e.Base] && strings.HasPrefix(e.Path, "/"+name+"/")
}

func (e RegistryEntry) render() string {
	return fmt.Sprintf("%s'%s' => %s . '%s',", e.Indent, e.Hash, e.Base, e.Path)
}

// ParseAutoloadRegistry parses a generated registry. name is used in errors.
// A files registry must contain its table; a static registry without a
// $files table registers nothing and parses to an empty registry.
func ParseAutoloadRegistry(name string, data []byte, kind RegistryKind) (*AutoloadRegistry, error) {
	text := string(data)
	reg := &AutoloadRegistry{eol: "\n"}
	if strings.Contains(text, "\r\n") {
		reg.eol = "\r\n"
		text = strings.ReplaceAll(text, "\r\n", "\n")
	}

	start := filesBlockStart
	if kind == StaticRegistry {
		start = staticBlockStart
	}

	lines := strings.Split(text, "\n")
	i := 0
	for ; i < len(lines); i++ {
		reg.head = append(reg.head, lines[i])
		if start.MatchString(lines[i]) {
			reg.hasTable = true
			i++
			break
		}
	}

	if !reg.hasTable {
		if kind == FilesRegistry {
			return nil, &RegistryFormatError{File: name, Text: "files table not found"}
		}
		return reg, nil
	}

	var blanks []string
	for ; i < len(lines); i++ {
		line := lines[i]
		if blockEnd.MatchString(line) {
			reg.trailing = blanks
			reg.tail = lines[i:]
			return reg, nil
		}
		if strings.TrimSpace(line) == "" {
			blanks = append(blanks, line)
			continue
		}
		m := registryEntryRe.FindStringSubmatch(line)
		if m == nil {
			return nil, &RegistryFormatError{File: name, Line: i + 1, Text: line}
		}
		reg.Entries = append(reg.Entries, RegistryEntry{Indent: m[1], Hash: m[2], Base: m[3], Path: m[4], leading: blanks})
		blanks = nil
	}

	return nil, &RegistryFormatError{File: name, Text: "files table is not terminated"}
}

// RemovePackages drops every entry registered by the named packages and
// returns how many were removed. Packages without entries are ignored.
// Blank lines above a removed entry move to the next remaining line.
func (r *AutoloadRegistry) RemovePackages(names []string) int {
	kept := r.Entries[:0]
	removed := 0
	var blanks []string
	for _, entry := range r.Entries {
		if entryMatchesAny(entry, names) {
			blanks = append(blanks, entry.leading...)
			removed++
			continue
		}
		if len(blanks) > 0 {
			entry.leading = append(blanks, entry.leading...)
			blanks = nil
		}
		kept = append(kept, entry)
	}
	r.Entries = kept
	if len(blanks) > 0 {
		r.trailing = append(blanks, r.trailing...)
	}
	return removed
}

func entryMatchesAny(entry RegistryEntry, names []string) bool {
	for _, name := range names {
		if entry.Package(name) {
			return true
		}
	}
	return false
}

// Bytes renders the registry.
func (r *AutoloadRegistry) Bytes() []byte {
	lines := make([]string, 0, len(r.head)+len(r.Entries)+len(r.tail))
	lines = append(lines, r.head...)
	if r.hasTable {
		for _, entry := range r.Entries {
			lines = append(lines, entry.leading...)
			lines = append(lines, entry.render())
		}
		lines = append(lines, r.trailing...)
		lines = append(lines, r.tail...)
	}
	return []byte(strings.Join(lines, r.eol))
}

// RemoveAutoloadEntries rewrites the generated always-load registries of the
// vendor directory so that they no longer register files of the named
// packages, and returns the number of entries removed. The rewrite happens
// in place, cannot be undone and is allowed once per Project. A registry
// that does not exist registers nothing and is skipped.
func (p *Project) RemoveAutoloadEntries(names []string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rewritten {
		return 0, ErrAutoloadAlreadyRewritten
	}
	p.rewritten = true

	if len(names) == 0 {
		return 0, nil
	}

	composerDir := filepath.Join(p.root, filepath.FromSlash(p.VendorDir()), "composer")
	removed := 0
	for _, reg := range []struct {
		name string
		kind RegistryKind
	}{
		{FilesRegistryName, FilesRegistry},
		{StaticRegistryName, StaticRegistry},
	} {
		n, err := rewriteRegistry(filepath.Join(composerDir, reg.name), reg.kind, names)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

func rewriteRegistry(path string, kind RegistryKind, names []string) (int, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAutoloadRewrite, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAutoloadRewrite, err)
	}

	reg, err := ParseAutoloadRegistry(path, data, kind)
	if err != nil {
		return 0, err
	}

	removed := reg.RemovePackages(names)
	if removed == 0 {
		return 0, nil
	}

	if err := os.WriteFile(path, reg.Bytes(), info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAutoloadRewrite, err)
	}
	return removed, nil
}
