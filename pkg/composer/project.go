// SPDX-License-Identifier: MPL-2.0

package composer

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
)

// Autoload kinds that map a namespace prefix to directories.
var directoryMappedKinds = []string{"psr-4", "psr-0"}

// Autoload kinds that list explicit paths, classified by what exists on disk.
var explicitPathKinds = []string{"classmap", "files"}

type (
	// Project is a Composer project rooted at a directory.
	Project struct {
		root     string
		manifest *Manifest
		lock     func() (*LockFile, error)

		mu        sync.Mutex
		rewritten bool
	}

	// SourcePaths are the sources declared by the manifest's autoload sections.
	SourcePaths struct {
		Dirs  []string
		Files []string
	}

	// SourceSpec is the complete result of metadata analysis for one build.
	// Every path is slash-separated and relative to the project root, and no
	// path appears in both Files and Stubs.
	SourceSpec struct {
		// Dirs are the autoload source directories.
		Dirs []string
		// Files are the autoload source files.
		Files []string
		// VendorDir is the dependency-install directory.
		VendorDir string
		// ExcludedPackages are dev-only packages left out of the archive.
		ExcludedPackages []string
		// Stubs are placeholder files standing in for the always-loaded files
		// of excluded packages, qualified with VendorDir.
		Stubs []string
	}
)

// Open loads the manifest of the project rooted at root. The lock file is
// read lazily on first use and memoized for the lifetime of the Project.
func Open(root string) (*Project, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	m, err := LoadManifest(filepath.Join(absRoot, ManifestFileName))
	if err != nil {
		return nil, err
	}

	p := &Project{root: absRoot, manifest: m}
	lockPath := p.LockPath()
	p.lock = sync.OnceValues(func() (*LockFile, error) {
		return LoadLockFile(lockPath)
	})
	return p, nil
}

// Root returns the absolute project root.
func (p *Project) Root() string { return p.root }

// Manifest returns the parsed composer.json.
func (p *Project) Manifest() *Manifest { return p.manifest }

// ManifestPath returns the absolute path of composer.json.
func (p *Project) ManifestPath() string { return filepath.Join(p.root, ManifestFileName) }

// LockPath returns the absolute path of composer.lock.
func (p *Project) LockPath() string { return filepath.Join(p.root, LockFileName) }

// ManifestValue looks up a "/"-separated key path in the manifest.
func (p *Project) ManifestValue(keyPath string) (any, bool) {
	return p.manifest.Value(keyPath)
}

// LockFile returns the memoized lock file.
func (p *Project) LockFile() (*LockFile, error) {
	return p.lock()
}

// VendorDir returns the dependency-install directory relative to the root.
func (p *Project) VendorDir() string {
	return relativeTo(p.root, p.manifest.VendorDir())
}

// SourcePaths collects autoload directories and files. Directory-mapped
// entries (psr-4, psr-0) always contribute a directory; classmap and files
// entries contribute whatever exists on disk and are dropped otherwise.
func (p *Project) SourcePaths(includeDev bool) SourcePaths {
	var dirs, files orderedSet

	sections := []string{"autoload"}
	if includeDev {
		sections = append(sections, "autoload-dev")
	}

	for _, section := range sections {
		for _, kind := range directoryMappedKinds {
			mapping := p.manifest.Section(section + keyDelimiter + kind)
			for _, prefix := range sortedKeys(mapping) {
				for _, dir := range stringList(mapping[prefix]) {
					dirs.add(relativeTo(p.root, dir))
				}
			}
		}
		for _, kind := range explicitPathKinds {
			raw, ok := p.manifest.Value(section + keyDelimiter + kind)
			if !ok {
				continue
			}
			for _, entry := range stringList(raw) {
				rel := relativeTo(p.root, entry)
				info, err := os.Stat(filepath.Join(p.root, filepath.FromSlash(rel)))
				switch {
				case err != nil:
					continue
				case info.IsDir():
					dirs.add(rel)
				default:
					files.add(rel)
				}
			}
		}
	}

	return SourcePaths{Dirs: dirs.items, Files: files.items}
}

// DevPackageNames returns the dev-only package names recorded in the lock file.
func (p *Project) DevPackageNames() ([]string, error) {
	lf, err := p.lock()
	if err != nil {
		return nil, err
	}
	return lf.DevPackageNames(), nil
}

// StubFiles returns, for every dev-only package, each always-loaded file it
// registers, qualified as "<package>/<file>".
func (p *Project) StubFiles() ([]string, error) {
	lf, err := p.lock()
	if err != nil {
		return nil, err
	}
	var stubs orderedSet
	for _, name := range lf.DevPackageNames() {
		pkg, _ := lf.DevPackage(name)
		for _, file := range pkg.Autoload.Files {
			stubs.add(path.Join(name, normalizePath(file)))
		}
	}
	return stubs.items, nil
}

// SourceSpec computes everything the build needs from the project metadata.
// The lock file is always read so that a missing or unreadable lock file is
// reported before any output is touched.
func (p *Project) SourceSpec(includeDev bool) (*SourceSpec, error) {
	devNames, err := p.DevPackageNames()
	if err != nil {
		return nil, err
	}

	sources := p.SourcePaths(includeDev)
	spec := &SourceSpec{
		Dirs:      sources.Dirs,
		VendorDir: p.VendorDir(),
	}
	if includeDev {
		spec.Files = sources.Files
		return spec, nil
	}

	stubFiles, err := p.StubFiles()
	if err != nil {
		return nil, err
	}
	var stubs orderedSet
	for _, stub := range stubFiles {
		stubs.add(path.Join(spec.VendorDir, stub))
	}
	for _, file := range sources.Files {
		if !stubs.has(file) {
			spec.Files = append(spec.Files, file)
		}
	}
	spec.ExcludedPackages = devNames
	spec.Stubs = stubs.items
	return spec, nil
}
