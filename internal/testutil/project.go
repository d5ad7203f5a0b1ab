// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

type (
	// Project lays out a Composer project in a temporary directory.
	Project struct {
		Root string
		t    testing.TB
	}

	// LockedPackage describes a package written into the fixture lock file.
	LockedPackage struct {
		Name  string
		Files []string
	}
)

// NewProject creates an empty project root with the given composer.json content.
func NewProject(t testing.TB, manifest string) *Project {
	t.Helper()
	p := &Project{Root: t.TempDir(), t: t}
	p.File("composer.json", manifest)
	return p
}

// File writes a file relative to the project root.
func (p *Project) File(rel, content string) *Project {
	p.t.Helper()
	MustWriteFile(p.t, p.Root, rel, content)
	return p
}

// Read returns the content of a file relative to the project root.
func (p *Project) Read(rel string) string {
	p.t.Helper()
	return MustReadFile(p.t, p.Root, rel)
}

// Lock writes composer.lock with the given production and dev-only packages.
func (p *Project) Lock(packages, devPackages []LockedPackage) *Project {
	p.t.Helper()
	data, err := json.MarshalIndent(map[string]any{
		"_readme":      []string{"This file locks the dependencies of your project to a known state"},
		"content-hash": "0123456789abcdef0123456789abcdef",
		"packages":     lockEntries(packages),
		"packages-dev": lockEntries(devPackages),
	}, "", "    ")
	if err != nil {
		p.t.Fatalf("failed to encode lock file: %v", err)
	}
	return p.File("composer.lock", string(data))
}

// Vendor writes the files of the given packages into vendor/ and generates
// the matching autoload_files.php and autoload_static.php registries.
func (p *Project) Vendor(packages ...LockedPackage) *Project {
	p.t.Helper()
	for _, pkg := range packages {
		p.File("vendor/"+pkg.Name+"/composer.json", fmt.Sprintf(`{"name": %q}`, pkg.Name))
		p.File("vendor/"+pkg.Name+"/src/Lib.php", "<?php\n// "+pkg.Name+"\n")
		for _, f := range pkg.Files {
			p.File("vendor/"+pkg.Name+"/"+f, "<?php\n// always loaded by "+pkg.Name+"\n")
		}
	}
	p.File("vendor/autoload.php", "<?php\nreturn require __DIR__ . '/composer/autoload_real.php';\n")
	p.File("vendor/composer/autoload_files.php", AutoloadFilesPHP(packages...))
	p.File("vendor/composer/autoload_static.php", AutoloadStaticPHP(packages...))
	return p
}

// AutoloadFilesPHP renders an autoload_files.php registry as Composer generates it.
func AutoloadFilesPHP(packages ...LockedPackage) string {
	var sb strings.Builder
	sb.WriteString("<?php\n\n// autoload_files.php @generated by Composer\n\n")
	sb.WriteString("$vendorDir = dirname(__DIR__);\n$baseDir = dirname($vendorDir);\n\n")
	sb.WriteString("return array(\n")
	for i, pkg := range packages {
		for j, f := range pkg.Files {
			fmt.Fprintf(&sb, "    '%032x' => $vendorDir . '/%s/%s',\n", i*100+j+1, pkg.Name, f)
		}
	}
	sb.WriteString(");\n")
	return sb.String()
}

// AutoloadStaticPHP renders an autoload_static.php initializer with a $files table.
func AutoloadStaticPHP(packages ...LockedPackage) string {
	var sb strings.Builder
	sb.WriteString("<?php\n\n// autoload_static.php @generated by Composer\n\n")
	sb.WriteString("namespace Composer\\Autoload;\n\n")
	sb.WriteString("class ComposerStaticInit0123\n{\n")
	sb.WriteString("    public static $files = array (\n")
	for i, pkg := range packages {
		for j, f := range pkg.Files {
			fmt.Fprintf(&sb, "        '%032x' => __DIR__ . '/..' . '/%s/%s',\n", i*100+j+1, pkg.Name, f)
		}
	}
	sb.WriteString("    );\n\n")
	sb.WriteString("    public static $classMap = array (\n")
	sb.WriteString("        'Composer\\\\InstalledVersions' => __DIR__ . '/..' . '/composer/InstalledVersions.php',\n")
	sb.WriteString("    );\n}\n")
	return sb.String()
}

func lockEntries(packages []LockedPackage) []map[string]any {
	entries := make([]map[string]any, 0, len(packages))
	for _, pkg := range packages {
		entry := map[string]any{"name": pkg.Name, "version": "1.0.0"}
		if len(pkg.Files) > 0 {
			entry["autoload"] = map[string]any{"files": pkg.Files}
		} else {
			entry["autoload"] = []any{}
		}
		entries = append(entries, entry)
	}
	return entries
}
