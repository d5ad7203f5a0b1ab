// SPDX-License-Identifier: MPL-2.0

package fileselect

import (
	"regexp"
	"strings"
)

var (
	vcsDirs = map[string]bool{
		".git":         true,
		".svn":         true,
		".hg":          true,
		".bzr":         true,
		"CVS":          true,
		"_darcs":       true,
		"_svn":         true,
		".arch-ids":    true,
		".arch-params": true,
		"{arch}":       true,
		".monotone":    true,
	}

	// Compared lower-cased.
	excludedSegments = map[string]bool{
		"doc":        true,
		"docs":       true,
		"test":       true,
		"tests":      true,
		"phpunit":    true,
		"phpspec":    true,
		"simpletest": true,
	}

	backupSuffixes = []string{"~", ".back", ".swp"}

	specFileRe = regexp.MustCompile(`Spec\.[^.]+$`)
)

// excludedDir reports whether a directory with the given name is pruned.
func excludedDir(name string) bool {
	return vcsDirs[name] || strings.HasPrefix(name, ".") || excludedSegments[strings.ToLower(name)]
}

// excludedFile reports whether a file with the given name is dropped.
func excludedFile(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "composer.") {
		return true
	}
	for _, suffix := range backupSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return specFileRe.MatchString(name)
}
