// SPDX-License-Identifier: MPL-2.0

package fileselect

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/moby/patternmatcher"
)

// ErrNotDirectory is returned when the directory to select from is a file.
var ErrNotDirectory = errors.New("not a directory")

type (
	// Option configures a selection.
	Option func(*options)

	options struct {
		patterns []string
	}
)

// WithIgnorePatterns drops every path matched by the dockerignore-style
// patterns. Patterns are matched against the root-relative path.
func WithIgnorePatterns(patterns []string) Option {
	return func(o *options) {
		o.patterns = append(o.patterns, patterns...)
	}
}

// Select walks root/dir and returns the files that survive the fixed policy,
// the caller's excludes and any ignore patterns. Paths are slash-separated
// and relative to root, in lexical walk order and without duplicates.
//
// Rules and excludes apply to the path relative to dir. An exclude may be
// absolute or relative to dir; excludes that do not exist are ignored.
// A missing dir yields an error wrapping fs.ErrNotExist.
func Select(root, dir string, excludes []string, opts ...Option) ([]string, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var matcher *patternmatcher.PatternMatcher
	if len(o.patterns) > 0 {
		var err error
		if matcher, err = patternmatcher.New(o.patterns); err != nil {
			return nil, fmt.Errorf("invalid ignore pattern: %w", err)
		}
	}

	base := filepath.Join(root, filepath.FromSlash(dir))
	info, err := os.Stat(base)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("select %s: %w", dir, ErrNotDirectory)
	}

	excluded := resolveExcludes(base, excludes)
	prefix := strings.Trim(filepath.ToSlash(filepath.Clean(filepath.FromSlash(dir))), "/")
	if prefix == "." {
		prefix = ""
	}

	var selected []string
	seen := make(map[string]bool)
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == base {
			return nil
		}

		rel, relErr := filepath.Rel(base, p)
		if relErr != nil {
			return fmt.Errorf("failed to get relative path: %w", relErr)
		}
		rel = filepath.ToSlash(rel)
		rootRel := path.Join(prefix, rel)

		if d.IsDir() {
			if excludedDir(d.Name()) || excluded.covers(rel) || ignoredDir(matcher, rootRel) {
				return filepath.SkipDir
			}
			return nil
		}

		if excludedFile(d.Name()) || excluded.covers(rel) || ignored(matcher, rootRel) {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			// Linked directories are not followed.
			if target, statErr := os.Stat(p); statErr != nil || target.IsDir() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		if !seen[rootRel] {
			seen[rootRel] = true
			selected = append(selected, rootRel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	return selected, nil
}

type excludeSet []string

// resolveExcludes normalizes excludes to slash paths relative to base and
// drops the ones that do not exist.
func resolveExcludes(base string, excludes []string) excludeSet {
	absBase, absErr := filepath.Abs(base)
	var set excludeSet
	for _, exclude := range excludes {
		exclude = strings.TrimRight(exclude, `/\`)
		if exclude == "" {
			continue
		}
		if filepath.IsAbs(exclude) {
			if absErr != nil {
				continue
			}
			rel, err := filepath.Rel(absBase, exclude)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				continue
			}
			exclude = rel
		}
		exclude = filepath.Clean(exclude)
		if _, err := os.Lstat(filepath.Join(base, exclude)); err != nil {
			continue
		}
		set = append(set, filepath.ToSlash(exclude))
	}
	return set
}

func (s excludeSet) covers(rel string) bool {
	for _, exclude := range s {
		if exclude == "." || rel == exclude || strings.HasPrefix(rel, exclude+"/") {
			return true
		}
	}
	return false
}

func ignored(m *patternmatcher.PatternMatcher, rel string) bool {
	if m == nil {
		return false
	}
	match, err := m.MatchesOrParentMatches(filepath.FromSlash(rel))
	return err == nil && match
}

// ignoredDir prunes a directory only when no negated pattern could bring
// back something below it.
func ignoredDir(m *patternmatcher.PatternMatcher, rel string) bool {
	return m != nil && !m.Exclusions() && ignored(m, rel)
}
