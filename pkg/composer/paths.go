// SPDX-License-Identifier: MPL-2.0

package composer

import (
	"path"
	"path/filepath"
	"strings"
)

// orderedSet keeps the first occurrence of each string in insertion order.
type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func (s *orderedSet) add(item string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[item]; ok {
		return
	}
	s.seen[item] = struct{}{}
	s.items = append(s.items, item)
}

func (s *orderedSet) has(item string) bool {
	_, ok := s.seen[item]
	return ok
}

// normalizePath turns a manifest path into a clean slash-separated relative path.
// The empty path and "./" both denote the project root (".").
func normalizePath(p string) string {
	p = strings.TrimSpace(filepath.ToSlash(p))
	if p == "" {
		return "."
	}
	p = path.Clean(p)
	return strings.TrimPrefix(p, "./")
}

// relativeTo converts p into a path relative to root. Relative inputs are
// only normalized; absolute inputs are made relative when they live under root.
func relativeTo(root, p string) string {
	if filepath.IsAbs(p) {
		if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
			return normalizePath(rel)
		}
	}
	return normalizePath(p)
}
