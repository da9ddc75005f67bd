package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DefaultExcludes are directory names skipped during enumeration unless the
// caller replaces them.
var DefaultExcludes = []string{".git", ".svn", "node_modules", "vendor", "obj", "bin"}

// IsSourceFile reports whether path has one of the recognized ASP Classic
// extensions.
func IsSourceFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asp", ".asa", ".vbs":
		return true
	}
	return false
}

// FindSourceFiles walks dir and returns every ASP/VBS file in sorted order.
// Exclusion patterns are matched with filepath.Match against each path
// component and against the base name; this over-matches
// ("backup" excludes any component named backup anywhere) and under-matches
// multi-component globs like "backup/**", a known limitation of the
// component-window scheme.
func FindSourceFiles(dir string, excludes []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && Excluded(path, excludes) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsSourceFile(path) && !Excluded(path, excludes) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Excluded reports whether any pattern matches any component of path or its
// base name.
func Excluded(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	components := strings.Split(filepath.ToSlash(path), "/")
	for _, pattern := range patterns {
		for _, comp := range components {
			if ok, err := filepath.Match(pattern, comp); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// ReadFileWithFallback reads path as UTF-8 and, when the bytes are not valid
// UTF-8, reinterprets them as ISO-8859-1 (a direct byte-to-rune mapping,
// common in legacy ASP Classic files) instead of failing.
func ReadFileWithFallback(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
