package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"

	"github.com/bmatcuk/doublestar/v4"
)

// IsEligible reports whether name carries the configured extension,
// compared case-insensitively.
func IsEligible(name, ext string) bool {
	if ext == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext))
}

// Admitter returns a selection filter that accepts regular files inside
// contextDir with the configured extension. Directories are never
// eligible.
func Admitter(contextDir, ext string) func(id string) bool {
	return func(id string) bool {
		if !IsEligible(id, ext) {
			return false
		}
		info, err := os.Stat(filepath.Join(contextDir, id))
		return err == nil && info.Mode().IsRegular()
	}
}

// ResolveFiles expands names and doublestar globs relative to contextDir
// and returns the eligible matches as paths relative to contextDir. Literal
// names that do not exist are an error; ineligible matches are dropped.
func ResolveFiles(patterns []string, contextDir, ext string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	var files []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		resolved, err := resolvePattern(pattern, contextDir, ext)
		if err != nil {
			return nil, err
		}
		for _, f := range resolved {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	if len(files) == 0 {
		return nil, kerrors.ErrNoFilesFound
	}

	sort.Strings(files)
	return files, nil
}

func resolvePattern(pattern, contextDir, ext string) ([]string, error) {
	absPattern := pattern
	if !filepath.IsAbs(pattern) {
		absPattern = filepath.Join(contextDir, pattern)
	}

	if !strings.ContainsAny(pattern, "*?[{") {
		info, err := os.Stat(absPattern)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", pattern)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", pattern, err)
		}
		if info.IsDir() || !IsEligible(absPattern, ext) {
			return nil, nil
		}
		rel, err := relativeTo(contextDir, absPattern)
		if err != nil {
			return nil, err
		}
		return []string{rel}, nil
	}

	matches, err := doublestar.FilepathGlob(absPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}

	var filtered []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if !IsEligible(m, ext) {
			continue
		}
		rel, err := relativeTo(contextDir, m)
		if err != nil {
			return nil, err
		}
		filtered = append(filtered, rel)
	}

	return filtered, nil
}

func relativeTo(contextDir, path string) (string, error) {
	rel, err := filepath.Rel(contextDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside %s", path, contextDir)
	}
	return rel, nil
}

// ListEligible returns the eligible regular files directly inside dir,
// sorted by name.
func ListEligible(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrContextNotFound, dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if IsEligible(entry.Name(), ext) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
