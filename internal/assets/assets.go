// Package assets resolves logical asset names against an ordered list of
// search directories.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"jigsawreveal/internal/services"
)

// Resolve returns the path of name inside the first directory of the
// comma-delimited searchPaths that contains it. An absolute name is returned
// unchanged without touching the filesystem.
func Resolve(searchPaths, name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}
	if strings.TrimSpace(name) == "" {
		return "", services.Wrap(services.ErrAssetNotFound, "resolve_assets", "resolve", "empty asset name", nil)
	}
	for _, dir := range Split(searchPaths) {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrPermission) {
			return "", services.Wrap(services.ErrAssetNotFound, "resolve_assets", name, fmt.Sprintf("stat %s", candidate), err)
		}
	}
	return "", services.Wrap(
		services.ErrAssetNotFound,
		"resolve_assets",
		name,
		fmt.Sprintf("not found in %q", searchPaths),
		nil,
	)
}

// Split breaks a comma-delimited search path into its non-empty directories,
// preserving order.
func Split(searchPaths string) []string {
	parts := strings.Split(searchPaths, ",")
	dirs := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			dirs = append(dirs, part)
		}
	}
	return dirs
}

// Join builds a comma-delimited search path from dirs, skipping blanks.
func Join(dirs ...string) string {
	kept := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if dir = strings.TrimSpace(dir); dir != "" {
			kept = append(kept, dir)
		}
	}
	return strings.Join(kept, ",")
}

// Prepend returns searchPaths with dir searched first.
func Prepend(dir, searchPaths string) string {
	return Join(append([]string{dir}, Split(searchPaths)...)...)
}
