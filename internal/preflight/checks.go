package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"jigsawreveal/internal/assets"
	"jigsawreveal/internal/config"
	"jigsawreveal/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
}

func checkDirectory(name, path string, mode uint32, ok string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, ok)}
}

// CheckAssets resolves every configured decoration asset on searchPath.
func CheckAssets(cfg *config.Config, searchPath string) []Result {
	named := []struct{ label, name string }{
		{"Frame asset", cfg.Assets.Frame},
		{"Badge asset", cfg.Assets.Badge},
		{"Confetti asset", cfg.Assets.Confetti},
		{"Sound asset", cfg.Assets.Sound},
		{"Caption font", cfg.Caption.Font},
	}
	results := make([]Result, 0, len(named))
	for _, n := range named {
		path, err := assets.Resolve(searchPath, n.name)
		if err != nil {
			results = append(results, Result{Name: n.label, Detail: fmt.Sprintf("%s not found", n.name)})
			continue
		}
		if err := unix.Access(path, unix.R_OK); err != nil {
			results = append(results, Result{Name: n.label, Detail: fmt.Sprintf("%s (error: unreadable: %v)", path, err)})
			continue
		}
		results = append(results, Result{Name: n.label, Passed: true, Detail: path})
	}
	return results
}

// CheckSystemDeps evaluates the external binaries for cfg.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}
