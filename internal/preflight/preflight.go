package preflight

import (
	"context"
	"fmt"
	"strings"

	"jigsawreveal/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for cfg. searchPath is the asset
// search list a render would use; an empty value uses the configured asset
// directories.
func RunAll(ctx context.Context, cfg *config.Config, searchPath string) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result
	for _, status := range CheckSystemDeps(ctx, cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Command}
		if !status.Available {
			result.Detail = status.Detail
		}
		results = append(results, result)
	}

	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	if cfg.Encode.ArchiveAV1 {
		results = append(results, CheckDirectoryAccess("Archive directory", cfg.Encode.ArchiveDir))
	}
	for i, dir := range cfg.Paths.AssetDirs {
		results = append(results, CheckReadableDirectory(fmt.Sprintf("Asset directory %d", i+1), dir))
	}

	if strings.TrimSpace(searchPath) == "" {
		searchPath = strings.Join(cfg.Paths.AssetDirs, ",")
	}
	results = append(results, CheckAssets(cfg, searchPath)...)
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
