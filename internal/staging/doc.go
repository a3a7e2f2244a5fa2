// Package staging owns the render working area: per-stage scope directories
// named <run id>.<label>, the render lock, and cleanup of scopes leaked by
// interrupted renders.
package staging
