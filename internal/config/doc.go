// Package config loads, normalizes, and validates jigsaw renderer configuration.
//
// It supplies repository defaults (canvas size, page timing, overlay layout,
// decoration asset names), expands user paths including tilde shortcuts, reads
// TOML files, and honours environment fallbacks such as JIGSAW_ASSET_PATH. The
// Config value is passed explicitly into the render driver and page builder so
// two renders with different settings never share ambient state.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
