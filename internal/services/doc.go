// Package services defines shared utilities consumed by the render stages and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and puzzle
//     indexes for logging.
//   - Structured error markers plus the Wrap helper so a failure keeps its kind
//     (asset_not_found, invalid_order, encode, ...) through every layer that
//     adds context.
//
// Use these helpers when wiring new stage logic so error reporting and log
// fields stay uniform across the pipeline.
package services
