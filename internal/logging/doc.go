// Package logging assembles structured slog loggers and formatting helpers used
// across the renderer.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so stage code tags log lines with the run
// identifier, stage, and puzzle index. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
package logging
