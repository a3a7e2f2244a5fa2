// Package main hosts the jigsaw CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the structured
// logger and hands requests to the render driver, the run history and the
// staging helpers. Rendering logic lives in internal packages; commands only
// translate flags and print results.
package main
