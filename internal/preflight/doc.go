// Package preflight provides readiness checks for the binaries, directories
// and decoration assets a render depends on.
//
// The render command runs RunAll before touching any input so a missing
// ffmpeg or an unreadable asset directory fails in seconds instead of after
// the piece splitter has run. "jigsaw doctor" prints the same checks.
package preflight
