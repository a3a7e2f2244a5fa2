// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Info: the reduced view the compositor uses (natural duration, frame
//     size, audio channel count)
//   - Prober: runs ffprobe for a path and returns its Info
//
// Still images report no duration; animations and audio report their natural
// length, which is what loops and celebration overlays are timed against.
package ffprobe
