// Package drapto produces AV1 archive copies of finished renders through the
// Drapto Go library.
//
// The Archiver interface lets the render driver run the transcode as an
// optional post-encode stage, and the reporter adapter narrows Drapto's
// Reporter callbacks to the few progress events the renderer logs.
package drapto
