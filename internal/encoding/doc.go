// Package encoding materializes a flattened timeline into one video file.
//
// The encoder writes the plan's in-memory stills to a working directory,
// compiles every layer and sound into a single ffmpeg filter graph (built with
// ffmpeg-go) over a black base canvas, and runs ffmpeg once. Frame progress is
// read from ffmpeg's machine-readable progress stream and reported through a
// ProgressFunc.
package encoding
