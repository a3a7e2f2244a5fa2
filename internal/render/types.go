package render

import (
	"context"
	"time"

	"jigsawreveal/internal/encoding"
	"jigsawreveal/internal/media/ffprobe"
	"jigsawreveal/internal/puzzle"
	"jigsawreveal/internal/services/drapto"
	"jigsawreveal/internal/timeline"
)

// Stage names, as recorded in logs, errors and the run history.
const (
	StageReadConfig     = "read_config"
	StageResolveAssets  = "resolve_assets"
	StageGenerateOrder  = "generate_order"
	StageBuildPages     = "build_pages"
	StageSequencePuzzle = "sequence_puzzle"
	StageConcatenate    = "concatenate"
	StageMixAudio       = "mix_audio"
	StageEncode         = "encode"
	StageArchive        = "archive"
	StagePublish        = "publish"
	StageDone           = "done"
)

// DefaultOutput is used when a request names no output file.
const DefaultOutput = "/tmp/jigsawreveal.mp4"

// Request describes one render.
type Request struct {
	// InputDir holds the puzzle document and, unless AssetPaths is set, the
	// puzzle images.
	InputDir string
	// Document, when set, is used instead of reading InputDir's document.
	Document *puzzle.Document
	// AssetPaths is a comma-delimited search path replacing InputDir for
	// asset lookup. The configured asset directories are always searched
	// first.
	AssetPaths string
	// FPS overrides the configured frame rate when positive.
	FPS int

	Intro  string
	Outtro string
	Music  string
	Output string

	Progress encoding.ProgressFunc

	// Archive adds an AV1 copy of the output; the encode.archive_av1 setting
	// enables it too.
	Archive bool
	// Publish uploads the output (and archive copy) to the configured bucket.
	Publish bool
}

// Result summarizes a finished render or plan.
type Result struct {
	RunID    string
	Output   string
	Archive  string
	URLs     []string
	Puzzles  int
	Pages    int
	Duration time.Duration
	Timeline *timeline.Timeline
}

// Prober reports the natural properties of a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Info, error)
}

// Encoder materializes a timeline as a video file.
type Encoder interface {
	Encode(ctx context.Context, tl *timeline.Timeline, opts encoding.Options) error
}

// Publisher uploads a finished artifact and returns its location.
type Publisher interface {
	Publish(ctx context.Context, runID, artifact string) (string, error)
}

// Archiver is the optional AV1 archive transcode.
type Archiver = drapto.Archiver
