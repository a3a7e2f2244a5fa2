package encoding

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jigsawreveal/internal/config"
	"jigsawreveal/internal/logging"
	"jigsawreveal/internal/services"
	"jigsawreveal/internal/timeline"
)

// Options control a single encode.
type Options struct {
	Output string
	// FPS overrides the configured frame rate when positive.
	FPS int
	// WorkDir receives materialized stills and input links. A temporary
	// directory is used and removed when empty.
	WorkDir  string
	Progress ProgressFunc
}

// Encoder turns timelines into video files with ffmpeg.
type Encoder struct {
	binary   string
	settings Settings
	logger   *slog.Logger
}

// New returns an encoder configured from cfg.
func New(cfg *config.Config, logger *slog.Logger) *Encoder {
	return &Encoder{
		binary: cfg.Encode.FFmpegBinary,
		settings: Settings{
			FPS:         cfg.Canvas.FPS,
			VideoCodec:  cfg.Encode.VideoCodec,
			AudioCodec:  cfg.Encode.AudioCodec,
			Preset:      cfg.Encode.Preset,
			PixelFormat: cfg.Encode.PixelFormat,
		},
		logger: logging.NewComponentLogger(logger, "encoder"),
	}
}

// Encode writes tl to opts.Output. On failure any partial output is removed.
func (e *Encoder) Encode(ctx context.Context, tl *timeline.Timeline, opts Options) error {
	output := strings.TrimSpace(opts.Output)
	if output == "" {
		return services.Wrap(services.ErrEncode, "encode", "validate", "output path is empty", nil)
	}
	if tl == nil || tl.Duration() <= 0 || tl.Size().Empty() {
		return services.Wrap(services.ErrEncode, "encode", "validate", "timeline is empty", nil)
	}
	settings := e.settings
	if opts.FPS > 0 {
		settings.FPS = opts.FPS
	}
	if settings.FPS <= 0 {
		return services.Wrap(services.ErrEncode, "encode", "validate", "frame rate must be positive", nil)
	}

	workDir := strings.TrimSpace(opts.WorkDir)
	if workDir == "" {
		tmp, err := os.MkdirTemp("", "jigsaw-encode-")
		if err != nil {
			return services.Wrap(services.ErrEncode, "encode", "workdir", "create temporary directory", err)
		}
		defer os.RemoveAll(tmp)
		workDir = tmp
	}

	full := tl.Plan()
	plan := full.Coalesce()
	src, err := stage(plan, workDir)
	if err != nil {
		return services.Wrap(services.ErrEncode, "encode", "stage inputs", "materialize inputs", err)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return services.Wrap(services.ErrEncode, "encode", "output", "create output directory", err)
	}

	args := compile(plan, src, output, settings)
	total := TotalFrames(plan.Duration, settings.FPS)
	e.logger.Info("encoding timeline",
		logging.String("output", output),
		logging.Duration("duration", plan.Duration),
		logging.String("size", plan.Size.String()),
		logging.Int("fps", settings.FPS),
		logging.Int("layers", len(plan.Layers)),
		logging.Int("layers_before_merge", len(full.Layers)),
		logging.Int("sounds", len(plan.Sounds)),
		logging.Int64("frames", total),
		logging.String(logging.FieldEventType, "encode_start"),
	)
	e.logger.Debug("ffmpeg command", logging.String("binary", e.binary), logging.Any("args", args))

	sampler := logging.NewProgressSampler(10)
	progress := newProgressWriter(total, func(completed, total int64) {
		if sampler.ShouldLogFrames(completed, total, "encode") {
			e.logger.Debug("encode progress",
				logging.Int64("frames", completed),
				logging.Float64("percent", logging.FramePercent(completed, total)),
			)
		}
		if opts.Progress != nil {
			opts.Progress(completed, total)
		}
	})

	started := time.Now()
	if err := runCommand(ctx, e.binary, args, progress); err != nil {
		_ = os.Remove(output)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return services.Wrap(services.ErrEncode, "encode", "ffmpeg", "ffmpeg failed", err)
	}
	progress.complete()
	e.logger.Info("encode complete",
		logging.String("output", output),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "encode_complete"),
	)
	return nil
}
