package render

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"jigsawreveal/internal/config"
	"jigsawreveal/internal/encoding"
	"jigsawreveal/internal/history"
	"jigsawreveal/internal/logging"
	"jigsawreveal/internal/media/ffprobe"
	"jigsawreveal/internal/pieces"
	"jigsawreveal/internal/services"
	"jigsawreveal/internal/services/drapto"
	"jigsawreveal/internal/staging"
)

// Option customizes a Driver.
type Option func(*Driver)

// WithProber replaces the ffprobe-backed media prober.
func WithProber(p Prober) Option {
	return func(d *Driver) {
		if p != nil {
			d.probe = p
		}
	}
}

// WithSplitter replaces the rectangular grid splitter.
func WithSplitter(s pieces.Splitter) Option {
	return func(d *Driver) {
		if s != nil {
			d.splitter = s
		}
	}
}

// WithEncoder replaces the ffmpeg encoder.
func WithEncoder(e Encoder) Option {
	return func(d *Driver) {
		if e != nil {
			d.encoder = e
		}
	}
}

// WithArchiver replaces the Drapto archive transcoder.
func WithArchiver(a Archiver) Option {
	return func(d *Driver) {
		if a != nil {
			d.archiver = a
		}
	}
}

// WithPublisher sets the uploader used by the publish stage. Without one the
// driver builds an S3 publisher from the configuration on demand.
func WithPublisher(p Publisher) Option {
	return func(d *Driver) {
		d.publisher = p
	}
}

// WithHistory records every render in store.
func WithHistory(store *history.Store) Option {
	return func(d *Driver) {
		d.history = store
	}
}

// WithClock replaces time.Now for recorded timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		if now != nil {
			d.now = now
		}
	}
}

// Driver runs renders. Renders sharing a staging directory are serialized by
// the staging lock; a Driver itself is not safe for concurrent use.
type Driver struct {
	cfg    *config.Config
	logger *slog.Logger

	probe     Prober
	splitter  pieces.Splitter
	encoder   Encoder
	archiver  Archiver
	publisher Publisher
	history   *history.Store
	now       func() time.Time
}

// New returns a driver for cfg using ffprobe, the grid splitter, the ffmpeg
// encoder and the Drapto archiver unless options replace them.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Driver {
	d := &Driver{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "render"),
		probe:    ffprobe.Prober{Binary: cfg.Encode.FFprobeBinary},
		splitter: pieces.NewGrid(cfg.Layout.PuzzleWidth, cfg.Layout.PuzzleHeight),
		encoder:  encoding.New(cfg, logger),
		archiver: drapto.NewLibrary(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// run carries the state of one render between stages.
type run struct {
	id     string
	req    Request
	stage  string
	search string
	result Result
}

// Render executes every stage and writes the output file.
func (d *Driver) Render(ctx context.Context, req Request) (Result, error) {
	return d.execute(ctx, req, true)
}

// Plan executes every stage up to and including mix_audio and returns the
// finished timeline without encoding it.
func (d *Driver) Plan(ctx context.Context, req Request) (Result, error) {
	return d.execute(ctx, req, false)
}

func (d *Driver) execute(ctx context.Context, req Request, encode bool) (Result, error) {
	if d.cfg == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "render", "validate", "configuration is required", nil)
	}
	lock, err := staging.AcquireLock(d.cfg.Paths.StagingDir)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logging.WarnWithContext(d.logger, "failed to release render lock", "render_lock_release_failed",
				logging.String("lock", lock.Path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "the next render may report the staging directory as busy"),
			)
		}
	}()

	r := &run{id: uuid.NewString(), req: req}
	r.result.RunID = r.id
	ctx = services.WithRunID(ctx, r.id)
	logger := logging.WithContext(ctx, d.logger)

	started := d.now()
	if encode {
		d.recordStart(ctx, r, started)
	}
	logger.Info("render started",
		logging.String(logging.FieldEventType, "render_start"),
		logging.String("input_dir", strings.TrimSpace(req.InputDir)),
		logging.Bool("encode", encode),
	)

	err = d.stages(ctx, r, encode)
	elapsed := d.now().Sub(started)
	if encode {
		d.recordFinish(ctx, r, err)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("render canceled", logging.String(logging.FieldStage, r.stage))
			return r.result, err
		}
		attrs := append(logging.Failure(err),
			logging.String(logging.FieldStage, r.stage),
			logging.Duration("elapsed", elapsed),
		)
		logging.ErrorWithContext(logger, "render failed", "render_failed", attrs...)
		return r.result, err
	}

	logger.Info("render completed",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.String("output", r.result.Output),
		logging.Int("puzzles", r.result.Puzzles),
		logging.Int("pages", r.result.Pages),
		logging.Duration("video_duration", r.result.Duration),
		logging.Duration("elapsed", elapsed),
	)
	return r.result, nil
}

// enter marks the start of stage and returns a context stamped with it.
func (d *Driver) enter(ctx context.Context, r *run, stage string) context.Context {
	r.stage = stage
	ctx = services.WithStage(ctx, stage)
	logging.WithContext(ctx, d.logger).Debug("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
	)
	return ctx
}

func (d *Driver) recordStart(ctx context.Context, r *run, started time.Time) {
	if d.history == nil {
		return
	}
	if _, err := d.history.Start(ctx, r.id, r.req.InputDir, started); err != nil {
		logging.WarnWithContext(d.logger, "failed to record render start", "history_write_failed",
			logging.String(logging.FieldRunID, r.id),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this render will be missing from jigsaw history"),
		)
	}
}

func (d *Driver) recordFinish(ctx context.Context, r *run, runErr error) {
	if d.history == nil {
		return
	}
	out := history.Outcome{
		Stage:      r.stage,
		OutputPath: r.result.Output,
		Puzzles:    r.result.Puzzles,
		Pages:      r.result.Pages,
		Duration:   r.result.Duration,
	}
	if runErr != nil {
		out.ErrorKind = services.Kind(runErr)
		out.ErrorMessage = runErr.Error()
	}
	// A canceled render is still recorded.
	ctx = context.WithoutCancel(ctx)
	if err := d.history.Finish(ctx, r.id, out, d.now()); err != nil {
		logging.WarnWithContext(d.logger, "failed to record render outcome", "history_write_failed",
			logging.String(logging.FieldRunID, r.id),
			logging.Error(err),
			logging.String(logging.FieldImpact, "jigsaw history shows this render as running"),
		)
	}
}
