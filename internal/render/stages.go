package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"jigsawreveal/internal/assets"
	"jigsawreveal/internal/encoding"
	"jigsawreveal/internal/logging"
	"jigsawreveal/internal/mixer"
	"jigsawreveal/internal/page"
	"jigsawreveal/internal/pieces"
	"jigsawreveal/internal/publish"
	"jigsawreveal/internal/puzzle"
	"jigsawreveal/internal/reveal"
	"jigsawreveal/internal/sequence"
	"jigsawreveal/internal/services"
	"jigsawreveal/internal/services/drapto"
	"jigsawreveal/internal/staging"
	"jigsawreveal/internal/timeline"
)

// puzzleInput is a puzzle with its images resolved to paths.
type puzzleInput struct {
	spec       puzzle.Spec
	background string
	image      string
}

// mediaInputs are the optional files named directly by the request.
type mediaInputs struct {
	intro  string
	outtro string
	music  string
}

func (d *Driver) stages(ctx context.Context, r *run, encode bool) error {
	doc, err := d.readConfig(ctx, r)
	if err != nil {
		return err
	}
	inputs, media, err := d.resolveAssets(ctx, r, doc)
	if err != nil {
		return err
	}

	settings, err := page.SettingsFromConfig(d.cfg)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, StageBuildPages, "settings", "invalid caption colours", err)
	}
	clips := make([]timeline.Clip, 0, len(inputs))
	for i, in := range inputs {
		clip, pages, err := d.buildPuzzle(ctx, r, i+1, in, settings)
		if err != nil {
			return err
		}
		clips = append(clips, clip)
		r.result.Puzzles++
		r.result.Pages += pages
	}

	tl, err := d.concatenate(ctx, r, clips, media)
	if err != nil {
		return err
	}
	if media.music != "" {
		mctx := d.enter(ctx, r, StageMixAudio)
		tl, err = mixer.New(d.cfg, d.probe, d.logger).ApplyBackgroundMusic(mctx, tl, media.music)
		if err != nil {
			return err
		}
	}
	r.result.Timeline = tl
	r.result.Duration = tl.Duration()
	if !encode {
		r.stage = StageDone
		return nil
	}

	if err := d.encode(ctx, r, tl); err != nil {
		return err
	}
	if r.req.Archive || d.cfg.Encode.ArchiveAV1 {
		if err := d.archive(ctx, r); err != nil {
			return err
		}
	}
	if r.req.Publish {
		if err := d.publish(ctx, r); err != nil {
			return err
		}
	}
	r.stage = StageDone
	return nil
}

func (d *Driver) readConfig(ctx context.Context, r *run) (*puzzle.Document, error) {
	d.enter(ctx, r, StageReadConfig)
	if r.req.Document != nil {
		return r.req.Document, nil
	}
	inputDir := strings.TrimSpace(r.req.InputDir)
	if inputDir == "" {
		return nil, services.Wrap(services.ErrConfigFormat, StageReadConfig, "input", "input directory or document is required", nil)
	}
	return puzzle.Load(inputDir)
}

// resolveAssets builds the search path (configured asset directories, then
// the request's asset paths or input directory) and resolves every puzzle
// image up front so a missing file fails the render before any work starts.
func (d *Driver) resolveAssets(ctx context.Context, r *run, doc *puzzle.Document) ([]puzzleInput, mediaInputs, error) {
	d.enter(ctx, r, StageResolveAssets)

	local := strings.TrimSpace(r.req.AssetPaths)
	if local == "" {
		local = strings.TrimSpace(r.req.InputDir)
	}
	dirs := append(append([]string{}, d.cfg.Paths.AssetDirs...), local)
	r.search = assets.Join(dirs...)

	inputs := make([]puzzleInput, 0, len(doc.Clips))
	needCaption := false
	for _, spec := range doc.Clips {
		background, err := assets.Resolve(r.search, spec.Background)
		if err != nil {
			return nil, mediaInputs{}, err
		}
		image, err := assets.Resolve(r.search, spec.Image)
		if err != nil {
			return nil, mediaInputs{}, err
		}
		if spec.Text != "" {
			needCaption = true
		}
		inputs = append(inputs, puzzleInput{spec: spec, background: background, image: image})
	}

	if len(inputs) > 0 {
		decorations := []string{d.cfg.Assets.Frame, d.cfg.Assets.Badge, d.cfg.Assets.Sound}
		if needCaption {
			decorations = append(decorations, d.cfg.Assets.Confetti, d.cfg.Caption.Font)
		}
		for _, name := range decorations {
			if _, err := assets.Resolve(r.search, name); err != nil {
				return nil, mediaInputs{}, err
			}
		}
	}

	var media mediaInputs
	var err error
	if media.intro, err = localFile("intro", r.req.Intro); err != nil {
		return nil, mediaInputs{}, err
	}
	if media.outtro, err = localFile("outtro", r.req.Outtro); err != nil {
		return nil, mediaInputs{}, err
	}
	if media.music, err = localFile("music", r.req.Music); err != nil {
		return nil, mediaInputs{}, err
	}
	return inputs, media, nil
}

// localFile checks a file named directly on the request. Blank names are
// optional inputs left out.
func localFile(role, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", services.Wrap(services.ErrAssetNotFound, StageResolveAssets, role, "resolve path", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrAssetNotFound, StageResolveAssets, role, fmt.Sprintf("%s does not exist", path), nil)
		}
		return "", services.Wrap(services.ErrAssetNotFound, StageResolveAssets, role, "stat file", err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrAssetNotFound, StageResolveAssets, role, fmt.Sprintf("%s is a directory", path), nil)
	}
	return abs, nil
}

// buildPuzzle turns one puzzle into its clip. The splitter output lives in a
// scope that is released before returning; pages hold decoded stills, so
// nothing refers to the scope afterwards.
func (d *Driver) buildPuzzle(ctx context.Context, r *run, index int, in puzzleInput, settings page.Settings) (timeline.Clip, int, error) {
	ctx = services.WithPuzzle(ctx, index)
	spec := in.spec

	octx := d.enter(ctx, r, StageGenerateOrder)
	order, err := reveal.Generate(spec.Rows, spec.Columns, spec.Order, filepath.Base(in.image))
	if err != nil {
		return nil, 0, err
	}
	logging.WithContext(octx, d.logger).Debug("reveal order",
		logging.Any("indices", order.Indices),
		logging.Bool("explicit", order.Explicit),
		logging.Int64("seed", int64(order.Seed)),
	)

	bctx := d.enter(ctx, r, StageBuildPages)
	scope, err := staging.NewScope(d.cfg.Paths.StagingDir, r.id, fmt.Sprintf("puzzle-%d", index), d.logger)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrConfiguration, StageBuildPages, "staging", "create puzzle working directory", err)
	}
	defer scope.Release()

	if err := d.splitter.Split(bctx, in.image, spec.Rows, spec.Columns, scope.Path); err != nil {
		return nil, 0, err
	}
	placements, err := pieces.ReadPlacements(scope.Path)
	if err != nil {
		return nil, 0, err
	}
	if err := placements.Check(spec.Rows, spec.Columns); err != nil {
		return nil, 0, err
	}

	builder := page.NewBuilder(settings, assets.Prepend(scope.Path, r.search), d.probe, d.logger)
	coords := order.Coords()
	pages := make([]*timeline.Composite, 0, len(coords))
	for k, coord := range coords {
		// Each page gets its own snapshot of the revealed stack.
		revealed := make([]string, 0, k+1)
		for _, c := range coords[:k+1] {
			revealed = append(revealed, scope.Join(pieces.FileName(c)))
		}
		last := k == len(coords)-1
		req := page.Request{
			Index:      k + 1,
			Background: in.background,
			Pieces:     revealed,
			Outline:    scope.Join(pieces.OutlineFile),
			First:      k == 0,
			Last:       last,
			Placements: placements,
		}
		if last {
			req.Text = spec.Text
		}
		built, err := builder.Build(bctx, req)
		if err != nil {
			return nil, 0, err
		}
		logging.WithContext(bctx, d.logger).Debug("page ready",
			logging.Int("page", k+1),
			logging.String("piece", pieces.Name(coord)),
		)
		pages = append(pages, built)
	}

	sctx := d.enter(ctx, r, StageSequencePuzzle)
	clip, err := sequence.ConcatenatePages(fmt.Sprintf("puzzle %d", index), pages)
	if err != nil {
		return nil, 0, err
	}
	logging.WithContext(sctx, d.logger).Info("puzzle sequenced",
		logging.String(logging.FieldEventType, "puzzle_complete"),
		logging.String("image", filepath.Base(in.image)),
		logging.String("grid", fmt.Sprintf("%dx%d", spec.Rows, spec.Columns)),
		logging.Int("pages", len(pages)),
		logging.Duration("duration", clip.Duration()),
	)
	return clip, len(pages), nil
}

func (d *Driver) concatenate(ctx context.Context, r *run, clips []timeline.Clip, media mediaInputs) (*timeline.Timeline, error) {
	cctx := d.enter(ctx, r, StageConcatenate)
	var intro, outtro timeline.Clip
	if media.intro != "" {
		m, err := d.mediaClip(cctx, "intro", media.intro)
		if err != nil {
			return nil, err
		}
		intro = m
	}
	if media.outtro != "" {
		m, err := d.mediaClip(cctx, "outtro", media.outtro)
		if err != nil {
			return nil, err
		}
		outtro = m
	}
	return sequence.ConcatenateAll(intro, clips, outtro)
}

// mediaClip probes an intro or outtro; it is used unmodified at its natural
// size and length.
func (d *Driver) mediaClip(ctx context.Context, role, path string) (*timeline.Media, error) {
	info, err := d.probe.Probe(ctx, path)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, StageConcatenate, role, "probe "+filepath.Base(path), err)
	}
	if !info.HasVideo || info.Duration <= 0 || info.Width <= 0 || info.Height <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, StageConcatenate, role,
			fmt.Sprintf("%s has no usable video stream", filepath.Base(path)), nil)
	}
	m := &timeline.Media{
		Label:   role,
		Path:    path,
		Natural: timeline.Size{Width: info.Width, Height: info.Height},
		Length:  info.Duration,
	}
	if info.HasAudio {
		m.AudioChan = max(info.Channels, 1)
	}
	return m, nil
}

func (d *Driver) encode(ctx context.Context, r *run, tl *timeline.Timeline) error {
	ectx := d.enter(ctx, r, StageEncode)
	output := strings.TrimSpace(r.req.Output)
	if output == "" {
		output = DefaultOutput
	}
	if abs, err := filepath.Abs(output); err == nil {
		output = abs
	}
	scope, err := staging.NewScope(d.cfg.Paths.StagingDir, r.id, "encode", d.logger)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, StageEncode, "staging", "create encode working directory", err)
	}
	defer scope.Release()

	err = d.encoder.Encode(ectx, tl, encoding.Options{
		Output:   output,
		FPS:      r.req.FPS,
		WorkDir:  scope.Path,
		Progress: r.req.Progress,
	})
	if err != nil {
		return err
	}
	r.result.Output = output
	return nil
}

func (d *Driver) archive(ctx context.Context, r *run) error {
	actx := d.enter(ctx, r, StageArchive)
	dir := strings.TrimSpace(d.cfg.Encode.ArchiveDir)
	if dir == "" {
		dir = filepath.Dir(r.result.Output)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, StageArchive, "archive_dir", "create archive directory", err)
	}
	logger := logging.WithContext(actx, d.logger)
	sampler := logging.NewProgressSampler(10)
	path, err := d.archiver.Archive(actx, r.result.Output, dir, func(p drapto.Progress) {
		if p.Warning {
			logging.WarnWithContext(logger, "archive warning", "archive_warning",
				logging.String("message", p.Message),
				logging.String(logging.FieldImpact, "archive copy may differ from the output"),
			)
			return
		}
		if sampler.ShouldLog(p.Percent, p.Stage) {
			logger.Info("archive progress",
				logging.String("phase", p.Stage),
				logging.Float64("percent", p.Percent),
				logging.Duration("eta", p.ETA),
			)
		}
	})
	if err != nil {
		return err
	}
	r.result.Archive = path
	return nil
}

func (d *Driver) publish(ctx context.Context, r *run) error {
	pctx := d.enter(ctx, r, StagePublish)
	publisher := d.publisher
	if publisher == nil {
		p, err := publish.New(pctx, d.cfg.Publish, d.logger)
		if err != nil {
			return err
		}
		publisher = p
		d.publisher = p
	}
	artifacts := []string{r.result.Output}
	if r.result.Archive != "" {
		artifacts = append(artifacts, r.result.Archive)
	}
	for _, artifact := range artifacts {
		url, err := publisher.Publish(pctx, r.id, artifact)
		if err != nil {
			return err
		}
		r.result.URLs = append(r.result.URLs, url)
	}
	return nil
}
