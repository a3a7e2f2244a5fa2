package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jigsawreveal/internal/config"
	"jigsawreveal/internal/encoding"
	"jigsawreveal/internal/history"
	"jigsawreveal/internal/media/ffprobe"
	"jigsawreveal/internal/pieces"
	"jigsawreveal/internal/puzzle"
	"jigsawreveal/internal/services"
	"jigsawreveal/internal/services/drapto"
	"jigsawreveal/internal/staging"
	"jigsawreveal/internal/testsupport"
	"jigsawreveal/internal/timeline"
)

type fakeProber map[string]ffprobe.Info

func (f fakeProber) Probe(_ context.Context, path string) (ffprobe.Info, error) {
	info, ok := f[filepath.Base(path)]
	if !ok {
		return ffprobe.Info{}, services.Wrap(services.ErrExternalTool, "probe", path, "unknown media", nil)
	}
	return info, nil
}

type fakeEncoder struct {
	calls int
	tl    *timeline.Timeline
	opts  encoding.Options
	err   error
}

func (f *fakeEncoder) Encode(_ context.Context, tl *timeline.Timeline, opts encoding.Options) error {
	f.calls++
	f.tl, f.opts = tl, opts
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(opts.Output, []byte("video"), 0o644)
}

type fakeArchiver struct{ input string }

func (f *fakeArchiver) Archive(_ context.Context, input, dir string, progress func(drapto.Progress)) (string, error) {
	f.input = input
	if progress != nil {
		progress(drapto.Progress{Stage: "encoding", Percent: 50})
		progress(drapto.Progress{Stage: "encoding", Percent: 100})
	}
	return drapto.OutputPath(input, dir), nil
}

type fakePublisher struct{ artifacts []string }

func (f *fakePublisher) Publish(_ context.Context, runID, artifact string) (string, error) {
	f.artifacts = append(f.artifacts, artifact)
	return fmt.Sprintf("s3://bucket/%s/%s", runID, filepath.Base(artifact)), nil
}

// brokenMetadataSplitter splits normally, then drops one placement.
type brokenMetadataSplitter struct{ grid pieces.Grid }

func (s brokenMetadataSplitter) Split(ctx context.Context, image string, rows, columns int, outDir string) error {
	if err := s.grid.Split(ctx, image, rows, columns, outDir); err != nil {
		return err
	}
	placements, err := pieces.ReadPlacements(outDir)
	if err != nil {
		return err
	}
	delete(placements, "piece_0_1")
	return pieces.WritePlacements(outDir, placements)
}

type failingSplitter struct{}

func (failingSplitter) Split(context.Context, string, int, int, string) error {
	return services.Wrap(services.ErrExternalTool, "build_pages", "split", "splitter crashed", nil)
}

type harness struct {
	cfg    *config.Config
	input  string
	out    string
	prober fakeProber
	enc    *fakeEncoder
}

func newHarness(t *testing.T, doc puzzle.Document) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Layout.PuzzleWidth = 40
	cfg.Layout.PuzzleHeight = 30
	testsupport.WriteAssets(t, cfg)
	base := testsupport.BaseDir(cfg)
	h := &harness{
		cfg:   cfg,
		input: filepath.Join(base, "input"),
		out:   filepath.Join(base, "out.mp4"),
		prober: fakeProber{
			cfg.Assets.Confetti: {Duration: 5 * time.Second, Width: 800, Height: 600, HasVideo: true},
			cfg.Assets.Sound:    {Duration: 4 * time.Second, HasAudio: true, Channels: 2},
			"intro.mp4":         {Duration: 2 * time.Second, Width: 1280, Height: 720, HasVideo: true, HasAudio: true, Channels: 2},
			"outtro.mp4":        {Duration: 2 * time.Second, Width: 1920, Height: 1080, HasVideo: true},
			"music.mp3":         {Duration: 40 * time.Second, HasAudio: true, Channels: 2},
		},
		enc: &fakeEncoder{},
	}
	testsupport.WritePuzzleInput(t, h.input, doc)
	return h
}

func (h *harness) driver(opts ...Option) *Driver {
	all := append([]Option{WithProber(h.prober), WithEncoder(h.enc)}, opts...)
	return New(h.cfg, nil, all...)
}

func onePuzzle(text string, order []int) puzzle.Document {
	return puzzle.Document{Clips: []puzzle.Spec{{
		Background: "bg.png",
		Image:      "cat.png",
		Rows:       2,
		Columns:    2,
		Text:       text,
		Order:      order,
	}}}
}

func assertNoScopes(t *testing.T, cfg *config.Config) {
	t.Helper()
	dirs, err := staging.ListDirectories(cfg.Paths.StagingDir)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 0 {
		t.Fatalf("expected staging scopes to be released, found %d", len(dirs))
	}
}

func firstAppearance(plan timeline.Plan) map[string]time.Duration {
	first := make(map[string]time.Duration)
	for _, l := range plan.Layers {
		if !strings.HasPrefix(l.Role, "piece_") {
			continue
		}
		if at, ok := first[l.Role]; !ok || l.Start < at {
			first[l.Role] = l.Start
		}
	}
	return first
}

func TestRenderSinglePuzzleWithText(t *testing.T) {
	h := newHarness(t, onePuzzle("Hello", nil))
	store := testsupport.MustOpenHistory(t, h.cfg)

	res, err := h.driver(WithHistory(store)).Render(context.Background(), Request{
		InputDir: h.input,
		FPS:      24,
		Output:   h.out,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Puzzles != 1 || res.Pages != 4 {
		t.Fatalf("puzzles=%d pages=%d", res.Puzzles, res.Pages)
	}
	if res.Duration != 15*time.Second {
		t.Fatalf("duration = %v, want 15s", res.Duration)
	}
	if h.enc.calls != 1 || h.enc.opts.FPS != 24 || h.enc.opts.Output != h.out {
		t.Fatalf("unexpected encode call: %+v", h.enc.opts)
	}
	if _, err := os.Stat(h.out); err != nil {
		t.Fatalf("output missing: %v", err)
	}

	plan := res.Timeline.Plan()
	if plan.Size != (timeline.Size{Width: 1920, Height: 1080}) {
		t.Fatalf("size = %v", plan.Size)
	}
	sfx := 0
	for _, s := range plan.Sounds {
		if s.Role == "sfx" {
			sfx++
		}
	}
	if sfx != 4 {
		t.Fatalf("expected a sound effect on every page, got %d", sfx)
	}
	var captions []timeline.Layer
	for _, l := range plan.Layers {
		if l.Role == "caption" {
			captions = append(captions, l)
		}
	}
	if len(captions) != 1 || captions[0].Start != 12*time.Second || captions[0].Duration != 3*time.Second {
		t.Fatalf("unexpected caption layers: %+v", captions)
	}
	assertNoScopes(t, h.cfg)

	run, err := store.Get(context.Background(), res.RunID)
	if err != nil {
		t.Fatalf("history Get: %v", err)
	}
	if run.Status != history.StatusSucceeded || run.Stage != StageDone || run.Pages != 4 || run.OutputPath != h.out {
		t.Fatalf("unexpected history row: %+v", run)
	}
}

func TestRenderExplicitOrder(t *testing.T) {
	h := newHarness(t, onePuzzle("", []int{3, 2, 1, 0}))

	res, err := h.driver().Render(context.Background(), Request{InputDir: h.input, Output: h.out})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	first := firstAppearance(res.Timeline.Plan())
	want := map[string]time.Duration{
		"piece_1_1": 0,
		"piece_1_0": 3 * time.Second,
		"piece_0_1": 6 * time.Second,
		"piece_0_0": 9 * time.Second,
	}
	for role, at := range want {
		if first[role] != at {
			t.Fatalf("%s first shown at %v, want %v", role, first[role], at)
		}
	}
	for _, l := range res.Timeline.Plan().Layers {
		if l.Role == "caption" || l.Role == "confetti" {
			t.Fatalf("unexpected %s layer without text", l.Role)
		}
	}
	if res.Duration != 15*time.Second {
		t.Fatalf("duration = %v", res.Duration)
	}
}

func TestRenderSeededOrderIsDeterministic(t *testing.T) {
	h := newHarness(t, onePuzzle("", nil))
	d := h.driver()
	a, err := d.Plan(context.Background(), Request{InputDir: h.input})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	b, err := d.Plan(context.Background(), Request{InputDir: h.input})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	fa, fb := firstAppearance(a.Timeline.Plan()), firstAppearance(b.Timeline.Plan())
	if len(fa) != 4 {
		t.Fatalf("expected 4 pieces, got %v", fa)
	}
	for role, at := range fa {
		if fb[role] != at {
			t.Fatalf("order differs for %s: %v vs %v", role, at, fb[role])
		}
	}
}

func TestRenderNoClips(t *testing.T) {
	h := newHarness(t, puzzle.Document{})

	res, err := h.driver().Render(context.Background(), Request{InputDir: h.input, Output: h.out})
	if !errors.Is(err, services.ErrNoClips) {
		t.Fatalf("expected ErrNoClips, got %v", err)
	}
	if services.Kind(err) != "no_clips" {
		t.Fatalf("kind = %q", services.Kind(err))
	}
	if h.enc.calls != 0 {
		t.Fatal("encoder should not run")
	}
	if _, statErr := os.Stat(h.out); !os.IsNotExist(statErr) {
		t.Fatalf("no output expected, stat err = %v", statErr)
	}
	if res.RunID == "" {
		t.Fatal("run id should be reported on failure")
	}
}

func TestRenderIntroOuttroAndMusic(t *testing.T) {
	h := newHarness(t, onePuzzle("Done", nil))
	intro := filepath.Join(h.input, "intro.mp4")
	outtro := filepath.Join(h.input, "outtro.mp4")
	music := filepath.Join(h.input, "music.mp3")
	for _, path := range []string{intro, outtro, music} {
		testsupport.WriteFile(t, path, 8)
	}

	res, err := h.driver().Render(context.Background(), Request{
		InputDir: h.input,
		Intro:    intro,
		Outtro:   outtro,
		Music:    music,
		Output:   h.out,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Duration != 19*time.Second {
		t.Fatalf("duration = %v, want 19s", res.Duration)
	}
	track := res.Timeline.Soundtrack
	if track == nil || track.Duration != 19*time.Second || !track.Loop || track.FadeOut != 2*time.Second {
		t.Fatalf("unexpected soundtrack: %+v", track)
	}
	plan := res.Timeline.Plan()
	var introLayer timeline.Layer
	for _, l := range plan.Layers {
		if l.Role == "intro" {
			introLayer = l
		}
	}
	if introLayer.Position != (timeline.Point{X: 320, Y: 180}) || introLayer.Start != 0 {
		t.Fatalf("intro should be centred at the start, got %+v", introLayer)
	}
	if first := firstAppearance(plan); len(first) != 4 {
		t.Fatalf("expected 4 pieces, got %v", first)
	}
	for _, l := range plan.Layers {
		if l.Role == "background" && l.Start < 2*time.Second {
			t.Fatalf("puzzle should start after the intro, background at %v", l.Start)
		}
	}
}

func TestRenderMissingImageRecordsFailure(t *testing.T) {
	h := newHarness(t, onePuzzle("", nil))
	if err := os.Remove(filepath.Join(h.input, "cat.png")); err != nil {
		t.Fatal(err)
	}
	store := testsupport.MustOpenHistory(t, h.cfg)

	res, err := h.driver(WithHistory(store)).Render(context.Background(), Request{InputDir: h.input, Output: h.out})
	if !errors.Is(err, services.ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
	run, getErr := store.Get(context.Background(), res.RunID)
	if getErr != nil {
		t.Fatalf("history Get: %v", getErr)
	}
	if run.Status != history.StatusFailed || run.ErrorKind != "asset_not_found" || run.Stage != StageResolveAssets {
		t.Fatalf("unexpected history row: %+v", run)
	}
}

func TestRenderMissingIntro(t *testing.T) {
	h := newHarness(t, onePuzzle("", nil))
	_, err := h.driver().Render(context.Background(), Request{
		InputDir: h.input,
		Intro:    filepath.Join(h.input, "nope.mp4"),
		Output:   h.out,
	})
	if !errors.Is(err, services.ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestRenderMissingPlacementReleasesScope(t *testing.T) {
	h := newHarness(t, onePuzzle("", nil))
	splitter := brokenMetadataSplitter{grid: pieces.NewGrid(40, 30)}

	_, err := h.driver(WithSplitter(splitter)).Render(context.Background(), Request{InputDir: h.input, Output: h.out})
	if !errors.Is(err, services.ErrMissingPlacement) {
		t.Fatalf("expected ErrMissingPlacement, got %v", err)
	}
	assertNoScopes(t, h.cfg)
}

func TestRenderSplitterFailureKeepsKind(t *testing.T) {
	h := newHarness(t, onePuzzle("", nil))

	_, err := h.driver(WithSplitter(failingSplitter{})).Render(context.Background(), Request{InputDir: h.input, Output: h.out})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if h.enc.calls != 0 {
		t.Fatal("encoder should not run after a failed puzzle")
	}
	assertNoScopes(t, h.cfg)
}

func TestRenderEncodeFailure(t *testing.T) {
	h := newHarness(t, onePuzzle("", nil))
	h.enc.err = services.Wrap(services.ErrEncode, "encode", "ffmpeg", "exit status 1", nil)

	_, err := h.driver().Render(context.Background(), Request{InputDir: h.input, Output: h.out})
	if !errors.Is(err, services.ErrEncode) {
		t.Fatalf("expected ErrEncode, got %v", err)
	}
	assertNoScopes(t, h.cfg)
}

func TestPlanDoesNotEncodeOrRecord(t *testing.T) {
	h := newHarness(t, onePuzzle("Hi", nil))
	store := testsupport.MustOpenHistory(t, h.cfg)

	res, err := h.driver(WithHistory(store)).Plan(context.Background(), Request{InputDir: h.input})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if h.enc.calls != 0 || res.Output != "" {
		t.Fatalf("plan should not encode: calls=%d output=%q", h.enc.calls, res.Output)
	}
	if res.Timeline == nil || res.Duration != 15*time.Second {
		t.Fatalf("unexpected plan result: %+v", res)
	}
	runs, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("plans are not recorded, found %d runs", len(runs))
	}
}

func TestRenderPreloadedDocumentAndAssetPath(t *testing.T) {
	h := newHarness(t, onePuzzle("", nil))
	doc := onePuzzle("", nil)

	res, err := h.driver().Render(context.Background(), Request{
		Document:   &doc,
		AssetPaths: h.input,
		Output:     h.out,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Pages != 4 {
		t.Fatalf("pages = %d", res.Pages)
	}
}

func TestRenderArchiveAndPublish(t *testing.T) {
	h := newHarness(t, onePuzzle("", nil))
	archiver := &fakeArchiver{}
	publisher := &fakePublisher{}

	res, err := h.driver(WithArchiver(archiver), WithPublisher(publisher)).Render(context.Background(), Request{
		InputDir: h.input,
		Output:   h.out,
		Archive:  true,
		Publish:  true,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if archiver.input != h.out {
		t.Fatalf("archived %q, want %q", archiver.input, h.out)
	}
	wantArchive := filepath.Join(h.cfg.Encode.ArchiveDir, "out.mkv")
	if res.Archive != wantArchive {
		t.Fatalf("archive = %q, want %q", res.Archive, wantArchive)
	}
	if len(publisher.artifacts) != 2 || len(res.URLs) != 2 {
		t.Fatalf("expected output and archive uploads, got %v", publisher.artifacts)
	}
	if !strings.HasPrefix(res.URLs[0], "s3://bucket/"+res.RunID+"/") {
		t.Fatalf("unexpected url %q", res.URLs[0])
	}
}

func TestRenderFailsWhenStagingLocked(t *testing.T) {
	h := newHarness(t, onePuzzle("", nil))
	lock, err := staging.AcquireLock(h.cfg.Paths.StagingDir)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer lock.Release()

	_, err = h.driver().Render(context.Background(), Request{InputDir: h.input, Output: h.out})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if h.enc.calls != 0 {
		t.Fatal("encoder should not run")
	}
}

func TestRenderThroughFFmpegRunner(t *testing.T) {
	h := newHarness(t, onePuzzle("", nil))
	var args []string
	restore := encoding.SetCommandRunnerForTests(func(_ context.Context, _ string, a []string, stdout io.Writer) error {
		args = a
		if _, err := io.WriteString(stdout, "frame=180\nprogress=continue\nframe=360\nprogress=end\n"); err != nil {
			return err
		}
		return os.WriteFile(h.out, []byte("video"), 0o644)
	})
	defer restore()

	var last [2]int64
	d := New(h.cfg, nil, WithProber(h.prober))
	res, err := d.Render(context.Background(), Request{
		InputDir: h.input,
		Output:   h.out,
		Progress: func(done, total int64) { last = [2]int64{done, total} },
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Output != h.out {
		t.Fatalf("output = %q", res.Output)
	}
	if last != [2]int64{360, 360} {
		t.Fatalf("last progress = %v", last)
	}
	if !strings.Contains(strings.Join(args, " "), "libx264") {
		t.Fatalf("expected libx264 in ffmpeg args: %v", args)
	}
	assertNoScopes(t, h.cfg)
}
