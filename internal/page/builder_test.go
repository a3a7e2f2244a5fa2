package page

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/image/font/gofont/goregular"

	"jigsawreveal/internal/config"
	"jigsawreveal/internal/media/ffprobe"
	"jigsawreveal/internal/pieces"
	"jigsawreveal/internal/services"
	"jigsawreveal/internal/timeline"
)

type fakeProber map[string]ffprobe.Info

func (f fakeProber) Probe(_ context.Context, path string) (ffprobe.Info, error) {
	info, ok := f[filepath.Base(path)]
	if !ok {
		return ffprobe.Info{}, services.Wrap(services.ErrExternalTool, "probe", path, "unknown", nil)
	}
	return info, nil
}

type fixture struct {
	assetDir   string
	workDir    string
	background string
	outline    string
	pieces     []string
	placements pieces.Placements
	settings   Settings
	prober     fakeProber
}

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatal(err)
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	settings, err := SettingsFromConfig(&cfg)
	if err != nil {
		t.Fatalf("SettingsFromConfig: %v", err)
	}
	f := &fixture{
		assetDir:   t.TempDir(),
		workDir:    t.TempDir(),
		settings:   settings,
		placements: pieces.Placements{},
		prober: fakeProber{
			"Confetti.gif":                      {Duration: 5 * time.Second, Width: 800, Height: 600, HasVideo: true},
			"guitar-string-fade-out-332451.mp3": {Duration: 4 * time.Second, HasAudio: true, Channels: 2},
		},
	}
	f.background = filepath.Join(f.assetDir, "bg.png")
	writePNG(t, f.background, 64, 36, color.RGBA{B: 255, A: 255})
	writePNG(t, filepath.Join(f.assetDir, "Frame.png"), 16, 16, color.White)
	for _, name := range []string{"Subscribe2.gif", "Confetti.gif", "guitar-string-fade-out-332451.mp3"} {
		if err := os.WriteFile(filepath.Join(f.assetDir, name), []byte("media"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(f.assetDir, "Super_Adorable.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}

	f.outline = filepath.Join(f.workDir, pieces.OutlineFile)
	writePNG(t, f.outline, 20, 10, color.Black)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			name := fmt.Sprintf("piece_%d_%d", r, c)
			path := filepath.Join(f.workDir, name+".png")
			writePNG(t, path, 10, 5, color.RGBA{R: uint8(40 * (r*2 + c)), A: 255})
			f.pieces = append(f.pieces, path)
			f.placements[name] = timeline.Point{X: c * 10, Y: r * 5}
		}
	}
	return f
}

func (f *fixture) builder() *Builder {
	return NewBuilder(f.settings, f.workDir+","+f.assetDir, f.prober, nil)
}

func (f *fixture) request(k int, text string) Request {
	return Request{
		Index:      k,
		Background: f.background,
		Pieces:     append([]string(nil), f.pieces[:k]...),
		Outline:    f.outline,
		First:      k == 1,
		Last:       k == len(f.pieces),
		Text:       text,
		Placements: f.placements,
	}
}

func TestBuildScenarioFourPagesWithText(t *testing.T) {
	f := newFixture(t)
	b := f.builder()
	ctx := context.Background()

	for k := 1; k <= 4; k++ {
		page, err := b.Build(ctx, f.request(k, "Hello"))
		if err != nil {
			t.Fatalf("Build page %d: %v", k, err)
		}
		want := 3 * time.Second
		if k == 4 {
			want = 6 * time.Second
		}
		if page.Duration() != want {
			t.Fatalf("page %d duration = %s, want %s", k, page.Duration(), want)
		}
		captions := page.LayersByRole("caption")
		if k < 4 && len(captions) != 0 {
			t.Fatalf("page %d should not carry a caption", k)
		}
		if k == 4 {
			if len(captions) != 1 {
				t.Fatalf("terminal page should carry one caption, got %d", len(captions))
			}
			if captions[0].Start != 3*time.Second || captions[0].Duration != 3*time.Second || captions[0].FadeIn != time.Second {
				t.Fatalf("unexpected caption timing %+v", captions[0])
			}
			if captions[0].Position.Y != 714 {
				t.Fatalf("caption should sit at y=714, got %d", captions[0].Position.Y)
			}
			if got := captions[0].Position.X*2 + captions[0].Size.Width; got != 1920 && got != 1919 {
				t.Fatalf("caption not centred: x=%d w=%d", captions[0].Position.X, captions[0].Size.Width)
			}
		}
		if len(page.Sounds) != 1 || page.Sounds[0].Duration != 1500*time.Millisecond || page.Sounds[0].Start != 0 {
			t.Fatalf("page %d should carry a 1.5s sound effect from its start: %+v", k, page.Sounds)
		}
	}
}

func TestBuildLayerStackAndFades(t *testing.T) {
	f := newFixture(t)
	page, err := f.builder().Build(context.Background(), f.request(3, ""))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	roles := make([]string, 0, len(page.Layers))
	for _, l := range page.Layers {
		roles = append(roles, l.Role)
	}
	want := []string{"background", "piece_0_0", "piece_0_1", "piece_1_0", "outline", "frame", "badge"}
	if fmt.Sprint(roles) != fmt.Sprint(want) {
		t.Fatalf("layer order = %v, want %v", roles, want)
	}

	bg := page.Layers[0]
	if bg.Size != (timeline.Size{Width: 1920, Height: 1080}) || bg.Duration != 3*time.Second {
		t.Fatalf("background should fill the canvas for the page: %+v", bg)
	}
	for i, l := range page.Layers[1:4] {
		wantFade := time.Duration(0)
		if i == 2 {
			wantFade = time.Second
		}
		if l.FadeIn != wantFade {
			t.Fatalf("%s fade-in = %s, want %s", l.Role, l.FadeIn, wantFade)
		}
	}
	if got := page.Layers[3].Position; got != (timeline.Point{X: 231, Y: 167}) {
		t.Fatalf("piece_1_0 should sit at anchor+placement, got %+v", got)
	}
	outline := page.Layers[4]
	if outline.FadeOut != 0 || outline.Duration != 3*time.Second {
		t.Fatalf("non-terminal outline should not fade: %+v", outline)
	}
	frame := page.Layers[5]
	if frame.Size != (timeline.Size{Width: 20, Height: 10}) || frame.Position != (timeline.Point{X: 231, Y: 162}) {
		t.Fatalf("frame should match the outline: %+v", frame)
	}
	badge := page.Layers[6]
	if badge.Kind != timeline.KindAnimation || !badge.Loop || badge.Size != (timeline.Size{Width: 379, Height: 147}) || badge.Position != (timeline.Point{X: 1498, Y: 52}) {
		t.Fatalf("unexpected badge %+v", badge)
	}
}

func TestBuildTerminalPageWithoutText(t *testing.T) {
	f := newFixture(t)
	page, err := f.builder().Build(context.Background(), f.request(4, ""))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if page.Duration() != 6*time.Second {
		t.Fatalf("terminal page duration = %s", page.Duration())
	}
	if len(page.LayersByRole("caption")) != 0 || len(page.LayersByRole("confetti")) != 0 {
		t.Fatal("empty text must not add caption or confetti")
	}
	outline := page.LayersByRole("outline")[0]
	if outline.Duration != 3*time.Second || outline.FadeOut != time.Second {
		t.Fatalf("terminal outline should fade out over the last second of D: %+v", outline)
	}
}

func TestBuildTerminalPageWithWhitespaceText(t *testing.T) {
	f := newFixture(t)
	page, err := f.builder().Build(context.Background(), f.request(4, " "))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(page.LayersByRole("caption")) != 1 || len(page.LayersByRole("confetti")) != 1 {
		t.Fatal("whitespace text is still text and should add caption and confetti")
	}
}

func TestConfettiIsClippedAtPageEnd(t *testing.T) {
	f := newFixture(t)
	page, err := f.builder().Build(context.Background(), f.request(4, "Done"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	confetti := page.LayersByRole("confetti")
	if len(confetti) != 1 {
		t.Fatalf("expected confetti layer")
	}
	if confetti[0].Position != (timeline.Point{X: 560, Y: 240}) || confetti[0].Duration != 5*time.Second {
		t.Fatalf("confetti should be centred with its natural length: %+v", confetti[0])
	}
	plan := timeline.New(page).Plan()
	for _, l := range plan.Layers {
		if l.Role == "confetti" && l.End() != 6*time.Second {
			t.Fatalf("confetti should end with the page, ends at %s", l.End())
		}
	}
}

func TestBuildShortSoundKeepsNaturalLength(t *testing.T) {
	f := newFixture(t)
	f.prober["guitar-string-fade-out-332451.mp3"] = ffprobe.Info{Duration: time.Second, HasAudio: true, Channels: 1}
	page, err := f.builder().Build(context.Background(), f.request(1, ""))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if page.Sounds[0].Duration != time.Second || page.Sounds[0].Channels != 1 {
		t.Fatalf("unexpected sound %+v", page.Sounds[0])
	}
}

func TestBuildErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty := f.request(0, "")
	if _, err := f.builder().Build(ctx, empty); !errors.Is(err, services.ErrEmptyPieceStack) {
		t.Fatalf("expected ErrEmptyPieceStack, got %v", err)
	}

	missing := f.request(2, "")
	missing.Placements = pieces.Placements{"piece_0_0": {}}
	if _, err := f.builder().Build(ctx, missing); !errors.Is(err, services.ErrMissingPlacement) {
		t.Fatalf("expected ErrMissingPlacement, got %v", err)
	}

	if err := os.Remove(filepath.Join(f.assetDir, "Frame.png")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.builder().Build(ctx, f.request(1, "")); !errors.Is(err, services.ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestBuildDoesNotRetainRequestSlice(t *testing.T) {
	f := newFixture(t)
	req := f.request(2, "")
	page, err := f.builder().Build(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	req.Pieces[0] = "mutated.png"
	if page.Layers[1].Role != "piece_0_0" {
		t.Fatal("page must not depend on the caller's slice after Build")
	}
}

func TestPageDurations(t *testing.T) {
	f := newFixture(t)
	got := f.settings.PageDurations(3)
	want := []time.Duration{3 * time.Second, 3 * time.Second, 6 * time.Second}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("PageDurations = %v", got)
	}
}

func TestLoadStillReadsSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.png")
	writePNG(t, path, 7, 3, color.White)
	still, err := LoadStill(path)
	if err != nil {
		t.Fatal(err)
	}
	if still.Size != (timeline.Size{Width: 7, Height: 3}) || still.Format != "png" || still.Ext() != ".png" {
		t.Fatalf("unexpected still %+v", still)
	}
}
