package timeline

import (
	"testing"
	"time"
)

var canvas = Size{Width: 1920, Height: 1080}

func still(key string) *Still {
	return &Still{Key: key, Format: "png", Data: []byte(key), Size: Size{Width: 10, Height: 10}}
}

func page(label string, length time.Duration, layers ...Layer) *Composite {
	sounds := []Sound{{Role: "sfx", Path: "sfx.mp3", Duration: 1500 * time.Millisecond, Gain: 1, Channels: 2}}
	return NewComposite(label, canvas, length, layers, sounds)
}

func TestCompositeClipsLayersAtBoundary(t *testing.T) {
	c := page("last", 6*time.Second,
		Layer{Role: "bg", Kind: KindStill, Still: still("bg"), Duration: 6 * time.Second},
		Layer{Role: "confetti", Kind: KindAnimation, Path: "Confetti.gif", Start: 3 * time.Second, Duration: 5 * time.Second, FadeOut: 4 * time.Second},
		Layer{Role: "late", Kind: KindStill, Still: still("late"), Start: 7 * time.Second, Duration: time.Second},
	)
	plan := New(c).Plan()
	if len(plan.Layers) != 2 {
		t.Fatalf("expected late layer dropped, got %d layers", len(plan.Layers))
	}
	confetti := plan.Layers[1]
	if confetti.End() != 6*time.Second {
		t.Fatalf("confetti should be clipped at page end, ends at %s", confetti.End())
	}
	if confetti.FadeOut != 3*time.Second {
		t.Fatalf("fade should shrink with the clipped layer, got %s", confetti.FadeOut)
	}
	if !c.HasAudio() || c.Channels() != 2 {
		t.Fatalf("expected stereo page audio, got %d", c.Channels())
	}
}

func TestSequenceFlattenShiftsTimeAndPosition(t *testing.T) {
	first := page("p1", 3*time.Second, Layer{Role: "bg", Kind: KindStill, Still: still("bg"), Duration: 3 * time.Second})
	second := page("p2", 6*time.Second, Layer{Role: "bg", Kind: KindStill, Still: still("bg"), Position: Point{X: 5}, Duration: 6 * time.Second})
	intro := &Media{Label: "intro", Path: "intro.mp4", Natural: Size{Width: 1280, Height: 720}, Length: 2 * time.Second, AudioChan: 1}

	inner := NewSequence("puzzle", []Entry{{Clip: first}, {Clip: second, Start: 3 * time.Second}}, canvas, 9*time.Second, 2)
	outer := NewSequence("all", []Entry{
		{Clip: intro, Offset: Centered(canvas, intro.Natural)},
		{Clip: inner, Start: 2 * time.Second},
	}, canvas, 11*time.Second, 2)

	plan := New(outer).Plan()
	if plan.Duration != 11*time.Second || plan.Size != canvas {
		t.Fatalf("unexpected plan header %s %s", plan.Duration, plan.Size)
	}
	if len(plan.Layers) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(plan.Layers))
	}
	if got := plan.Layers[0]; got.Kind != KindVideo || got.Position != (Point{X: 320, Y: 180}) {
		t.Fatalf("intro not centred: %+v", got)
	}
	if got := plan.Layers[2]; got.Start != 5*time.Second || got.Position.X != 5 {
		t.Fatalf("second page layer misplaced: %+v", got)
	}
	if len(plan.Sounds) != 3 {
		t.Fatalf("expected intro audio and two sfx, got %d", len(plan.Sounds))
	}
	if plan.Sounds[2].Start != 5*time.Second {
		t.Fatalf("sfx of second page should start at 5s, got %s", plan.Sounds[2].Start)
	}
	if plan.Channels() != 2 {
		t.Fatalf("expected 2 channels, got %d", plan.Channels())
	}
}

func TestWithSoundtrackDoesNotMutate(t *testing.T) {
	base := New(page("p", 3*time.Second))
	mixed := base.WithSoundtrack(Sound{Role: "music", Path: "bgm.mp3", Duration: 3 * time.Second, Gain: 0.33})
	if base.Soundtrack != nil {
		t.Fatal("original timeline must not gain a soundtrack")
	}
	plan := mixed.Plan()
	if last := plan.Sounds[len(plan.Sounds)-1]; last.Role != "music" {
		t.Fatalf("expected soundtrack last, got %+v", last)
	}
	if !mixed.HasForegroundAudio() {
		t.Fatal("expected foreground audio from the page sfx")
	}
}

func TestCoalesceMergesContinuingStills(t *testing.T) {
	bg := still("bg")
	piece := still("piece")
	frame := still("frame")
	mk := func(start time.Duration, fadeIn time.Duration, newest bool) []Layer {
		layers := []Layer{
			{Role: "bg", Kind: KindStill, Still: bg, Size: canvas, Start: start, Duration: 3 * time.Second},
			{Role: "piece", Kind: KindStill, Still: piece, Start: start, Duration: 3 * time.Second, FadeIn: fadeIn},
		}
		if newest {
			layers = append(layers, Layer{Role: "new", Kind: KindStill, Still: still("new"), Start: start, Duration: 3 * time.Second, FadeIn: time.Second})
		}
		return append(layers, Layer{Role: "frame", Kind: KindStill, Still: frame, Start: start, Duration: 3 * time.Second})
	}
	var layers []Layer
	layers = append(layers, mk(0, time.Second, false)...)
	layers = append(layers, mk(3*time.Second, 0, true)...)

	out := Plan{Layers: layers}.Coalesce()
	// bg and piece continue; frame must not be extended beneath the new piece.
	if len(out.Layers) != 5 {
		t.Fatalf("expected 5 layers after coalescing, got %d: %+v", len(out.Layers), out.Layers)
	}
	if out.Layers[0].Duration != 6*time.Second || out.Layers[1].Duration != 6*time.Second {
		t.Fatalf("expected bg and piece extended to 6s: %+v", out.Layers[:2])
	}
	if out.Layers[1].FadeIn != time.Second {
		t.Fatal("merged layer keeps its original fade-in")
	}
	if out.Layers[2].Role != "frame" || out.Layers[2].Duration != 3*time.Second {
		t.Fatalf("first frame should stay separate: %+v", out.Layers[2])
	}
	if out.Layers[4].Role != "frame" || out.Layers[4].Start != 3*time.Second {
		t.Fatalf("second frame should stay above the new piece: %+v", out.Layers[4])
	}
}

func TestCoalesceRespectsFades(t *testing.T) {
	s := still("outline")
	layers := []Layer{
		{Kind: KindStill, Still: s, Duration: 3 * time.Second, FadeOut: time.Second},
		{Kind: KindStill, Still: s, Start: 3 * time.Second, Duration: 3 * time.Second},
		{Kind: KindStill, Still: s, Start: 6 * time.Second, Duration: 3 * time.Second, FadeIn: time.Second},
	}
	out := Plan{Layers: layers}.Coalesce()
	if len(out.Layers) != 3 {
		t.Fatalf("fades must block merging, got %d layers", len(out.Layers))
	}
}

func TestPlanStillsAreUnique(t *testing.T) {
	a, b := still("a"), still("b")
	p := Plan{Layers: []Layer{
		{Kind: KindStill, Still: a},
		{Kind: KindAnimation, Path: "x.gif"},
		{Kind: KindStill, Still: b},
		{Kind: KindStill, Still: a},
	}}
	stills := p.Stills()
	if len(stills) != 2 || stills[0] != a || stills[1] != b {
		t.Fatalf("unexpected stills %v", stills)
	}
}

func TestSizeHelpers(t *testing.T) {
	if got := (Size{1280, 720}).Union(Size{1920, 600}); got != (Size{1920, 720}) {
		t.Fatalf("Union = %v", got)
	}
	if got := Centered(Size{1920, 1080}, Size{1921, 1080}); got != (Point{X: 0, Y: 0}) {
		// (1920-1921)/2 truncates toward zero in Go.
		t.Fatalf("Centered = %v", got)
	}
	if !(Size{0, 5}).Empty() {
		t.Fatal("zero width should be empty")
	}
}
