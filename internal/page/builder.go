// Package page builds the composited segment for one reveal step.
//
// Layers, bottom to top: background scaled to the canvas, every revealed piece
// at the puzzle anchor plus its placement (only the newest fades in), the
// outline held for the base duration (fading out on the terminal page), the
// frame sized to the outline, the looping badge, and on a terminal page with
// text the caption and confetti from the base duration onward. Every page
// carries the trimmed sound effect from its start.
package page

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"jigsawreveal/internal/assets"
	"jigsawreveal/internal/caption"
	"jigsawreveal/internal/logging"
	"jigsawreveal/internal/media/ffprobe"
	"jigsawreveal/internal/pieces"
	"jigsawreveal/internal/services"
	"jigsawreveal/internal/timeline"
)

// Prober reports the natural properties of a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Info, error)
}

// Request describes one page. Pieces lists the revealed piece files, oldest
// first; the last entry is the piece this page reveals. Background and
// Outline are file paths.
type Request struct {
	Index      int
	Background string
	Pieces     []string
	Outline    string
	First      bool
	Last       bool
	Text       string
	Placements pieces.Placements
}

// Builder builds pages for one puzzle. It caches decoded stills and probe
// results, so one Builder should not be shared between puzzles whose working
// directories differ. Not safe for concurrent use.
type Builder struct {
	settings Settings
	search   string
	probe    Prober
	logger   *slog.Logger

	stills   map[string]*timeline.Still
	infos    map[string]ffprobe.Info
	captions *caption.Renderer
}

// NewBuilder returns a builder that resolves decoration assets on search, a
// comma-delimited directory list.
func NewBuilder(settings Settings, search string, probe Prober, logger *slog.Logger) *Builder {
	return &Builder{
		settings: settings,
		search:   search,
		probe:    probe,
		logger:   logging.NewComponentLogger(logger, "page"),
		stills:   make(map[string]*timeline.Still),
		infos:    make(map[string]ffprobe.Info),
	}
}

// Build assembles the page described by req.
func (b *Builder) Build(ctx context.Context, req Request) (*timeline.Composite, error) {
	if len(req.Pieces) == 0 {
		return nil, services.Wrap(services.ErrEmptyPieceStack, "build_pages", fmt.Sprintf("page %d", req.Index), "no revealed pieces", nil)
	}
	s := b.settings
	total := s.Duration(req.Last)

	background, err := b.still(req.Background)
	if err != nil {
		return nil, err
	}
	outline, err := b.still(req.Outline)
	if err != nil {
		return nil, err
	}

	layers := make([]timeline.Layer, 0, len(req.Pieces)+7)
	layers = append(layers, timeline.Layer{
		Role:     "background",
		Kind:     timeline.KindStill,
		Still:    background,
		Size:     s.Canvas,
		Duration: total,
	})

	for i, path := range req.Pieces {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		offset, ok := req.Placements[name]
		if !ok {
			return nil, services.Wrap(services.ErrMissingPlacement, "build_pages", name, "no placement in piece metadata", nil)
		}
		piece, err := b.still(path)
		if err != nil {
			return nil, err
		}
		layer := timeline.Layer{
			Role:     name,
			Kind:     timeline.KindStill,
			Still:    piece,
			Position: s.PuzzleAnchor.Add(offset),
			Size:     piece.Size,
			Duration: total,
		}
		if i == len(req.Pieces)-1 {
			layer.FadeIn = s.Fade
		}
		layers = append(layers, layer)
	}

	outlineLayer := timeline.Layer{
		Role:     "outline",
		Kind:     timeline.KindStill,
		Still:    outline,
		Position: s.PuzzleAnchor,
		Size:     outline.Size,
		Duration: s.Page,
	}
	if req.Last {
		outlineLayer.FadeOut = s.Fade
	}
	layers = append(layers, outlineLayer)

	framePath, err := assets.Resolve(b.search, s.FrameAsset)
	if err != nil {
		return nil, err
	}
	frame, err := b.still(framePath)
	if err != nil {
		return nil, err
	}
	layers = append(layers, timeline.Layer{
		Role:     "frame",
		Kind:     timeline.KindStill,
		Still:    frame,
		Position: s.PuzzleAnchor,
		Size:     outline.Size,
		Duration: total,
	})

	badgePath, err := assets.Resolve(b.search, s.BadgeAsset)
	if err != nil {
		return nil, err
	}
	layers = append(layers, timeline.Layer{
		Role:     "badge",
		Kind:     timeline.KindAnimation,
		Path:     badgePath,
		Position: s.BadgePosition,
		Size:     s.BadgeSize,
		Duration: total,
		Loop:     true,
	})

	if req.Last && req.Text != "" {
		celebration, err := b.celebration(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		layers = append(layers, celebration...)
	}

	sound, err := b.sound(ctx)
	if err != nil {
		return nil, err
	}

	label := fmt.Sprintf("page %d", req.Index)
	b.logger.Debug("page built",
		logging.String("page", label),
		logging.Int("pieces", len(req.Pieces)),
		logging.Duration("duration", total),
		logging.Bool("first", req.First),
		logging.Bool("last", req.Last),
	)
	return timeline.NewComposite(label, s.Canvas, total, layers, []timeline.Sound{sound}), nil
}

// celebration returns the caption and confetti layers shown during the
// terminal hold. Confetti runs for its natural length; the composite clips it
// at the page end.
func (b *Builder) celebration(ctx context.Context, text string) ([]timeline.Layer, error) {
	s := b.settings
	if b.captions == nil {
		fontPath, err := assets.Resolve(b.search, s.FontAsset)
		if err != nil {
			return nil, err
		}
		renderer, err := caption.New(caption.Style{
			FontPath:    fontPath,
			Size:        s.CaptionSize,
			Fill:        s.CaptionFill,
			Stroke:      s.CaptionStroke,
			StrokeWidth: s.CaptionOutline,
			Margin:      s.CaptionMargin,
		})
		if err != nil {
			return nil, err
		}
		b.captions = renderer
	}
	captionStill, err := b.captions.Render(text)
	if err != nil {
		return nil, err
	}

	confettiPath, err := assets.Resolve(b.search, s.ConfettiAsset)
	if err != nil {
		return nil, err
	}
	info, err := b.info(ctx, confettiPath)
	if err != nil {
		return nil, err
	}
	confettiSize := timeline.Size{Width: info.Width, Height: info.Height}

	return []timeline.Layer{
		{
			Role:     "caption",
			Kind:     timeline.KindStill,
			Still:    captionStill,
			Position: timeline.Point{X: (s.Canvas.Width - captionStill.Size.Width) / 2, Y: s.CaptionY},
			Size:     captionStill.Size,
			Start:    s.Page,
			Duration: s.FinalHold,
			FadeIn:   s.Fade,
		},
		{
			Role:     "confetti",
			Kind:     timeline.KindAnimation,
			Path:     confettiPath,
			Position: timeline.Centered(s.Canvas, confettiSize),
			Size:     confettiSize,
			Start:    s.Page,
			Duration: info.Duration,
		},
	}, nil
}

func (b *Builder) sound(ctx context.Context) (timeline.Sound, error) {
	path, err := assets.Resolve(b.search, b.settings.SoundAsset)
	if err != nil {
		return timeline.Sound{}, err
	}
	info, err := b.info(ctx, path)
	if err != nil {
		return timeline.Sound{}, err
	}
	length := b.settings.Sound
	if info.Duration > 0 && info.Duration < length {
		length = info.Duration
	}
	return timeline.Sound{
		Role:     "sfx",
		Path:     path,
		Duration: length,
		Gain:     1,
		Channels: max(info.Channels, 1),
	}, nil
}

func (b *Builder) still(path string) (*timeline.Still, error) {
	if cached, ok := b.stills[path]; ok {
		return cached, nil
	}
	still, err := LoadStill(path)
	if err != nil {
		return nil, services.Wrap(services.ErrAssetNotFound, "build_pages", filepath.Base(path), "load image", err)
	}
	b.stills[path] = still
	return still, nil
}

func (b *Builder) info(ctx context.Context, path string) (ffprobe.Info, error) {
	if cached, ok := b.infos[path]; ok {
		return cached, nil
	}
	info, err := b.probe.Probe(ctx, path)
	if err != nil {
		return ffprobe.Info{}, err
	}
	b.infos[path] = info
	return info, nil
}
