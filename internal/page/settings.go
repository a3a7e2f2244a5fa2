package page

import (
	"fmt"
	"image/color"
	"time"

	"jigsawreveal/internal/caption"
	"jigsawreveal/internal/config"
	"jigsawreveal/internal/timeline"
)

// Settings holds every geometry, timing and asset choice a page depends on.
type Settings struct {
	Canvas timeline.Size

	// Page is the base duration D; FinalHold is the extra terminal time E.
	Page      time.Duration
	FinalHold time.Duration
	Fade      time.Duration
	Sound     time.Duration

	PuzzleAnchor   timeline.Point
	BadgePosition  timeline.Point
	BadgeSize      timeline.Size
	CaptionY       int
	CaptionSize    float64
	CaptionFill    color.Color
	CaptionStroke  color.Color
	CaptionOutline int
	CaptionMargin  int

	FrameAsset    string
	BadgeAsset    string
	ConfettiAsset string
	SoundAsset    string
	FontAsset     string
}

// SettingsFromConfig derives page settings from the application config.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	fill, err := caption.ParseHex(cfg.Caption.Fill)
	if err != nil {
		return Settings{}, fmt.Errorf("caption.fill: %w", err)
	}
	stroke, err := caption.ParseHex(cfg.Caption.Stroke)
	if err != nil {
		return Settings{}, fmt.Errorf("caption.stroke: %w", err)
	}
	return Settings{
		Canvas:         timeline.Size{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height},
		Page:           cfg.PageDuration(),
		FinalHold:      cfg.FinalHoldDuration(),
		Fade:           cfg.FadeDuration(),
		Sound:          cfg.SoundDuration(),
		PuzzleAnchor:   timeline.Point{X: cfg.Layout.PuzzleX, Y: cfg.Layout.PuzzleY},
		BadgePosition:  timeline.Point{X: cfg.Layout.BadgeX, Y: cfg.Layout.BadgeY},
		BadgeSize:      timeline.Size{Width: cfg.Layout.BadgeWidth, Height: cfg.Layout.BadgeHeight},
		CaptionY:       cfg.Layout.CaptionY,
		CaptionSize:    cfg.Caption.Size,
		CaptionFill:    fill,
		CaptionStroke:  stroke,
		CaptionOutline: cfg.Caption.StrokeWidth,
		CaptionMargin:  cfg.Caption.Margin,
		FrameAsset:     cfg.Assets.Frame,
		BadgeAsset:     cfg.Assets.Badge,
		ConfettiAsset:  cfg.Assets.Confetti,
		SoundAsset:     cfg.Assets.Sound,
		FontAsset:      cfg.Caption.Font,
	}, nil
}

// Duration returns D for ordinary pages and D+E for the terminal page.
func (s Settings) Duration(last bool) time.Duration {
	if last {
		return s.Page + s.FinalHold
	}
	return s.Page
}

// PageDurations returns the expected duration of each of n pages.
func (s Settings) PageDurations(n int) []time.Duration {
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = s.Duration(i == n-1)
	}
	return out
}
