package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var allowedPresets = map[string]struct{}{
	"ultrafast": {},
	"superfast": {},
	"veryfast":  {},
	"faster":    {},
	"fast":      {},
	"medium":    {},
	"slow":      {},
	"slower":    {},
	"veryslow":  {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCanvas(); err != nil {
		return err
	}
	if err := c.validateTiming(); err != nil {
		return err
	}
	if err := c.validateLayout(); err != nil {
		return err
	}
	if err := c.validateCaption(); err != nil {
		return err
	}
	if err := c.validateMusic(); err != nil {
		return err
	}
	if err := c.validateEncode(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCanvas() error {
	return ensurePositiveMap(map[string]int{
		"canvas.width":  c.Canvas.Width,
		"canvas.height": c.Canvas.Height,
		"canvas.fps":    c.Canvas.FPS,
	})
}

func (c *Config) validateTiming() error {
	if c.Timing.PageSeconds <= 0 {
		return errors.New("timing.page_seconds must be positive")
	}
	if c.Timing.FinalHoldSeconds < 0 {
		return errors.New("timing.final_hold_seconds must be >= 0")
	}
	if c.Timing.FadeSeconds < 0 {
		return errors.New("timing.fade_seconds must be >= 0")
	}
	if c.Timing.FadeSeconds > c.Timing.PageSeconds {
		return errors.New("timing.fade_seconds must not exceed timing.page_seconds")
	}
	if c.Timing.SoundSeconds < 0 {
		return errors.New("timing.sound_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLayout() error {
	if err := ensurePositiveMap(map[string]int{
		"layout.puzzle_width":  c.Layout.PuzzleWidth,
		"layout.puzzle_height": c.Layout.PuzzleHeight,
		"layout.badge_width":   c.Layout.BadgeWidth,
		"layout.badge_height":  c.Layout.BadgeHeight,
	}); err != nil {
		return err
	}
	if c.Layout.PuzzleX < 0 || c.Layout.PuzzleY < 0 {
		return errors.New("layout.puzzle_x and layout.puzzle_y must be >= 0")
	}
	return nil
}

func (c *Config) validateCaption() error {
	if c.Caption.Size <= 0 {
		return errors.New("caption.size must be positive")
	}
	if !validHexColor(c.Caption.Fill) {
		return fmt.Errorf("caption.fill must be a #rrggbb colour, got %q", c.Caption.Fill)
	}
	if !validHexColor(c.Caption.Stroke) {
		return fmt.Errorf("caption.stroke must be a #rrggbb colour, got %q", c.Caption.Stroke)
	}
	return nil
}

func (c *Config) validateMusic() error {
	if c.Music.Gain < 0 {
		return errors.New("music.gain must be >= 0")
	}
	if c.Music.FadeOutSeconds < 0 {
		return errors.New("music.fade_out_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateEncode() error {
	if _, ok := allowedPresets[c.Encode.Preset]; !ok {
		names := make([]string, 0, len(allowedPresets))
		for name := range allowedPresets {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("encode.preset %q is not one of %s", c.Encode.Preset, strings.Join(names, ", "))
	}
	return nil
}

func validHexColor(value string) bool {
	if len(value) != 7 || value[0] != '#' {
		return false
	}
	for _, r := range value[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
