// Package caption rasterizes the closing text of a puzzle into a transparent
// PNG still: filled glyphs with an outline stroke and a uniform margin.
package caption

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strconv"
	"strings"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"jigsawreveal/internal/services"
	"jigsawreveal/internal/timeline"
)

// Style describes how the caption is drawn.
type Style struct {
	FontPath    string
	Size        float64
	Fill        color.Color
	Stroke      color.Color
	StrokeWidth int
	Margin      int
}

// Renderer draws captions with one parsed font. The zero value is not usable;
// construct with New.
type Renderer struct {
	style Style
	font  *truetype.Font
}

// New parses the style's font file.
func New(style Style) (*Renderer, error) {
	data, err := os.ReadFile(style.FontPath)
	if err != nil {
		return nil, services.Wrap(services.ErrAssetNotFound, "build_pages", "caption", "read font", err)
	}
	parsed, err := truetype.Parse(data)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "build_pages", "caption", "parse font", err)
	}
	if style.Size <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "build_pages", "caption", fmt.Sprintf("font size %v", style.Size), nil)
	}
	if style.Fill == nil {
		style.Fill = color.Black
	}
	if style.Stroke == nil {
		style.Stroke = color.White
	}
	return &Renderer{style: style, font: parsed}, nil
}

// Render draws text, one line per newline, each line centred horizontally.
func (r *Renderer) Render(text string) (*timeline.Still, error) {
	text = norm.NFC.String(text)
	if text == "" {
		return nil, services.Wrap(services.ErrConfiguration, "build_pages", "caption", "empty caption", nil)
	}
	lines := strings.Split(text, "\n")

	face := truetype.NewFace(r.font, &truetype.Options{
		Size:    r.style.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()
	pad := r.style.Margin + r.style.StrokeWidth

	widths := make([]int, len(lines))
	maxWidth := 0
	for i, line := range lines {
		widths[i] = font.MeasureString(face, line).Ceil()
		maxWidth = max(maxWidth, widths[i])
	}

	width := maxWidth + 2*pad
	height := lineHeight*len(lines) + 2*pad
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)

	offsets := strokeOffsets(r.style.StrokeWidth)
	stroke := &font.Drawer{Dst: img, Src: image.NewUniform(r.style.Stroke), Face: face}
	fill := &font.Drawer{Dst: img, Src: image.NewUniform(r.style.Fill), Face: face}
	for i, line := range lines {
		x := (width - widths[i]) / 2
		y := pad + ascent + i*lineHeight
		for _, off := range offsets {
			stroke.Dot = freetype.Pt(x+off.X, y+off.Y)
			stroke.DrawString(line)
		}
		fill.Dot = fixed.P(x, y)
		fill.DrawString(line)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode caption: %w", err)
	}
	return timeline.NewStill("png", buf.Bytes(), timeline.Size{Width: width, Height: height}), nil
}

// strokeOffsets returns every integer offset within radius, so drawing the
// glyphs at each offset paints a solid outline.
func strokeOffsets(radius int) []image.Point {
	if radius <= 0 {
		return nil
	}
	var out []image.Point
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if dx*dx+dy*dy <= radius*radius {
				out = append(out, image.Point{X: dx, Y: dy})
			}
		}
	}
	return out
}

// ParseHex converts "#rrggbb" to an opaque colour.
func ParseHex(value string) (color.RGBA, error) {
	value = strings.TrimSpace(value)
	if len(value) != 7 || value[0] != '#' {
		return color.RGBA{}, fmt.Errorf("colour %q: want #rrggbb", value)
	}
	rgb, err := strconv.ParseUint(value[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("colour %q: %w", value, err)
	}
	return color.RGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xff}, nil
}
