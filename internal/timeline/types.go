package timeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Size is a frame size in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Empty reports whether either dimension is non-positive.
func (s Size) Empty() bool { return s.Width <= 0 || s.Height <= 0 }

// Union returns the smallest size containing both s and o.
func (s Size) Union(o Size) Size {
	return Size{Width: max(s.Width, o.Width), Height: max(s.Height, o.Height)}
}

// Point is a canvas position in pixels.
type Point struct {
	X int
	Y int
}

// Add offsets p by o.
func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }

// Centered returns the top-left position that centres inner within outer.
// Odd remainders round toward the top-left.
func Centered(outer, inner Size) Point {
	return Point{X: (outer.Width - inner.Width) / 2, Y: (outer.Height - inner.Height) / 2}
}

// Still is a decoded-on-demand image held in memory. Key identifies the
// content so identical stills can share one materialized file.
type Still struct {
	Key    string
	Format string // "png" or "jpeg"
	Data   []byte
	Size   Size
}

// NewStill wraps encoded image bytes, keying them by content hash.
func NewStill(format string, data []byte, size Size) *Still {
	sum := sha256.Sum256(data)
	return &Still{Key: hex.EncodeToString(sum[:12]), Format: format, Data: data, Size: size}
}

// Ext returns the file extension for the still's format.
func (s *Still) Ext() string {
	if s.Format == "jpeg" {
		return ".jpg"
	}
	return ".png"
}

// Kind classifies the content of a layer.
type Kind int

const (
	// KindStill is a single image shown for the layer's duration.
	KindStill Kind = iota
	// KindAnimation is an animated image such as a GIF.
	KindAnimation
	// KindVideo is a video file played from its start.
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindStill:
		return "still"
	case KindAnimation:
		return "animation"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Layer is one visual element. Start and Position are relative to the clip
// that owns the layer until the timeline is flattened, after which they are
// absolute.
type Layer struct {
	// Role names the layer for logs and plan listings (background, piece_0_1, ...).
	Role     string
	Kind     Kind
	Still    *Still // set for KindStill
	Path     string // set for KindAnimation and KindVideo
	Position Point
	Size     Size
	Start    time.Duration
	Duration time.Duration
	FadeIn   time.Duration
	FadeOut  time.Duration
	// Loop repeats an animation until Duration is filled.
	Loop bool
}

// End returns Start + Duration.
func (l Layer) End() time.Duration { return l.Start + l.Duration }

// Source describes where the layer's pixels come from.
func (l Layer) Source() string {
	if l.Still != nil {
		return "mem:" + l.Still.Key
	}
	return l.Path
}

// Sound is one audio element.
type Sound struct {
	Role     string
	Path     string
	Start    time.Duration
	Duration time.Duration
	// Offset skips into the source before playback.
	Offset   time.Duration
	FadeOut  time.Duration
	// Gain is a linear multiplier; 1 leaves the source unchanged.
	Gain     float64
	Channels int
	// Loop repeats the source from its start until Duration is filled.
	Loop bool
}

// End returns Start + Duration.
func (s Sound) End() time.Duration { return s.Start + s.Duration }
