package timeline

import (
	"time"
)

// Clip is a time-bounded piece of video with optional audio.
type Clip interface {
	Duration() time.Duration
	Size() Size
	// Channels is the audio channel count, zero when the clip is silent.
	Channels() int
	// flatten appends the clip's layers and sounds, translated to origin and
	// shifted by start, to p.
	flatten(p *Plan, origin Point, start time.Duration)
}

// Composite is a fixed-size canvas holding layers and sounds that all start
// relative to the composite. Anything outside [0, Duration) is clipped when
// flattened.
type Composite struct {
	Label  string
	Canvas Size
	Length time.Duration
	Layers []Layer
	Sounds []Sound
}

// NewComposite copies layers and sounds so the result owns its slices.
func NewComposite(label string, canvas Size, length time.Duration, layers []Layer, sounds []Sound) *Composite {
	return &Composite{
		Label:  label,
		Canvas: canvas,
		Length: length,
		Layers: append([]Layer(nil), layers...),
		Sounds: append([]Sound(nil), sounds...),
	}
}

func (c *Composite) Duration() time.Duration { return c.Length }

func (c *Composite) Size() Size { return c.Canvas }

func (c *Composite) Channels() int {
	channels := 0
	for _, s := range c.Sounds {
		if s.Start < c.Length {
			channels = max(channels, s.Channels)
		}
	}
	return channels
}

// HasAudio reports whether any sound plays inside the composite.
func (c *Composite) HasAudio() bool {
	for _, s := range c.Sounds {
		if s.Start < c.Length && s.Duration > 0 {
			return true
		}
	}
	return false
}

// LayersByRole returns the layers whose role matches, in stacking order.
func (c *Composite) LayersByRole(role string) []Layer {
	var out []Layer
	for _, l := range c.Layers {
		if l.Role == role {
			out = append(out, l)
		}
	}
	return out
}

func (c *Composite) flatten(p *Plan, origin Point, start time.Duration) {
	for _, l := range c.Layers {
		clipped, ok := clipLayer(l, c.Length)
		if !ok {
			continue
		}
		clipped.Position = clipped.Position.Add(origin)
		clipped.Start += start
		p.Layers = append(p.Layers, clipped)
	}
	for _, s := range c.Sounds {
		clipped, ok := clipSound(s, c.Length)
		if !ok {
			continue
		}
		clipped.Start += start
		p.Sounds = append(p.Sounds, clipped)
	}
}

func clipLayer(l Layer, limit time.Duration) (Layer, bool) {
	if l.Start >= limit || l.Duration <= 0 {
		return Layer{}, false
	}
	if l.End() > limit {
		l.Duration = limit - l.Start
		if l.FadeIn > l.Duration {
			l.FadeIn = l.Duration
		}
		if l.FadeOut > l.Duration {
			l.FadeOut = l.Duration
		}
	}
	return l, true
}

func clipSound(s Sound, limit time.Duration) (Sound, bool) {
	if s.Start >= limit || s.Duration <= 0 {
		return Sound{}, false
	}
	if s.End() > limit {
		s.Duration = limit - s.Start
		if s.FadeOut > s.Duration {
			s.FadeOut = s.Duration
		}
	}
	return s, true
}

// Media is an external video file used unmodified, such as an intro.
type Media struct {
	Label     string
	Path      string
	Natural   Size
	Length    time.Duration
	AudioChan int
}

func (m *Media) Duration() time.Duration { return m.Length }

func (m *Media) Size() Size { return m.Natural }

func (m *Media) Channels() int { return m.AudioChan }

func (m *Media) flatten(p *Plan, origin Point, start time.Duration) {
	if m.Length <= 0 {
		return
	}
	p.Layers = append(p.Layers, Layer{
		Role:     m.Label,
		Kind:     KindVideo,
		Path:     m.Path,
		Position: origin,
		Size:     m.Natural,
		Start:    start,
		Duration: m.Length,
	})
	if m.AudioChan > 0 {
		p.Sounds = append(p.Sounds, Sound{
			Role:     m.Label,
			Path:     m.Path,
			Start:    start,
			Duration: m.Length,
			Gain:     1,
			Channels: m.AudioChan,
		})
	}
}

// Entry places a clip inside a sequence.
type Entry struct {
	Clip   Clip
	Start  time.Duration
	Offset Point
}

// Sequence is a gapless concatenation. Entries are laid out by the sequencer;
// Sequence only records the result.
type Sequence struct {
	Label   string
	Entries []Entry
	Canvas  Size
	Length  time.Duration
	Chans   int
}

// NewSequence records a laid-out concatenation, copying entries.
func NewSequence(label string, entries []Entry, canvas Size, length time.Duration, channels int) *Sequence {
	return &Sequence{
		Label:   label,
		Entries: append([]Entry(nil), entries...),
		Canvas:  canvas,
		Length:  length,
		Chans:   channels,
	}
}

func (s *Sequence) Duration() time.Duration { return s.Length }

func (s *Sequence) Size() Size { return s.Canvas }

func (s *Sequence) Channels() int { return s.Chans }

func (s *Sequence) flatten(p *Plan, origin Point, start time.Duration) {
	for _, e := range s.Entries {
		e.Clip.flatten(p, origin.Add(e.Offset), start+e.Start)
	}
}
