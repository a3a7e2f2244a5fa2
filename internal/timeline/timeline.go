package timeline

import (
	"time"
)

// Timeline is the final clip plus an optional background soundtrack.
type Timeline struct {
	Body       Clip
	Soundtrack *Sound
}

// New wraps body without a soundtrack.
func New(body Clip) *Timeline {
	return &Timeline{Body: body}
}

// Duration returns the body duration; the soundtrack never extends it.
func (t *Timeline) Duration() time.Duration {
	if t == nil || t.Body == nil {
		return 0
	}
	return t.Body.Duration()
}

// Size returns the output frame size.
func (t *Timeline) Size() Size {
	if t == nil || t.Body == nil {
		return Size{}
	}
	return t.Body.Size()
}

// HasForegroundAudio reports whether the body carries any sound.
func (t *Timeline) HasForegroundAudio() bool {
	return t.Body != nil && t.Body.Channels() > 0
}

// WithSoundtrack returns a copy of t carrying track. t is not modified.
func (t *Timeline) WithSoundtrack(track Sound) *Timeline {
	return &Timeline{Body: t.Body, Soundtrack: &track}
}

// Plan is a flattened timeline: absolute layers in stacking order (first is
// bottom-most) and absolute sounds.
type Plan struct {
	Size     Size
	Duration time.Duration
	Layers   []Layer
	Sounds   []Sound
}

// Plan flattens the timeline.
func (t *Timeline) Plan() Plan {
	p := Plan{Size: t.Size(), Duration: t.Duration()}
	if t.Body != nil {
		t.Body.flatten(&p, Point{}, 0)
	}
	if t.Soundtrack != nil {
		p.Sounds = append(p.Sounds, *t.Soundtrack)
	}
	return p
}

// Channels returns the widest channel count among the plan's sounds.
func (p Plan) Channels() int {
	channels := 0
	for _, s := range p.Sounds {
		channels = max(channels, s.Channels)
	}
	return channels
}

// Stills returns the distinct in-memory stills referenced by the plan, in
// first-use order.
func (p Plan) Stills() []*Still {
	seen := make(map[string]struct{})
	var out []*Still
	for _, l := range p.Layers {
		if l.Still == nil {
			continue
		}
		if _, ok := seen[l.Still.Key]; ok {
			continue
		}
		seen[l.Still.Key] = struct{}{}
		out = append(out, l.Still)
	}
	return out
}

// Coalesce merges consecutive appearances of the same still at the same place
// into one layer. A layer continues an earlier one when it shows the same
// still with the same geometry, starts exactly where the earlier one ends and
// neither fade breaks the join. The earlier layer is extended in place, so a
// merge is refused when any layer stacked above it would overlap the extension
// in time. Merging never changes what is on screen; it only reduces the number
// of encoder inputs.
func (p Plan) Coalesce() Plan {
	out := Plan{Size: p.Size, Duration: p.Duration, Sounds: append([]Sound(nil), p.Sounds...)}
	// open maps a continuation key to the index of the layer that may be extended.
	open := make(map[layerKey]int)
	for _, l := range p.Layers {
		if l.Kind == KindStill && l.Still != nil {
			key := layerKey{still: l.Still.Key, pos: l.Position, size: l.Size, end: l.Start}
			if idx, ok := open[key]; ok && l.FadeIn == 0 && out.Layers[idx].FadeOut == 0 && !coveredAbove(out.Layers[idx+1:], l) {
				delete(open, key)
				out.Layers[idx].Duration += l.Duration
				out.Layers[idx].FadeOut = l.FadeOut
				key.end = out.Layers[idx].End()
				open[key] = idx
				continue
			}
			out.Layers = append(out.Layers, l)
			key.end = l.End()
			open[key] = len(out.Layers) - 1
			continue
		}
		out.Layers = append(out.Layers, l)
	}
	return out
}

type layerKey struct {
	still string
	pos   Point
	size  Size
	end   time.Duration
}

func coveredAbove(above []Layer, l Layer) bool {
	for _, other := range above {
		if other.Start < l.End() && l.Start < other.End() {
			return true
		}
	}
	return false
}
