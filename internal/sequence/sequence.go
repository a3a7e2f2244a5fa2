// Package sequence concatenates clips end to end.
//
// Concatenation is gapless and keeps arrival order: each clip starts where the
// previous one ends. The result takes the largest width, height and audio
// channel count among its clips; smaller clips are centred on that canvas.
package sequence

import (
	"fmt"
	"time"

	"jigsawreveal/internal/services"
	"jigsawreveal/internal/timeline"
)

// Concatenate lays out clips one after another. Nil clips are skipped.
func Concatenate(label string, clips []timeline.Clip) (*timeline.Sequence, error) {
	var (
		canvas   timeline.Size
		channels int
		kept     []timeline.Clip
	)
	for _, c := range clips {
		if c == nil {
			continue
		}
		canvas = canvas.Union(c.Size())
		channels = max(channels, c.Channels())
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return nil, services.Wrap(services.ErrNoClips, "concatenate", label, "nothing to concatenate", nil)
	}

	entries := make([]timeline.Entry, 0, len(kept))
	var cursor time.Duration
	for _, c := range kept {
		entries = append(entries, timeline.Entry{
			Clip:   c,
			Start:  cursor,
			Offset: timeline.Centered(canvas, c.Size()),
		})
		cursor += c.Duration()
	}
	return timeline.NewSequence(label, entries, canvas, cursor, channels), nil
}

// ConcatenatePages joins the pages of one puzzle into its clip.
func ConcatenatePages(label string, pages []*timeline.Composite) (*timeline.Sequence, error) {
	clips := make([]timeline.Clip, 0, len(pages))
	for _, p := range pages {
		if p != nil {
			clips = append(clips, p)
		}
	}
	return Concatenate(label, clips)
}

// ConcatenateAll joins intro, puzzle clips and outtro into the final
// timeline. intro and outtro may be nil. A single clip is used as the body
// directly.
func ConcatenateAll(intro timeline.Clip, puzzles []timeline.Clip, outtro timeline.Clip) (*timeline.Timeline, error) {
	clips := make([]timeline.Clip, 0, len(puzzles)+2)
	if intro != nil {
		clips = append(clips, intro)
	}
	for _, p := range puzzles {
		if p != nil {
			clips = append(clips, p)
		}
	}
	if outtro != nil {
		clips = append(clips, outtro)
	}
	switch len(clips) {
	case 0:
		return nil, services.Wrap(services.ErrNoClips, "concatenate", "final", "no intro, puzzle or outtro clips", nil)
	case 1:
		return timeline.New(clips[0]), nil
	}
	body, err := Concatenate(fmt.Sprintf("final (%d clips)", len(clips)), clips)
	if err != nil {
		return nil, err
	}
	return timeline.New(body), nil
}
