package encoding

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"
)

// ProgressFunc receives encoded frame counts. total is the expected number of
// frames for the whole timeline.
type ProgressFunc func(completed, total int64)

// TotalFrames returns the number of frames a timeline of duration d produces
// at fps.
func TotalFrames(d time.Duration, fps int) int64 {
	if d <= 0 || fps <= 0 {
		return 0
	}
	return int64(math.Ceil(d.Seconds()*float64(fps) - 1e-9))
}

// progressWriter parses ffmpeg "-progress" key=value lines as they arrive.
type progressWriter struct {
	total    int64
	fn       ProgressFunc
	pending  []byte
	last     int64
	finished bool
}

func newProgressWriter(total int64, fn ProgressFunc) *progressWriter {
	return &progressWriter{total: total, fn: fn, last: -1}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.pending = append(w.pending, p...)
	for {
		idx := bytes.IndexByte(w.pending, '\n')
		if idx < 0 {
			break
		}
		w.line(string(w.pending[:idx]))
		w.pending = w.pending[idx+1:]
	}
	return len(p), nil
}

func (w *progressWriter) line(raw string) {
	key, value, ok := strings.Cut(strings.TrimSpace(raw), "=")
	if !ok {
		return
	}
	switch key {
	case "frame":
		frame, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || frame < 0 {
			return
		}
		w.report(frame)
	case "progress":
		if strings.TrimSpace(value) == "end" {
			w.finished = true
		}
	}
}

func (w *progressWriter) report(frame int64) {
	if w.total > 0 && frame > w.total {
		frame = w.total
	}
	if frame == w.last {
		return
	}
	w.last = frame
	if w.fn != nil {
		w.fn(frame, w.total)
	}
}

// complete reports the final frame count once ffmpeg has exited cleanly.
func (w *progressWriter) complete() {
	if w.total > 0 {
		w.report(w.total)
	}
}
