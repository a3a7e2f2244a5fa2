package logging

import (
	"math"
	"strings"
)

// ProgressSampler thins progress reports to one per completion bucket, plus
// one whenever the reporting stage changes. It is not safe for concurrent use.
type ProgressSampler struct {
	bucketSize float64
	lastStage  string
	lastBucket int
}

// NewProgressSampler returns a sampler with buckets of bucketSize percent,
// or 5 when bucketSize is not positive.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	s := &ProgressSampler{bucketSize: 5}
	if bucketSize > 0 {
		s.bucketSize = bucketSize
	}
	s.Reset()
	return s
}

// ShouldLog reports whether an event at percent in stage is worth logging. A
// negative percent means unknown and only a stage change emits. A nil sampler
// logs everything.
func (s *ProgressSampler) ShouldLog(percent float64, stage string) bool {
	if s == nil {
		return true
	}
	changed := s.enter(strings.TrimSpace(stage))
	if percent < 0 {
		return changed
	}
	bucket := int(math.Min(percent, 100) / s.bucketSize)
	if bucket <= s.lastBucket {
		return changed
	}
	s.lastBucket = bucket
	return true
}

func (s *ProgressSampler) enter(stage string) bool {
	if stage == "" || stage == s.lastStage {
		return false
	}
	s.lastStage = stage
	s.lastBucket = -1
	return true
}

// ShouldLogFrames is ShouldLog for an encoded frame counter.
func (s *ProgressSampler) ShouldLogFrames(completed, total int64, stage string) bool {
	return s.ShouldLog(FramePercent(completed, total), stage)
}

// FramePercent converts a frame counter to a percentage in [0, 100], or -1
// when total is unknown.
func FramePercent(completed, total int64) float64 {
	if total <= 0 {
		return -1
	}
	percent := float64(completed) / float64(total) * 100
	return math.Max(0, math.Min(100, percent))
}

// Reset forgets the last stage and bucket.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastStage = ""
	s.lastBucket = -1
}
