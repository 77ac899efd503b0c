package logging

import (
	"math"
	"strings"
)

// ProgressSampler picks which progress updates deserve a log line: the first
// update of each stage and the first update in each new percentage bucket.
// Updates with a negative percent only log on a stage change.
type ProgressSampler struct {
	step   float64
	stage  string
	bucket int
}

// NewProgressSampler returns a sampler with buckets of step percent. A
// non-positive step means 10.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = 10
	}
	return &ProgressSampler{step: step, bucket: -1}
}

// Sample reports whether an update for stage at percent should be logged.
// A nil sampler logs everything.
func (s *ProgressSampler) Sample(stage string, percent float64) bool {
	if s == nil {
		return true
	}
	changed := false
	if stage = strings.TrimSpace(stage); stage != "" && stage != s.stage {
		s.stage = stage
		s.bucket = -1
		changed = true
	}
	if percent < 0 {
		return changed
	}
	bucket := int(math.Min(percent, 100) / s.step)
	if bucket <= s.bucket {
		return changed
	}
	s.bucket = bucket
	return true
}
