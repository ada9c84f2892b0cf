package logging

// ProgressSampler thins per-cue progress logs to one line per percentage
// bucket. The first and last cue are always logged.
type ProgressSampler struct {
	bucketSize float64
	lastBucket int
}

// NewProgressSampler returns a sampler with the given bucket width in percent
// (5 when zero or negative).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether progress after done of total cues is worth a log line.
func (s *ProgressSampler) ShouldLog(done, total int) bool {
	if s == nil || total <= 0 {
		return true
	}
	if done >= total {
		s.lastBucket = int(100 / s.bucketSize)
		return true
	}
	bucket := int(float64(done) * 100 / float64(total) / s.bucketSize)
	if done <= 1 || bucket > s.lastBucket {
		s.lastBucket = max(bucket, s.lastBucket)
		return true
	}
	return false
}
