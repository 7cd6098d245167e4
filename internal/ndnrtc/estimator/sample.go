package estimator

import "github.com/ndnrtc-go/receiver/internal/ndnrtc/name"

// classKey identifies one (sample-class, segment-class) bucket.
type classKey struct {
	sample  name.SampleClass
	segment name.SegmentClass
}

// bucket holds the segNum/segSize running averages for one class pair.
type bucket struct {
	segNum  *ewma
	segSize *ewma
}

func newBucket() *bucket {
	return &bucket{segNum: newEWMA(30), segSize: newEWMA(30)}
}

// Sample tracks segNum (segments per sample) and segSize (payload
// bytes per segment), per (sample-class, segment-class) pair (spec.md
// §4.7). The pipeliner consults it to size Interest bursts for a
// requested sample before its first segment replies.
type Sample struct {
	buckets map[classKey]*bucket
}

// NewSample builds an empty Sample estimator.
func NewSample() *Sample {
	return &Sample{buckets: make(map[classKey]*bucket)}
}

func (s *Sample) bucketFor(sc name.SampleClass, gc name.SegmentClass) *bucket {
	k := classKey{sc, gc}
	b, ok := s.buckets[k]
	if !ok {
		b = newBucket()
		s.buckets[k] = b
	}
	return b
}

// Update records one sample's observed segment count (read from
// segment 0's final-block-id) and one segment's payload size.
func (s *Sample) Update(sc name.SampleClass, gc name.SegmentClass, segNum int, segSizeBytes int) {
	b := s.bucketFor(sc, gc)
	if segNum > 0 {
		b.segNum.update(float64(segNum))
	}
	if segSizeBytes > 0 {
		b.segSize.update(float64(segSizeBytes))
	}
}

// SegNum returns the current segNum estimate for a class pair, or the
// provided default if nothing has been observed yet.
func (s *Sample) SegNum(sc name.SampleClass, gc name.SegmentClass, def int) int {
	b, ok := s.buckets[classKey{sc, gc}]
	if !ok || b.segNum.count == 0 {
		return def
	}
	return int(b.segNum.get() + 0.5)
}

// SegSize returns the current segSize estimate for a class pair, or
// the provided default if nothing has been observed yet.
func (s *Sample) SegSize(sc name.SampleClass, gc name.SegmentClass, def int) int {
	b, ok := s.buckets[classKey{sc, gc}]
	if !ok || b.segSize.count == 0 {
		return def
	}
	return int(b.segSize.get() + 0.5)
}

// Bootstrap seeds a class pair's averages from thread meta, so the
// pipeliner has a usable estimate before any sample has completed.
func (s *Sample) Bootstrap(sc name.SampleClass, gc name.SegmentClass, segNum float64, segSize float64) {
	b := s.bucketFor(sc, gc)
	if segNum > 0 {
		b.segNum.value = segNum
		b.segNum.count = 1
	}
	if segSize > 0 {
		b.segSize.value = segSize
		b.segSize.count = 1
	}
}
