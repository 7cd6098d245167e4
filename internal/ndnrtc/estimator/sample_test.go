package estimator

import (
	"testing"

	"github.com/matryer/is"

	"github.com/ndnrtc-go/receiver/internal/ndnrtc/name"
)

func TestSampleDefaultsWhenUnobserved(t *testing.T) {
	is := is.New(t)
	s := NewSample()
	is.Equal(s.SegNum(name.SampleDelta, name.SegmentData, 7), 7)
	is.Equal(s.SegSize(name.SampleDelta, name.SegmentData, 8000), 8000)
}

func TestSampleBootstrapSeedsEstimate(t *testing.T) {
	is := is.New(t)
	s := NewSample()
	s.Bootstrap(name.SampleKey, name.SegmentData, 12, 8000)
	is.Equal(s.SegNum(name.SampleKey, name.SegmentData, 0), 12)
	is.Equal(s.SegSize(name.SampleKey, name.SegmentData, 0), 8000)
}

func TestSampleUpdateTracksPerClassPairIndependently(t *testing.T) {
	is := is.New(t)
	s := NewSample()
	s.Update(name.SampleKey, name.SegmentData, 20, 8000)
	s.Update(name.SampleDelta, name.SegmentData, 4, 8000)
	is.Equal(s.SegNum(name.SampleKey, name.SegmentData, 0), 20)
	is.Equal(s.SegNum(name.SampleDelta, name.SegmentData, 0), 4)
}

func TestSampleParityBucketIsIndependentOfData(t *testing.T) {
	is := is.New(t)
	s := NewSample()
	s.Update(name.SampleDelta, name.SegmentData, 4, 8000)
	s.Update(name.SampleDelta, name.SegmentParity, 1, 8000)
	is.Equal(s.SegNum(name.SampleDelta, name.SegmentData, 0), 4)
	is.Equal(s.SegNum(name.SampleDelta, name.SegmentParity, 0), 1)
}
