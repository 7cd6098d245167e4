package name

import (
	"testing"

	"github.com/matryer/is"
)

func TestParseSegmentLevelName(t *testing.T) {
	is := is.New(t)

	base := Name{Comp("p")}
	streamPfx := StreamPrefix(base, MediaVideo, "camera")
	threadPfx := ThreadPrefix(streamPfx, "hi")
	samplePfx := SamplePrefix(threadPfx, SampleDelta, 7)
	segName := SegmentName(samplePfx, SegmentData, 3)

	info, err := Parse(segName)
	is.NoErr(err)
	is.Equal(info.MediaType, MediaVideo)
	is.Equal(info.StreamName, "camera")
	is.Equal(info.ThreadName, "hi")
	is.Equal(info.SampleClass, SampleDelta)
	is.Equal(info.SampleNo, uint64(7))
	is.True(info.HasSegment)
	is.Equal(info.SegmentNo, uint64(3))
	is.Equal(info.SegClass, SegmentData)
	is.Equal(info.APIVersion, uint64(APIVersion))
}

func TestParseParitySegment(t *testing.T) {
	is := is.New(t)
	base := Name{Comp("p")}
	samplePfx := SamplePrefix(ThreadPrefix(StreamPrefix(base, MediaVideo, "camera"), "hi"), SampleDelta, 7)
	segName := SegmentName(samplePfx, SegmentParity, 1)

	info, err := Parse(segName)
	is.NoErr(err)
	is.Equal(info.SegClass, SegmentParity)
	is.Equal(info.SegmentNo, uint64(1))
}

func TestParseSamplePrefixWithoutSegment(t *testing.T) {
	is := is.New(t)
	base := Name{Comp("p")}
	samplePfx := SamplePrefix(ThreadPrefix(StreamPrefix(base, MediaVideo, "camera"), "hi"), SampleDelta, 7)

	info, err := Parse(samplePfx)
	is.NoErr(err)
	is.True(!info.HasSegment)
	is.Equal(info.SampleNo, uint64(7))
}

func TestParseMeta(t *testing.T) {
	is := is.New(t)
	base := Name{Comp("p")}
	threadPfx := ThreadPrefix(StreamPrefix(base, MediaAudio, "mic"), "lo")
	metaName := MetaName(threadPfx, 2, 0)

	info, err := Parse(metaName)
	is.NoErr(err)
	is.True(info.IsMeta)
	is.Equal(info.MetaVersion, uint64(2))
	is.True(info.HasSegment)
	is.Equal(info.SegmentNo, uint64(0))
	is.Equal(info.MediaType, MediaAudio)
}

func TestParseRejectsNonNdnrtcName(t *testing.T) {
	is := is.New(t)
	_, err := Parse(Name{Comp("p"), Comp("something"), Comp("else")})
	is.True(err != nil)
}

func TestParseRejectsShortName(t *testing.T) {
	is := is.New(t)
	_, err := Parse(Name{Comp("p"), Comp(CompNdnrtc)})
	is.True(err != nil)
}

func TestMarkedNumberRoundTrip(t *testing.T) {
	is := is.New(t)
	for _, v := range []uint64{0, 1, 255, 256, 65535, 65536, 1 << 32, 1<<64 - 1} {
		c := MarkedNumber(MarkerSequence, v)
		marker, got, ok := ParseMarkedNumber(c)
		is.True(ok)
		is.Equal(marker, MarkerSequence)
		is.Equal(got, v)
	}
}

func TestNameStringEscapesMarker(t *testing.T) {
	is := is.New(t)
	c := MarkedNumber(MarkerVersion, 3)
	is.Equal(c.String(), "%FD%03")
}
