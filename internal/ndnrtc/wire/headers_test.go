package wire

import (
	"testing"

	"github.com/matryer/is"
)

func TestSegmentHeaderRoundTrip(t *testing.T) {
	is := is.New(t)
	h := SegmentHeader{InterestNonce: -12345, InterestArrivalMs: 1234.5, GenerationDelayMs: 9.75}
	b, err := encodeStruct(h.encode)
	is.NoErr(err)
	is.Equal(len(b), segmentHeaderSize)

	got, err := decodeSegmentHeader(b)
	is.NoErr(err)
	is.Equal(got, h)
}

func TestVideoFrameSegmentHeaderRoundTrip(t *testing.T) {
	is := is.New(t)
	h := VideoFrameSegmentHeader{
		SegmentHeader:  SegmentHeader{InterestNonce: 7, InterestArrivalMs: 1.0, GenerationDelayMs: 2.0},
		TotalSegments:  10,
		PlaybackNo:     42,
		PairedSampleNo: 41,
		ParitySegments: 2,
	}
	b, err := encodeStruct(h.encode)
	is.NoErr(err)
	is.Equal(len(b), videoFrameSegmentHeaderSize)

	got, err := decodeVideoFrameSegmentHeader(b)
	is.NoErr(err)
	is.Equal(got, h)
}

func TestCommonHeaderRoundTrip(t *testing.T) {
	is := is.New(t)
	h := CommonHeader{SampleRate: 48000.0, PublishTimestampMs: 1690000000000, PublishUnixTimestampMs: 1690000000.5}
	b, err := encodeStruct(h.encode)
	is.NoErr(err)
	is.Equal(len(b), commonHeaderSize)

	got, err := decodeCommonHeader(b)
	is.NoErr(err)
	is.Equal(got, h)
}

func TestAudioSampleHeaderRoundTrip(t *testing.T) {
	is := is.New(t)
	h := AudioSampleHeader{IsRtcp: true}
	got := decodeAudioSampleHeader(h.encodeByte())
	is.Equal(got, h)

	h2 := AudioSampleHeader{IsRtcp: false}
	got2 := decodeAudioSampleHeader(h2.encodeByte())
	is.Equal(got2, h2)
}

func TestVideoFrameTypedHeaderRoundTrip(t *testing.T) {
	is := is.New(t)
	h := VideoFrameTypedHeader{
		EncodedWidth:  1920,
		EncodedHeight: 1080,
		Timestamp:     90000,
		CaptureTimeMs: 1690000001234,
		FrameType:     FrameTypeKey,
		CompleteFrame: true,
		FrameLength:   65536,
	}
	b, err := encodeStruct(h.encode)
	is.NoErr(err)
	is.Equal(len(b), videoFrameTypedHeaderSize)

	got, err := decodeVideoFrameTypedHeader(b)
	is.NoErr(err)
	is.Equal(got, h)
}

func TestDecodeSegmentHeaderRejectsWrongSize(t *testing.T) {
	is := is.New(t)
	_, err := decodeSegmentHeader([]byte{1, 2, 3})
	is.True(err != nil)
}
