package wire

import (
	"bytes"
	"testing"

	"github.com/matryer/is"
)

func sampleFrame(size int) VideoFramePacket {
	encoded := bytes.Repeat([]byte{0x5A}, size)
	header := VideoFrameTypedHeader{
		EncodedWidth:  1280,
		EncodedHeight: 720,
		Timestamp:     3000,
		CaptureTimeMs: 1690000000000,
		FrameType:     FrameTypeDelta,
		CompleteFrame: true,
	}
	return NewVideoFramePacket(header, encoded)
}

// TestScenario_S1 mirrors spec.md's S1: 10 data segments, 2 parity
// segments, all 12 arrive; the frame must decode to the original payload.
func TestScenario_S1(t *testing.T) {
	is := is.New(t)
	const wireLength = 128
	frame := sampleFrame(10*wireLength - 40) // leaves room short of an exact multiple

	dataSegs, err := frame.Slice(wireLength, 7, 6)
	is.NoErr(err)
	is.True(len(dataSegs) >= 1)

	paritySegs, err := Parity(dataSegs, wireLength, 0.2, 7, 6)
	is.NoErr(err)

	merged, err := MergeVideoFrame(dataSegs, paritySegs, wireLength)
	is.NoErr(err)
	is.Equal(merged.Header, frame.Header)
	is.True(bytes.Equal(merged.Encoded, frame.Encoded))
}

// TestScenario_S2 mirrors spec.md's S2: one data segment is dropped, and
// parity segments fill the gap. The frame must still decode bit-exactly.
func TestScenario_S2(t *testing.T) {
	is := is.New(t)
	const wireLength = 128
	frame := sampleFrame(10*wireLength - videoFrameTypedHeaderSize) // header + frame fill exactly 10 segments

	dataSegs, err := frame.Slice(wireLength, 7, 6)
	is.NoErr(err)
	is.Equal(len(dataSegs), 10)

	paritySegs, err := Parity(dataSegs, wireLength, 0.2, 7, 6)
	is.NoErr(err)
	is.Equal(len(paritySegs), 2)

	lossy := append([]Envelope{}, dataSegs...)
	lossy[4] = Envelope{} // dropped: zero value, Payload is nil

	merged, err := MergeVideoFrame(lossy, paritySegs, wireLength)
	is.NoErr(err)
	is.True(bytes.Equal(merged.Encoded, frame.Encoded))
}

func TestVideoFrameSliceSingleSegment(t *testing.T) {
	is := is.New(t)
	frame := sampleFrame(10)
	segs, err := frame.Slice(4096, 1, 0)
	is.NoErr(err)
	is.Equal(len(segs), 1)

	merged, err := MergeVideoFrame(segs, nil, 4096)
	is.NoErr(err)
	is.True(bytes.Equal(merged.Encoded, frame.Encoded))
}

func TestMergeVideoFrameFailsWithInsufficientSegments(t *testing.T) {
	is := is.New(t)
	const wireLength = 64
	frame := sampleFrame(5*wireLength - videoFrameTypedHeaderSize) // header + frame fill exactly 5 segments
	dataSegs, err := frame.Slice(wireLength, 1, 0)
	is.NoErr(err)
	paritySegs, err := Parity(dataSegs, wireLength, 0.2, 1, 0)
	is.NoErr(err)

	lossy := append([]Envelope{}, dataSegs...)
	lossy[0] = Envelope{}
	lossy[1] = Envelope{}

	_, err = MergeVideoFrame(lossy, paritySegs, wireLength)
	is.True(err != nil) // only 1 parity shard, 2 data shards missing
}
