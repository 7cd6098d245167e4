package wire

import (
	"fmt"

	rtcerrors "github.com/ndnrtc-go/receiver/internal/errors"
)

// VideoFramePacket is an assembled (or about-to-be-sliced) video frame:
// the typed header plus the raw encoded frame bytes (spec.md §6). It is
// the unit the wire codec slices into segments on the production side
// and reassembles from segments on the consumer side.
type VideoFramePacket struct {
	Header  VideoFrameTypedHeader
	Encoded []byte
}

// NewVideoFramePacket builds a packet ready for slicing, filling
// FrameLength from the encoded payload.
func NewVideoFramePacket(header VideoFrameTypedHeader, encoded []byte) VideoFramePacket {
	header.FrameLength = uint32(len(encoded))
	return VideoFramePacket{Header: header, Encoded: encoded}
}

// Bytes concatenates the typed header and the encoded frame into the
// single byte stream that gets sliced into equal-length data segments.
func (p VideoFramePacket) Bytes() ([]byte, error) {
	hdr, err := encodeStruct(p.Header.encode)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(hdr)+len(p.Encoded))
	out = append(out, hdr...)
	out = append(out, p.Encoded...)
	return out, nil
}

// Slice splits the packet into ⌈len/wireLength⌉ fixed-length data
// segments, each wrapped in a VideoFrameSegmentHeader (spec.md §4.1). The
// final shard is zero-padded to wireLength so every data segment — and
// the parity computed over them by Parity — has identical length, which
// the Reed-Solomon code requires.
func (p VideoFramePacket) Slice(wireLength int, playbackNo, pairedSampleNo int32) ([]Envelope, error) {
	body, err := p.Bytes()
	if err != nil {
		return nil, err
	}
	total := (len(body) + wireLength - 1) / wireLength
	if total == 0 {
		total = 1
	}
	segments := make([]Envelope, total)
	for i := 0; i < total; i++ {
		start := i * wireLength
		end := start + wireLength
		var chunk []byte
		if end > len(body) {
			chunk = make([]byte, wireLength)
			if start < len(body) {
				copy(chunk, body[start:])
			}
		} else {
			chunk = body[start:end]
		}
		segHdr := VideoFrameSegmentHeader{
			TotalSegments:  int32(total),
			PlaybackNo:     playbackNo,
			PairedSampleNo: pairedSampleNo,
		}
		hdrBytes, err := encodeStruct(segHdr.encode)
		if err != nil {
			return nil, err
		}
		segments[i] = Envelope{Blobs: [][]byte{hdrBytes}, Payload: chunk}
	}
	return segments, nil
}

// Parity computes the ⌈ratio·D⌉ parity segments over a freshly sliced set
// of data segments and wraps each in its own VideoFrameSegmentHeader,
// mirroring the data-segment header shape but with ParitySegments set to
// the parity count, where data-segment headers leave it zero (spec.md
// §4.1, §6).
func Parity(dataSegments []Envelope, wireLength int, ratio float64, playbackNo, pairedSampleNo int32) ([]Envelope, error) {
	shards := make([][]byte, len(dataSegments))
	for i, seg := range dataSegments {
		shards[i] = seg.Payload
	}
	parityShards, err := EncodeParity(shards, wireLength, ratio)
	if err != nil {
		return nil, err
	}
	out := make([]Envelope, len(parityShards))
	for i, shard := range parityShards {
		segHdr := VideoFrameSegmentHeader{
			TotalSegments:  int32(len(dataSegments)),
			PlaybackNo:     playbackNo,
			PairedSampleNo: pairedSampleNo,
			ParitySegments: int32(len(parityShards)),
		}
		hdrBytes, err := encodeStruct(segHdr.encode)
		if err != nil {
			return nil, err
		}
		out[i] = Envelope{Blobs: [][]byte{hdrBytes}, Payload: shard}
	}
	return out, nil
}

// MergeVideoFrame reassembles a video frame from its data segments (in
// ascending segment-index order, nil for a missing segment) plus any
// parity segments received, invoking Reed-Solomon reconstruction only
// when the data set is incomplete. It returns the typed header and the
// original encoded frame bytes with trailing pad removed.
func MergeVideoFrame(dataSegments, paritySegments []Envelope, wireLength int) (VideoFramePacket, error) {
	d := len(dataSegments)
	present := make([][]byte, d+len(paritySegments))
	missing := false
	for i, seg := range dataSegments {
		if seg.Payload == nil {
			missing = true
			continue
		}
		present[i] = seg.Payload
	}
	for i, seg := range paritySegments {
		present[d+i] = seg.Payload
	}

	var shards [][]byte
	if missing {
		rebuilt, err := Reconstruct(present, d, len(paritySegments))
		if err != nil {
			return VideoFramePacket{}, err
		}
		shards = rebuilt
	} else {
		shards = present[:d]
	}

	body := make([]byte, 0, d*wireLength)
	for _, s := range shards {
		body = append(body, s...)
	}

	if len(body) < videoFrameTypedHeaderSize {
		return VideoFramePacket{}, rtcerrors.NewMalformedError("wire.MergeVideoFrame", fmt.Errorf("reassembled body too short (%d bytes)", len(body)))
	}
	header, err := decodeVideoFrameTypedHeader(body[:videoFrameTypedHeaderSize])
	if err != nil {
		return VideoFramePacket{}, err
	}
	payload := body[videoFrameTypedHeaderSize:]
	if uint32(len(payload)) > header.FrameLength {
		payload = payload[:header.FrameLength]
	}
	return VideoFramePacket{Header: header, Encoded: payload}, nil
}
