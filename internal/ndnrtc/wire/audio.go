package wire

import (
	"fmt"

	rtcerrors "github.com/ndnrtc-go/receiver/internal/errors"
)

// AudioSample is one bundled audio frame plus the flag distinguishing an
// RTCP sample from a media sample (spec.md §6).
type AudioSample struct {
	Header  AudioSampleHeader
	Payload []byte
}

// AudioBundlePacket bundles several audio samples under one CommonHeader,
// the producer-side batching unit for a single audio segment.
type AudioBundlePacket struct {
	Common  CommonHeader
	Samples []AudioSample
}

// Bundle serializes the packet into an Envelope: each sample becomes one
// length-prefixed blob (a single header byte followed by the sample
// payload), with CommonHeader as the final, typed-header blob.
func (p AudioBundlePacket) Bundle() (Envelope, error) {
	commonBytes, err := encodeStruct(p.Common.encode)
	if err != nil {
		return Envelope{}, err
	}
	blobs := make([][]byte, 0, len(p.Samples)+1)
	for _, s := range p.Samples {
		blob := make([]byte, 1+len(s.Payload))
		blob[0] = s.Header.encodeByte()
		copy(blob[1:], s.Payload)
		blobs = append(blobs, blob)
	}
	blobs = append(blobs, commonBytes)
	return Envelope{Blobs: blobs}, nil
}

// Unbundle parses an audio bundle envelope back into its CommonHeader and
// per-sample entries.
func Unbundle(env Envelope) (AudioBundlePacket, error) {
	if len(env.Blobs) == 0 {
		return AudioBundlePacket{}, rtcerrors.NewMalformedError("wire.Unbundle", fmt.Errorf("audio bundle has no blobs"))
	}
	commonBytes := env.Blobs[len(env.Blobs)-1]
	common, err := decodeCommonHeader(commonBytes)
	if err != nil {
		return AudioBundlePacket{}, err
	}
	sampleBlobs := env.Blobs[:len(env.Blobs)-1]
	samples := make([]AudioSample, 0, len(sampleBlobs))
	for i, b := range sampleBlobs {
		if len(b) < audioSampleHeaderSize {
			return AudioBundlePacket{}, rtcerrors.NewMalformedError("wire.Unbundle", fmt.Errorf("sample %d blob too short", i))
		}
		samples = append(samples, AudioSample{
			Header:  decodeAudioSampleHeader(b[0]),
			Payload: b[audioSampleHeaderSize:],
		})
	}
	return AudioBundlePacket{Common: common, Samples: samples}, nil
}

// Slice packs the bundle into one or more Envelopes no larger than
// wireLength bytes of payload, greedily filling each segment's blob list
// before opening the next. Only the last segment carries the CommonHeader
// typed-header blob; callers that need it on every segment should encode
// a single-segment bundle per sample.
func (p AudioBundlePacket) Slice(wireLength int) ([]Envelope, error) {
	commonBytes, err := encodeStruct(p.Common.encode)
	if err != nil {
		return nil, err
	}

	var segments []Envelope
	var cur [][]byte
	curLen := 0
	flush := func() {
		if len(cur) == 0 {
			return
		}
		segments = append(segments, Envelope{Blobs: cur})
		cur = nil
		curLen = 0
	}
	for _, s := range p.Samples {
		blob := make([]byte, 1+len(s.Payload))
		blob[0] = s.Header.encodeByte()
		copy(blob[1:], s.Payload)
		// +2 accounts for the blob's own u16 length prefix on the wire.
		if curLen+len(blob)+2 > wireLength && len(cur) > 0 {
			flush()
		}
		cur = append(cur, blob)
		curLen += len(blob) + 2
	}
	flush()
	if len(segments) == 0 {
		segments = []Envelope{{}}
	}
	segments[len(segments)-1].Blobs = append(segments[len(segments)-1].Blobs, commonBytes)
	return segments, nil
}

// Merge reassembles a bundle from its received segments, in ascending
// segment-index order. Only the final segment is expected to carry the
// CommonHeader typed-header blob.
func Merge(segments []Envelope) (AudioBundlePacket, error) {
	if len(segments) == 0 {
		return AudioBundlePacket{}, rtcerrors.NewMalformedError("wire.Merge", fmt.Errorf("no audio segments to merge"))
	}
	last := segments[len(segments)-1]
	if len(last.Blobs) == 0 {
		return AudioBundlePacket{}, rtcerrors.NewMalformedError("wire.Merge", fmt.Errorf("final audio segment missing typed header"))
	}
	common, err := decodeCommonHeader(last.Blobs[len(last.Blobs)-1])
	if err != nil {
		return AudioBundlePacket{}, err
	}

	var samples []AudioSample
	for i, seg := range segments {
		blobs := seg.Blobs
		if i == len(segments)-1 {
			blobs = blobs[:len(blobs)-1]
		}
		for _, b := range blobs {
			if len(b) < audioSampleHeaderSize {
				return AudioBundlePacket{}, rtcerrors.NewMalformedError("wire.Merge", fmt.Errorf("segment %d carries a truncated sample blob", i))
			}
			samples = append(samples, AudioSample{
				Header:  decodeAudioSampleHeader(b[0]),
				Payload: b[audioSampleHeaderSize:],
			})
		}
	}
	return AudioBundlePacket{Common: common, Samples: samples}, nil
}
