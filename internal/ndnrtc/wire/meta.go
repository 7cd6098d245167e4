package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/icza/bitio"

	rtcerrors "github.com/ndnrtc-go/receiver/internal/errors"
)

// StreamMeta lists a stream's threads and any sibling streams it should
// be kept in sync with (spec.md §3, "Meta packets").
type StreamMeta struct {
	Threads     []string
	SyncStreams []string
}

// Bundle serializes StreamMeta as one blob per thread name, one blob per
// sync-stream name, and a single separator byte payload marking where the
// thread list ends.
func (m StreamMeta) Bundle() Envelope {
	blobs := make([][]byte, 0, len(m.Threads)+len(m.SyncStreams))
	for _, t := range m.Threads {
		blobs = append(blobs, []byte(t))
	}
	for _, s := range m.SyncStreams {
		blobs = append(blobs, []byte(s))
	}
	payload := make([]byte, 1)
	payload[0] = byte(len(m.Threads))
	return Envelope{Blobs: blobs, Payload: payload}
}

// ParseStreamMeta is the inverse of Bundle.
func ParseStreamMeta(env Envelope) (StreamMeta, error) {
	if len(env.Payload) != 1 {
		return StreamMeta{}, rtcerrors.NewMalformedError("wire.ParseStreamMeta", fmt.Errorf("missing thread-count marker"))
	}
	n := int(env.Payload[0])
	if n > len(env.Blobs) {
		return StreamMeta{}, rtcerrors.NewMalformedError("wire.ParseStreamMeta", fmt.Errorf("thread count %d exceeds %d blobs", n, len(env.Blobs)))
	}
	m := StreamMeta{}
	for i, b := range env.Blobs {
		if i < n {
			m.Threads = append(m.Threads, string(b))
		} else {
			m.SyncStreams = append(m.SyncStreams, string(b))
		}
	}
	return m, nil
}

// AudioThreadMeta describes an audio thread's producer-side parameters.
type AudioThreadMeta struct {
	Rate  float64
	Codec string
}

func (m AudioThreadMeta) Bundle() (Envelope, error) {
	rateBytes, err := encodeStruct(func(bw *bitio.Writer) error { return writeFloat64(bw, m.Rate) })
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Blobs: [][]byte{rateBytes}, Payload: []byte(m.Codec)}, nil
}

func ParseAudioThreadMeta(env Envelope) (AudioThreadMeta, error) {
	if len(env.Blobs) != 1 || len(env.Blobs[0]) != 8 {
		return AudioThreadMeta{}, rtcerrors.NewMalformedError("wire.ParseAudioThreadMeta", fmt.Errorf("missing rate blob"))
	}
	return AudioThreadMeta{
		Rate:  math.Float64frombits(binary.LittleEndian.Uint64(env.Blobs[0])),
		Codec: string(env.Payload),
	}, nil
}

// FrameSegmentsInfo carries the bootstrap averages the sample estimator
// seeds itself from (spec.md §4.7, "Bootstrap methods accept initial
// values from thread meta").
type FrameSegmentsInfo struct {
	DeltaAvgSegNum       float64
	DeltaAvgParitySegNum float64
	KeyAvgSegNum         float64
	KeyAvgParitySegNum   float64
}

// VideoCoderParams are the producer's encoder settings, carried so the
// consumer can size its frame buffer ahead of the first decoded frame.
type VideoCoderParams struct {
	Bitrate       uint32
	Width, Height uint32
}

// VideoThreadMeta describes a video thread's producer-side parameters:
// rate, GOP size, segment-count bootstrap averages, and coder params.
type VideoThreadMeta struct {
	Rate    float64
	Gop     uint32
	SegInfo FrameSegmentsInfo
	Coder   VideoCoderParams
}

const videoThreadMetaSize = 8 + 4 + 4 + 4 + 4 + 8*4

func (m VideoThreadMeta) encode(bw *bitio.Writer) error {
	if err := writeFloat64(bw, m.Rate); err != nil {
		return err
	}
	for _, v := range []uint32{m.Gop, m.Coder.Bitrate, m.Coder.Width, m.Coder.Height} {
		if err := writeUint32(bw, v); err != nil {
			return err
		}
	}
	for _, v := range []float64{m.SegInfo.DeltaAvgSegNum, m.SegInfo.DeltaAvgParitySegNum, m.SegInfo.KeyAvgSegNum, m.SegInfo.KeyAvgParitySegNum} {
		if err := writeFloat64(bw, v); err != nil {
			return err
		}
	}
	return nil
}

func (m VideoThreadMeta) Bundle() (Envelope, error) {
	b, err := encodeStruct(m.encode)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Blobs: [][]byte{b}}, nil
}

func ParseVideoThreadMeta(env Envelope) (VideoThreadMeta, error) {
	if len(env.Blobs) != 1 || len(env.Blobs[0]) != videoThreadMetaSize {
		return VideoThreadMeta{}, rtcerrors.NewMalformedError("wire.ParseVideoThreadMeta", fmt.Errorf("malformed video thread meta blob"))
	}
	b := env.Blobs[0]
	return VideoThreadMeta{
		Rate: math.Float64frombits(binary.LittleEndian.Uint64(b[0:8])),
		Gop:  binary.LittleEndian.Uint32(b[8:12]),
		Coder: VideoCoderParams{
			Bitrate: binary.LittleEndian.Uint32(b[12:16]),
			Width:   binary.LittleEndian.Uint32(b[16:20]),
			Height:  binary.LittleEndian.Uint32(b[20:24]),
		},
		SegInfo: FrameSegmentsInfo{
			DeltaAvgSegNum:       math.Float64frombits(binary.LittleEndian.Uint64(b[24:32])),
			DeltaAvgParitySegNum: math.Float64frombits(binary.LittleEndian.Uint64(b[32:40])),
			KeyAvgSegNum:         math.Float64frombits(binary.LittleEndian.Uint64(b[40:48])),
			KeyAvgParitySegNum:   math.Float64frombits(binary.LittleEndian.Uint64(b[48:56])),
		},
	}, nil
}

// Manifest stores a CRC-16 digest per Data object in a set, letting a
// receiver check whether a given object belongs to the set it describes
// without re-fetching the whole set.
type Manifest struct {
	Digests []uint16
}

// NewManifest computes one CRC16 digest per supplied wire-form Data
// object.
func NewManifest(dataObjects [][]byte) Manifest {
	m := Manifest{Digests: make([]uint16, len(dataObjects))}
	for i, d := range dataObjects {
		m.Digests[i] = CRC16(d)
	}
	return m
}

// HasData reports whether the given wire-form Data object's digest
// appears in the manifest.
func (m Manifest) HasData(data []byte) bool {
	want := CRC16(data)
	for _, d := range m.Digests {
		if d == want {
			return true
		}
	}
	return false
}

// Size returns the number of data objects this manifest describes.
func (m Manifest) Size() int { return len(m.Digests) }

func (m Manifest) Bundle() Envelope {
	payload := make([]byte, 2*len(m.Digests))
	for i, d := range m.Digests {
		binary.LittleEndian.PutUint16(payload[i*2:], d)
	}
	return Envelope{Payload: payload}
}

func ParseManifest(env Envelope) (Manifest, error) {
	if len(env.Payload)%2 != 0 {
		return Manifest{}, rtcerrors.NewMalformedError("wire.ParseManifest", fmt.Errorf("odd-length digest payload"))
	}
	m := Manifest{Digests: make([]uint16, len(env.Payload)/2)}
	for i := range m.Digests {
		m.Digests[i] = binary.LittleEndian.Uint16(env.Payload[i*2:])
	}
	return m, nil
}
