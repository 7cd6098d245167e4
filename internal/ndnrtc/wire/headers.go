package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/icza/bitio"

	rtcerrors "github.com/ndnrtc-go/receiver/internal/errors"
)

// SegmentHeader is the fixed-size header every segment envelope carries
// (spec.md §6). All multi-byte integers are little-endian; the struct is
// packed (no implicit padding) on the wire.
type SegmentHeader struct {
	InterestNonce     int32
	InterestArrivalMs float64
	GenerationDelayMs float64
}

const segmentHeaderSize = 4 + 8 + 8

func (h SegmentHeader) encode(bw *bitio.Writer) error {
	if err := writeInt32(bw, h.InterestNonce); err != nil {
		return err
	}
	if err := writeFloat64(bw, h.InterestArrivalMs); err != nil {
		return err
	}
	return writeFloat64(bw, h.GenerationDelayMs)
}

func decodeSegmentHeader(b []byte) (SegmentHeader, error) {
	if len(b) != segmentHeaderSize {
		return SegmentHeader{}, rtcerrors.NewMalformedError("wire.decodeSegmentHeader", fmt.Errorf("want %d bytes, got %d", segmentHeaderSize, len(b)))
	}
	return SegmentHeader{
		InterestNonce:     int32(binary.LittleEndian.Uint32(b[0:4])),
		InterestArrivalMs: math.Float64frombits(binary.LittleEndian.Uint64(b[4:12])),
		GenerationDelayMs: math.Float64frombits(binary.LittleEndian.Uint64(b[12:20])),
	}, nil
}

// VideoFrameSegmentHeader extends SegmentHeader with the video frame
// coordinates needed to reassemble and order samples.
type VideoFrameSegmentHeader struct {
	SegmentHeader
	TotalSegments  int32
	PlaybackNo     int32
	PairedSampleNo int32
	ParitySegments int32
}

const videoFrameSegmentHeaderSize = segmentHeaderSize + 4*4

func (h VideoFrameSegmentHeader) encode(bw *bitio.Writer) error {
	if err := h.SegmentHeader.encode(bw); err != nil {
		return err
	}
	for _, v := range []int32{h.TotalSegments, h.PlaybackNo, h.PairedSampleNo, h.ParitySegments} {
		if err := writeInt32(bw, v); err != nil {
			return err
		}
	}
	return nil
}

func decodeVideoFrameSegmentHeader(b []byte) (VideoFrameSegmentHeader, error) {
	if len(b) != videoFrameSegmentHeaderSize {
		return VideoFrameSegmentHeader{}, rtcerrors.NewMalformedError("wire.decodeVideoFrameSegmentHeader", fmt.Errorf("want %d bytes, got %d", videoFrameSegmentHeaderSize, len(b)))
	}
	seg, err := decodeSegmentHeader(b[:segmentHeaderSize])
	if err != nil {
		return VideoFrameSegmentHeader{}, err
	}
	rest := b[segmentHeaderSize:]
	return VideoFrameSegmentHeader{
		SegmentHeader:  seg,
		TotalSegments:  int32(binary.LittleEndian.Uint32(rest[0:4])),
		PlaybackNo:     int32(binary.LittleEndian.Uint32(rest[4:8])),
		PairedSampleNo: int32(binary.LittleEndian.Uint32(rest[8:12])),
		ParitySegments: int32(binary.LittleEndian.Uint32(rest[12:16])),
	}, nil
}

// DecodeVideoFrameSegmentHeader decodes a segment envelope's typed
// header blob as a VideoFrameSegmentHeader. Exported for the segment
// controller glue layer, which must read PlaybackNo/PairedSampleNo and
// the interest-nonce echo before a segment can be handed to the
// buffer.
func DecodeVideoFrameSegmentHeader(blob []byte) (VideoFrameSegmentHeader, error) {
	return decodeVideoFrameSegmentHeader(blob)
}

// CommonHeader is the typed header of an audio bundle packet.
type CommonHeader struct {
	SampleRate             float64
	PublishTimestampMs     int64
	PublishUnixTimestampMs float64
}

const commonHeaderSize = 8 + 8 + 8

func (h CommonHeader) encode(bw *bitio.Writer) error {
	if err := writeFloat64(bw, h.SampleRate); err != nil {
		return err
	}
	if err := writeInt64(bw, h.PublishTimestampMs); err != nil {
		return err
	}
	return writeFloat64(bw, h.PublishUnixTimestampMs)
}

func decodeCommonHeader(b []byte) (CommonHeader, error) {
	if len(b) != commonHeaderSize {
		return CommonHeader{}, rtcerrors.NewMalformedError("wire.decodeCommonHeader", fmt.Errorf("want %d bytes, got %d", commonHeaderSize, len(b)))
	}
	return CommonHeader{
		SampleRate:             math.Float64frombits(binary.LittleEndian.Uint64(b[0:8])),
		PublishTimestampMs:     int64(binary.LittleEndian.Uint64(b[8:16])),
		PublishUnixTimestampMs: math.Float64frombits(binary.LittleEndian.Uint64(b[16:24])),
	}, nil
}

// AudioSampleHeader precedes each audio sample blob inside a bundle payload.
type AudioSampleHeader struct {
	IsRtcp bool
}

const audioSampleHeaderSize = 1

func decodeAudioSampleHeader(b byte) AudioSampleHeader { return AudioSampleHeader{IsRtcp: b != 0} }

func (h AudioSampleHeader) encodeByte() byte {
	if h.IsRtcp {
		return 1
	}
	return 0
}

// VideoFrameTypedHeader is the typed header of a video frame packet.
type VideoFrameTypedHeader struct {
	EncodedWidth  uint32
	EncodedHeight uint32
	Timestamp     uint32
	CaptureTimeMs int64
	FrameType     FrameType
	CompleteFrame bool
	FrameLength   uint32
}

// FrameType distinguishes key and delta video frames at the wire level.
type FrameType uint8

const (
	FrameTypeKey   FrameType = 0
	FrameTypeDelta FrameType = 1
)

const videoFrameTypedHeaderSize = 4 + 4 + 4 + 8 + 1 + 1 + 4

func (h VideoFrameTypedHeader) encode(bw *bitio.Writer) error {
	for _, v := range []uint32{h.EncodedWidth, h.EncodedHeight, h.Timestamp} {
		if err := writeUint32(bw, v); err != nil {
			return err
		}
	}
	if err := writeInt64(bw, h.CaptureTimeMs); err != nil {
		return err
	}
	if err := bw.WriteByte(byte(h.FrameType)); err != nil {
		return err
	}
	var complete byte
	if h.CompleteFrame {
		complete = 1
	}
	if err := bw.WriteByte(complete); err != nil {
		return err
	}
	return writeUint32(bw, h.FrameLength)
}

func decodeVideoFrameTypedHeader(b []byte) (VideoFrameTypedHeader, error) {
	if len(b) != videoFrameTypedHeaderSize {
		return VideoFrameTypedHeader{}, rtcerrors.NewMalformedError("wire.decodeVideoFrameTypedHeader", fmt.Errorf("want %d bytes, got %d", videoFrameTypedHeaderSize, len(b)))
	}
	return VideoFrameTypedHeader{
		EncodedWidth:  binary.LittleEndian.Uint32(b[0:4]),
		EncodedHeight: binary.LittleEndian.Uint32(b[4:8]),
		Timestamp:     binary.LittleEndian.Uint32(b[8:12]),
		CaptureTimeMs: int64(binary.LittleEndian.Uint64(b[12:20])),
		FrameType:     FrameType(b[20]),
		CompleteFrame: b[21] != 0,
		FrameLength:   binary.LittleEndian.Uint32(b[22:26]),
	}, nil
}

// encodeStruct is a small helper that runs an encode closure through a
// fresh bitio.Writer and returns the flushed bytes.
func encodeStruct(fn func(*bitio.Writer) error) ([]byte, error) {
	buf := new(bytes.Buffer)
	bw := bitio.NewWriter(buf)
	if err := fn(bw); err != nil {
		return nil, err
	}
	if err := bw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeUint32 and writeUint64 write their argument little-endian, byte
// by byte, the same way envelope.go writes the blob length field:
// bitio.Writer.WriteBits packs MSB-first (big-endian), so fixed-width
// integers must go through encoding/binary first to land little-endian
// on the wire as spec.md §6 requires.
func writeUint32(bw *bitio.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := bw.Write(b[:])
	return err
}

func writeUint64(bw *bitio.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := bw.Write(b[:])
	return err
}

func writeInt32(bw *bitio.Writer, v int32) error { return writeUint32(bw, uint32(v)) }

func writeInt64(bw *bitio.Writer, v int64) error { return writeUint64(bw, uint64(v)) }

func writeFloat64(bw *bitio.Writer, v float64) error { return writeUint64(bw, math.Float64bits(v)) }
