package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/hashutil/crc16"

	rtcerrors "github.com/ndnrtc-go/receiver/internal/errors"
)

// maxBlobs bounds the leading count byte; it can never exceed 255 since
// the wire format dedicates a single byte to it.
const maxBlobs = 255

// Envelope is the DataPacket wire container (spec.md §6):
//
//	u8  blob_count
//	for i in 0..blob_count: u16 LE length_i; u8[length_i] blob_i
//	u8[] payload
//
// The final blob, when present and sized to a fixed structure type, acts
// as that packet family's typed header (spec.md §3).
type Envelope struct {
	Blobs   [][]byte
	Payload []byte
}

// Encode serializes the envelope bit-exactly. The bit-level writer
// mirrors the producer-side encoder in the teacher corpus (mewkiz-flac's
// enc.go / enc_frame.go use bitio.Writer to emit packed frame headers);
// every field here is byte-aligned, so only whole bytes are written
// (WriteByte and Write).
func (e Envelope) Encode() ([]byte, error) {
	if len(e.Blobs) > maxBlobs {
		return nil, fmt.Errorf("wire: too many blobs (%d > %d)", len(e.Blobs), maxBlobs)
	}
	buf := new(bytes.Buffer)
	bw := bitio.NewWriter(buf)

	if err := bw.WriteByte(byte(len(e.Blobs))); err != nil {
		return nil, err
	}
	var lenField [2]byte
	for _, b := range e.Blobs {
		if len(b) > 0xFFFF {
			return nil, fmt.Errorf("wire: blob too large (%d bytes)", len(b))
		}
		binary.LittleEndian.PutUint16(lenField[:], uint16(len(b)))
		if _, err := bw.Write(lenField[:]); err != nil {
			return nil, err
		}
		if _, err := bw.Write(b); err != nil {
			return nil, err
		}
	}
	if _, err := bw.Write(e.Payload); err != nil {
		return nil, err
	}
	if err := bw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeEnvelope parses the DataPacket envelope from raw wire bytes.
// Byte-aligned fields are read directly with encoding/binary, matching
// the teacher's own decode-side style (internal/rtmp/chunk/header.go).
func DecodeEnvelope(buf []byte) (Envelope, error) {
	if len(buf) < 1 {
		return Envelope{}, rtcerrors.NewMalformedError("wire.DecodeEnvelope", io.ErrUnexpectedEOF)
	}
	count := int(buf[0])
	pos := 1
	blobs := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		if pos+2 > len(buf) {
			return Envelope{}, rtcerrors.NewMalformedError("wire.DecodeEnvelope", fmt.Errorf("blob %d length header overflows buffer", i))
		}
		l := int(binary.LittleEndian.Uint16(buf[pos : pos+2]))
		pos += 2
		if pos+l > len(buf) {
			return Envelope{}, rtcerrors.NewMalformedError("wire.DecodeEnvelope", fmt.Errorf("blob %d overflows buffer", i))
		}
		blobs = append(blobs, buf[pos:pos+l])
		pos += l
	}
	return Envelope{Blobs: blobs, Payload: buf[pos:]}, nil
}

// TypedHeader returns the final blob if present, the family's typed
// header slot per spec.md §3.
func (e Envelope) TypedHeader() ([]byte, bool) {
	if len(e.Blobs) == 0 {
		return nil, false
	}
	return e.Blobs[len(e.Blobs)-1], true
}

// CRC16 computes the diagnostic CRC-16 over an entire wire form,
// reusing the same checksum mewkiz-flac verifies its frame footers with
// (frame/frame.go, github.com/mewkiz/pkg/hashutil/crc16).
func CRC16(wireForm []byte) uint16 {
	return crc16.ChecksumIBM(wireForm)
}
