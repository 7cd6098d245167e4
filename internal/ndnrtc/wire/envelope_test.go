package wire

import (
	"bytes"
	"testing"

	"github.com/matryer/is"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	is := is.New(t)
	env := Envelope{
		Blobs:   [][]byte{[]byte("hello"), {0x01, 0x02, 0x03}},
		Payload: bytes.Repeat([]byte{0xAB}, 17),
	}
	wireForm, err := env.Encode()
	is.NoErr(err)

	got, err := DecodeEnvelope(wireForm)
	is.NoErr(err)
	is.Equal(len(got.Blobs), 2)
	is.True(bytes.Equal(got.Blobs[0], []byte("hello")))
	is.True(bytes.Equal(got.Blobs[1], []byte{0x01, 0x02, 0x03}))
	is.True(bytes.Equal(got.Payload, env.Payload))
}

func TestEnvelopeRoundTripNoBlobs(t *testing.T) {
	is := is.New(t)
	env := Envelope{Payload: []byte("just payload")}
	wireForm, err := env.Encode()
	is.NoErr(err)

	got, err := DecodeEnvelope(wireForm)
	is.NoErr(err)
	is.Equal(len(got.Blobs), 0)
	is.True(bytes.Equal(got.Payload, env.Payload))
}

func TestEnvelopeTypedHeader(t *testing.T) {
	is := is.New(t)
	env := Envelope{Blobs: [][]byte{[]byte("a"), []byte("header")}}
	hdr, ok := env.TypedHeader()
	is.True(ok)
	is.True(bytes.Equal(hdr, []byte("header")))

	empty := Envelope{}
	_, ok = empty.TypedHeader()
	is.True(!ok)
}

func TestDecodeEnvelopeRejectsTruncatedBuffer(t *testing.T) {
	is := is.New(t)
	_, err := DecodeEnvelope([]byte{2, 0, 5}) // first blob's LE length field is 0x0500 (1280), no bytes follow
	is.True(err != nil)
}

func TestDecodeEnvelopeRejectsEmptyBuffer(t *testing.T) {
	is := is.New(t)
	_, err := DecodeEnvelope(nil)
	is.True(err != nil)
}

func TestCRC16Deterministic(t *testing.T) {
	is := is.New(t)
	a := CRC16([]byte("some wire form bytes"))
	b := CRC16([]byte("some wire form bytes"))
	is.Equal(a, b)

	c := CRC16([]byte("different bytes"))
	is.True(a != c)
}
