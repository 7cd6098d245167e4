package wire

import (
	"fmt"
	"math"

	"github.com/klauspost/reedsolomon"

	rtcerrors "github.com/ndnrtc-go/receiver/internal/errors"
)

// ParityCount computes ⌈ratio·D⌉, the parity-segment count for D data
// segments (spec.md §4.1).
func ParityCount(d int, ratio float64) int {
	return int(math.Ceil(ratio * float64(d)))
}

// EncodeParity computes ParityCount(len(data), ratio) parity shards of
// wireLength bytes over the given data shards using a systematic
// Reed-Solomon code over GF(2⁸). Every data shard must already be padded
// to wireLength bytes.
func EncodeParity(data [][]byte, wireLength int, ratio float64) ([][]byte, error) {
	d := len(data)
	if d == 0 {
		return nil, fmt.Errorf("wire: EncodeParity needs at least one data shard")
	}
	r := ParityCount(d, ratio)
	if r == 0 {
		return nil, nil
	}
	enc, err := reedsolomon.New(d, r)
	if err != nil {
		return nil, fmt.Errorf("wire: reedsolomon.New: %w", err)
	}
	shards := make([][]byte, d+r)
	for i, b := range data {
		if len(b) != wireLength {
			return nil, fmt.Errorf("wire: data shard %d has length %d, want %d", i, len(b), wireLength)
		}
		shards[i] = b
	}
	for i := d; i < d+r; i++ {
		shards[i] = make([]byte, wireLength)
	}
	if err := enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("wire: reedsolomon encode: %w", err)
	}
	return shards[d:], nil
}

// Reconstruct rebuilds the D original data shards given any D of the D+R
// total shards in a systematic RS(D+R, D) codeword (spec.md P4). present[i]
// is nil for a shard that was never received; reconstruction succeeds iff
// at least D of the D+R entries are non-nil.
func Reconstruct(present [][]byte, d, r int) ([][]byte, error) {
	if len(present) != d+r {
		return nil, fmt.Errorf("wire: Reconstruct needs %d shards, got %d", d+r, len(present))
	}
	have := 0
	for _, s := range present {
		if s != nil {
			have++
		}
	}
	if have < d {
		return nil, rtcerrors.NewMalformedError("wire.Reconstruct", fmt.Errorf("only %d of %d required shards present", have, d))
	}
	enc, err := reedsolomon.New(d, r)
	if err != nil {
		return nil, fmt.Errorf("wire: reedsolomon.New: %w", err)
	}
	shards := make([][]byte, d+r)
	copy(shards, present)
	if err := enc.Reconstruct(shards); err != nil {
		return nil, fmt.Errorf("wire: reedsolomon reconstruct: %w", err)
	}
	return shards[:d], nil
}
