package wire

import (
	"bytes"
	"testing"

	"github.com/matryer/is"
)

func makeShards(n, size int, seed byte) [][]byte {
	shards := make([][]byte, n)
	for i := range shards {
		shards[i] = bytes.Repeat([]byte{seed + byte(i)}, size)
	}
	return shards
}

func TestParityCount(t *testing.T) {
	is := is.New(t)
	is.Equal(ParityCount(10, 0.2), 2)
	is.Equal(ParityCount(10, 0.25), 3) // ceil(2.5) == 3
	is.Equal(ParityCount(1, 0.0), 0)
}

// TestFECRecoverability_P4 checks spec.md's P4: any D of D+R shards
// reconstructs bit-exactly, fewer than D fails.
func TestFECRecoverability_P4(t *testing.T) {
	is := is.New(t)
	const d, size = 10, 256
	data := makeShards(d, size, 1)

	parity, err := EncodeParity(data, size, 0.2)
	is.NoErr(err)
	r := len(parity)
	is.Equal(r, ParityCount(d, 0.2))

	all := append(append([][]byte{}, data...), parity...)

	// Drop exactly one data shard; reconstruction must still succeed.
	present := append([][]byte{}, all...)
	present[4] = nil
	rebuilt, err := Reconstruct(present, d, r)
	is.NoErr(err)
	for i := range data {
		is.True(bytes.Equal(rebuilt[i], data[i]))
	}

	// Drop r+1 shards total (more than parity can cover): reconstruction fails.
	present2 := append([][]byte{}, all...)
	for i := 0; i <= r; i++ {
		present2[i] = nil
	}
	_, err = Reconstruct(present2, d, r)
	is.True(err != nil)
}

func TestEncodeParityRejectsMismatchedShardLength(t *testing.T) {
	is := is.New(t)
	data := [][]byte{make([]byte, 10), make([]byte, 11)}
	_, err := EncodeParity(data, 10, 0.5)
	is.True(err != nil)
}

func TestEncodeParityRejectsEmptyInput(t *testing.T) {
	is := is.New(t)
	_, err := EncodeParity(nil, 10, 0.5)
	is.True(err != nil)
}
