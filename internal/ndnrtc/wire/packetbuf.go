// Package wire serializes and parses the NDN-RTC on-wire packet
// families: the DataPacket envelope, segment headers, video frame and
// audio bundle packets, FEC parity, and the meta/manifest packets
// (spec.md §3, §4.1, §6).
package wire

// PacketBuf is a tagged union standing in for the source's two parallel
// NetworkDataT<Mutable|Immutable> specializations (spec.md §9): Owned
// backs a packet under construction on the producer side, Shared backs
// an immutable, cheaply-copyable view of bytes received off the wire.
// Both expose the same Bytes() accessor so codec code never needs to
// know which one it holds.
type PacketBuf struct {
	owned  []byte
	shared *[]byte
}

// Owned wraps a freshly-built, exclusively-owned byte slice.
func Owned(b []byte) PacketBuf { return PacketBuf{owned: b} }

// Shared wraps a byte slice backing that may be shared across many
// lightweight copies of a received packet (all Segments sliced out of
// the same Data Content ultimately point at one allocation).
func Shared(b *[]byte) PacketBuf { return PacketBuf{shared: b} }

// Bytes returns the underlying bytes regardless of which variant is held.
func (p PacketBuf) Bytes() []byte {
	if p.shared != nil {
		return *p.shared
	}
	return p.owned
}

// Len is a convenience accessor.
func (p PacketBuf) Len() int { return len(p.Bytes()) }

// IsShared reports whether this buffer is the Shared (consumer-side) variant.
func (p PacketBuf) IsShared() bool { return p.shared != nil }
