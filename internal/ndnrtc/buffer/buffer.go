// Package buffer implements the sample buffer: the mapping from sample
// prefix to Slot, backed by a fixed-capacity slot.Pool (spec.md §4.4).
package buffer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	rtcerrors "github.com/ndnrtc-go/receiver/internal/errors"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/face"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/name"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/slot"
)

// Observer receives buffer lifecycle events. Implementations must not
// call back into any mutating Buffer method from within a callback —
// the buffer is not reentrant (spec.md §4.4).
type Observer interface {
	OnNewRequest(ref slot.Ref, s *slot.Slot)
	OnNewData(ref slot.Ref, s *slot.Slot, receipt slot.Receipt)
	OnReset()
}

// Buffer maps sample prefixes to pooled slots and serializes all
// mutating operations behind a single exclusive section (spec.md §4.4:
// "the buffer is a shared resource; all mutating operations take a
// buffer-wide exclusive section").
type Buffer struct {
	mu             sync.Mutex
	pool           *slot.Pool
	bySamplePrefix map[string]slot.Ref
	observers      []Observer
	inCallback     bool
	logger         *slog.Logger
}

// New builds a Buffer backed by a pool of the given capacity.
func New(capacity int, logger *slog.Logger) *Buffer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Buffer{
		pool:           slot.NewPool(capacity),
		bySamplePrefix: make(map[string]slot.Ref),
		logger:         logger,
	}
}

// Attach registers an observer. It takes the buffer-wide lock, so it
// must not be called from inside an observer callback.
func (b *Buffer) Attach(o Observer) {
	if o == nil {
		return
	}
	b.mu.Lock()
	b.observers = append(b.observers, o)
	b.mu.Unlock()
}

func (b *Buffer) emit(fn func(Observer)) {
	b.inCallback = true
	defer func() { b.inCallback = false }()
	for _, o := range b.observers {
		fn(o)
	}
}

func (b *Buffer) guardReentrant(op string) {
	if b.inCallback {
		panic("buffer: " + op + " called reentrantly from an observer callback")
	}
}

// interestGroup is one sample's worth of Interests to bind to a slot.
type interestGroup struct {
	prefix    name.Name
	info      name.NamespaceInfo
	names     []name.Name
	data      int
	parity    int
}

// Requested groups interests by sample prefix and binds each group to
// either an existing slot or a freshly popped one. It returns false
// (with PoolExhaustedError) if any new sample cannot obtain a slot;
// groups already bound are left requested.
func (b *Buffer) Requested(interests []face.Interest, now time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.guardReentrant("Requested")

	groups := make(map[string]*interestGroup)
	order := make([]string, 0)
	for _, it := range interests {
		info, err := name.Parse(it.Name)
		if err != nil {
			return false, err
		}
		prefix := name.SamplePrefixOf(info)
		key := prefix.String()
		g, ok := groups[key]
		if !ok {
			g = &interestGroup{prefix: prefix, info: info}
			groups[key] = g
			order = append(order, key)
		}
		g.names = append(g.names, it.Name)
		if info.SegClass == name.SegmentParity {
			g.parity++
		} else {
			g.data++
		}
	}

	for _, key := range order {
		g := groups[key]
		if ref, bound := b.bySamplePrefix[key]; bound {
			s := b.pool.Get(ref)
			for _, n := range g.names {
				s.AddSegmentToRequest(n)
			}
			continue
		}
		ref, err := b.pool.Pop()
		if err != nil {
			return false, rtcerrors.NewPoolExhaustedError("buffer.Requested")
		}
		s := b.pool.Get(ref)
		if err := s.Request(g.prefix, g.info, g.names, g.data, g.parity, now); err != nil {
			b.pool.Push(ref)
			return false, err
		}
		b.bySamplePrefix[key] = ref
		b.emit(func(o Observer) { o.OnNewRequest(ref, s) })
	}
	return true, nil
}

// Received locates the slot addressed by a wire segment's sample
// prefix and feeds it the segment. A segment for a prefix with no
// outstanding request is dropped (NotRequestedError), matching spec.md
// §4.5: "segment arrives for a prefix the buffer never requested;
// dropped."
func (b *Buffer) Received(seg slot.WireSegment, now time.Time, parityWeight float64) (slot.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.guardReentrant("Received")

	info, err := name.Parse(seg.SegName)
	if err != nil {
		return slot.Receipt{}, err
	}
	key := name.SamplePrefixOf(info).String()
	ref, bound := b.bySamplePrefix[key]
	if !bound {
		return slot.Receipt{}, rtcerrors.NewNotRequestedError("buffer.Received", fmt.Errorf("no outstanding request for %s", seg.SegName))
	}
	s := b.pool.Get(ref)
	if s.State == slot.StateFree {
		return slot.Receipt{}, rtcerrors.NewNotRequestedError("buffer.Received", fmt.Errorf("no outstanding request for %s", seg.SegName))
	}

	receipt, err := s.SegmentReceived(seg, now, parityWeight)
	if err != nil {
		return slot.Receipt{}, err
	}
	b.emit(func(o Observer) { o.OnNewData(ref, s, receipt) })
	return receipt, nil
}

// Lock toggles a Ready slot to Locked, making it opaque to further
// buffer mutation (I2) while the pipeliner hands its payload upstream.
func (b *Buffer) Lock(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ref, bound := b.bySamplePrefix[key]
	if !bound {
		return rtcerrors.NewNotRequestedError("buffer.Lock", fmt.Errorf("no slot bound to %s", key))
	}
	return b.pool.Get(ref).ToggleLock()
}

// Release returns a slot to the pool after its Locked payload has been
// consumed (playback queue pop, or eviction).
func (b *Buffer) Release(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ref, bound := b.bySamplePrefix[key]
	if !bound {
		return
	}
	delete(b.bySamplePrefix, key)
	b.pool.Push(ref)
}

// Reset releases every non-Locked slot back to the pool and emits
// OnReset.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.guardReentrant("Reset")

	for key, ref := range b.bySamplePrefix {
		s := b.pool.Get(ref)
		if s.State == slot.StateLocked {
			continue
		}
		delete(b.bySamplePrefix, key)
		b.pool.Push(ref)
	}
	b.emit(func(o Observer) { o.OnReset() })
}

// GetSlotsNum counts in-use slots in the given state. When prefix is
// non-empty only slots whose key has that string prefix are counted.
func (b *Buffer) GetSlotsNum(prefix string, state slot.State) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for key, ref := range b.bySamplePrefix {
		if prefix != "" && !hasKeyPrefix(key, prefix) {
			continue
		}
		if b.pool.Get(ref).State == state {
			count++
		}
	}
	return count
}

// Slot returns the slot bound to a sample prefix key, if any.
func (b *Buffer) Slot(key string) (*slot.Slot, slot.Ref, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ref, ok := b.bySamplePrefix[key]
	if !ok {
		return nil, 0, false
	}
	return b.pool.Get(ref), ref, true
}

// InUse reports how many slots are currently checked out of the pool.
func (b *Buffer) InUse() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pool.InUse()
}

func hasKeyPrefix(key, prefix string) bool {
	if len(prefix) > len(key) {
		return false
	}
	return key[:len(prefix)] == prefix
}
