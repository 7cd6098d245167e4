// Package fake provides in-memory test doubles for face.Face: a
// DataCache standing in for a producer's content store, and a
// DelayQueue simulating asynchronous network delivery, per the contract
// spec.md §9 fixes for tests: "DelayQueue schedules a callback after a
// random jitter in [delay-dev, delay+dev] ms on the shared dispatcher;
// DataCache matches Interests to pre-stored Data objects by exact name."
package fake

import (
	"math/rand"
	"sync"
	"time"

	"github.com/ndnrtc-go/receiver/internal/ndnrtc/dispatch"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/face"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/name"
)

// DataCache stores Data objects keyed by their exact name, standing in
// for a producer's memory content cache.
type DataCache struct {
	mu    sync.RWMutex
	byKey map[string]face.Data
}

// NewDataCache builds an empty DataCache.
func NewDataCache() *DataCache {
	return &DataCache{byKey: make(map[string]face.Data)}
}

// Put stores d, keyed by its exact name.
func (c *DataCache) Put(d face.Data) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey[d.Name.String()] = d
}

// Get looks up a Data object by exact name.
func (c *DataCache) Get(n name.Name) (face.Data, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byKey[n.String()]
	return d, ok
}

// DelayQueue schedules callbacks after a random jitter in
// [delay-dev, delay+dev], posting them onto a shared dispatch.Loop so
// every delivered callback still runs on the single receiver goroutine.
type DelayQueue struct {
	loop *dispatch.Loop
	rng  *rand.Rand
	mu   sync.Mutex
}

// NewDelayQueue builds a DelayQueue that posts fired callbacks onto loop.
func NewDelayQueue(loop *dispatch.Loop) *DelayQueue {
	return &DelayQueue{loop: loop, rng: rand.New(rand.NewSource(1))}
}

// Schedule fires fn once after a jitter uniformly distributed over
// [delay-dev, delay+dev], clamped to a minimum of zero.
func (q *DelayQueue) Schedule(delay, dev time.Duration, fn func()) {
	lo := delay - dev
	if lo < 0 {
		lo = 0
	}
	hi := delay + dev
	span := hi - lo
	jitter := lo
	if span > 0 {
		q.mu.Lock()
		jitter = lo + time.Duration(q.rng.Int63n(int64(span)+1))
		q.mu.Unlock()
	}
	time.AfterFunc(jitter, func() { q.loop.Post(fn) })
}

// Face is a Face implementation backed by a DataCache and a DelayQueue:
// Express looks up the Interest's name in the cache and, if present,
// delivers it after jitter; otherwise it times the Interest out at its
// LifetimeMs. It is intended for deterministic, self-contained tests of
// components above the transport boundary.
type Face struct {
	Cache      *DataCache
	Delay, Dev time.Duration
	Queue      *DelayQueue
}

// NewFace builds a Face wired to the given cache and jitter parameters.
func NewFace(loop *dispatch.Loop, cache *DataCache, delay, dev time.Duration) *Face {
	return &Face{Cache: cache, Delay: delay, Dev: dev, Queue: NewDelayQueue(loop)}
}

func (f *Face) Express(interest face.Interest, onData func(face.Interest, face.Data), onTimeout func(face.Interest)) error {
	d, ok := f.Cache.Get(interest.Name)
	if !ok {
		lifetime := time.Duration(interest.LifetimeMs) * time.Millisecond
		f.Queue.Schedule(lifetime, 0, func() {
			if onTimeout != nil {
				onTimeout(interest)
			}
		})
		return nil
	}
	f.Queue.Schedule(f.Delay, f.Dev, func() {
		if onData != nil {
			onData(interest, d)
		}
	})
	return nil
}

var _ face.Face = (*Face)(nil)
