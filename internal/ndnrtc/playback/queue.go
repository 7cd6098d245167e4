// Package playback implements the playback queue: slots ordered by
// playback number, ready to be popped and delivered by the playout
// clock (spec.md §4.9).
package playback

import (
	"sort"
	"sync"

	"github.com/ndnrtc-go/receiver/internal/ndnrtc/slot"
)

// Observer receives playback-queue lifecycle events.
type Observer interface {
	OnNewSampleReady(key string)
	OnNewSampleRequested(key string)
}

// Entry is one queued slot, keyed by its sample prefix.
type Entry struct {
	Key          string
	Slot         *slot.Slot
	Ref          slot.Ref
	PlaybackNo   int32
	PairedSample int32
	IsKey        bool
}

// Queue holds all non-Free slots from a stream, indexed by playback
// order. It never blocks on a gap: missing playback numbers are simply
// absent from the ordering (spec.md §4.9).
type Queue struct {
	mu        sync.Mutex
	entries   map[string]*Entry
	observers []Observer
}

// New builds an empty Queue.
func New() *Queue {
	return &Queue{entries: make(map[string]*Entry)}
}

// Attach registers an observer.
func (q *Queue) Attach(o Observer) {
	q.mu.Lock()
	q.observers = append(q.observers, o)
	q.mu.Unlock()
}

// Requested records that a sample has been requested, before any of
// its segments have arrived.
func (q *Queue) Requested(key string, s *slot.Slot, ref slot.Ref, playbackNo, pairedSample int32, isKey bool) {
	q.mu.Lock()
	q.entries[key] = &Entry{Key: key, Slot: s, Ref: ref, PlaybackNo: playbackNo, PairedSample: pairedSample, IsKey: isKey}
	obs := append([]Observer(nil), q.observers...)
	q.mu.Unlock()
	for _, o := range obs {
		o.OnNewSampleRequested(key)
	}
}

// MarkReady notifies attached observers that a previously requested
// sample's slot reached Ready.
func (q *Queue) MarkReady(key string) {
	q.mu.Lock()
	obs := append([]Observer(nil), q.observers...)
	q.mu.Unlock()
	for _, o := range obs {
		o.OnNewSampleReady(key)
	}
}

// UpdateOrdering refines a previously requested entry's playback
// coordinates once they become known (the video frame header only
// arrives with segment 0). It does not emit any event.
func (q *Queue) UpdateOrdering(key string, playbackNo, pairedSample int32, isKey bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[key]
	if !ok {
		return
	}
	e.PlaybackNo = playbackNo
	e.PairedSample = pairedSample
	e.IsKey = isKey
}

// Detach removes a key from the queue (eviction or after pop's caller
// has released the slot).
func (q *Queue) Detach(key string) {
	q.mu.Lock()
	delete(q.entries, key)
	q.mu.Unlock()
}

// ordered returns entries sorted by playback order: ascending playback
// number, with a key frame sorting before a delta that has the same
// playback number. PairedSample is not consulted, and the order of two
// entries of the same class with equal playback numbers is not defined.
func (q *Queue) ordered() []*Entry {
	out := make([]*Entry, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PlaybackNo != b.PlaybackNo {
			return a.PlaybackNo < b.PlaybackNo
		}
		return a.IsKey && !b.IsKey
	})
	return out
}

// Pop returns the next Ready slot in playback order and transitions it
// to Locked, or ok == false if none are ready. Non-Ready entries ahead
// of a Ready one do not block it (spec.md §4.9: "the queue never
// blocks on a gap").
func (q *Queue) Pop() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.ordered() {
		if e.Slot.State != slot.StateReady {
			continue
		}
		if err := e.Slot.ToggleLock(); err != nil {
			continue
		}
		delete(q.entries, e.Key)
		return *e, true
	}
	return Entry{}, false
}

// Size reports the playable size, in milliseconds, of Ready slots at
// the producer's current sample period.
func (q *Queue) Size(samplePeriodMs float64) float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, e := range q.entries {
		if e.Slot.State == slot.StateReady {
			n++
		}
	}
	return float64(n) * samplePeriodMs
}

// PendingSize reports the not-yet-ready size, in milliseconds, at the
// producer's current sample period.
func (q *Queue) PendingSize(samplePeriodMs float64) float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, e := range q.entries {
		if e.Slot.State != slot.StateReady && e.Slot.State != slot.StateLocked {
			n++
		}
	}
	return float64(n) * samplePeriodMs
}

// Len reports the number of entries currently tracked.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
