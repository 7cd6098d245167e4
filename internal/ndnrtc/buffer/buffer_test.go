package buffer

import (
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/ndnrtc-go/receiver/internal/ndnrtc/face"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/name"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/slot"
)

func threadPrefix() name.Name {
	base := name.Name{name.Comp("p")}
	stream := name.StreamPrefix(base, name.MediaVideo, "camera")
	return name.ThreadPrefix(stream, "hi")
}

func deltaInterests(thread name.Name, sampleNo uint64, n int) []face.Interest {
	samplePrefix := name.SamplePrefix(thread, name.SampleDelta, sampleNo)
	out := make([]face.Interest, n)
	for i := 0; i < n; i++ {
		out[i] = face.Interest{Name: name.SegmentName(samplePrefix, name.SegmentData, uint64(i)), LifetimeMs: 1000}
	}
	return out
}

type recordingObserver struct {
	mu         sync.Mutex
	requests   int
	dataEvents int
	resets     int
}

func (r *recordingObserver) OnNewRequest(ref slot.Ref, s *slot.Slot) {
	r.mu.Lock()
	r.requests++
	r.mu.Unlock()
}

func (r *recordingObserver) OnNewData(ref slot.Ref, s *slot.Slot, receipt slot.Receipt) {
	r.mu.Lock()
	r.dataEvents++
	r.mu.Unlock()
}

func (r *recordingObserver) OnReset() {
	r.mu.Lock()
	r.resets++
	r.mu.Unlock()
}

func TestRequestedBindsNewSlotAndEmitsOnNewRequest(t *testing.T) {
	is := is.New(t)
	b := New(4, nil)
	obs := &recordingObserver{}
	b.Attach(obs)

	thread := threadPrefix()
	ok, err := b.Requested(deltaInterests(thread, 1, 3), time.Now())
	is.NoErr(err)
	is.True(ok)
	is.Equal(obs.requests, 1)
	is.Equal(b.InUse(), 1)
}

func TestRequestedReportsPoolExhaustion(t *testing.T) {
	is := is.New(t)
	b := New(1, nil)
	thread := threadPrefix()
	_, err := b.Requested(deltaInterests(thread, 1, 1), time.Now())
	is.NoErr(err)
	_, err = b.Requested(deltaInterests(thread, 2, 1), time.Now())
	is.True(err != nil)
}

// TestNoFabrication_P8 checks received() never emits onNewData for a
// prefix requested() has not bound.
func TestNoFabrication_P8(t *testing.T) {
	is := is.New(t)
	b := New(4, nil)
	obs := &recordingObserver{}
	b.Attach(obs)

	thread := threadPrefix()
	unrequestedPrefix := name.SamplePrefix(thread, name.SampleDelta, 99)
	seg := slot.WireSegment{SegName: name.SegmentName(unrequestedPrefix, name.SegmentData, 0)}

	_, err := b.Received(seg, time.Now(), 1.0)
	is.True(err != nil)
	is.Equal(obs.dataEvents, 0)
}

func TestReceivedFeedsBoundSlotAndEmitsOnNewData(t *testing.T) {
	is := is.New(t)
	b := New(4, nil)
	obs := &recordingObserver{}
	b.Attach(obs)

	thread := threadPrefix()
	interests := deltaInterests(thread, 1, 2)
	_, err := b.Requested(interests, time.Now())
	is.NoErr(err)

	for _, it := range interests {
		_, err := b.Received(slot.WireSegment{SegName: it.Name}, time.Now(), 1.0)
		is.NoErr(err)
	}
	is.Equal(obs.dataEvents, 2)
}

// TestBufferAccounting_P5 checks sum over states of GetSlotsNum equals
// the number of slots checked out of the pool.
func TestBufferAccounting_P5(t *testing.T) {
	is := is.New(t)
	b := New(4, nil)
	thread := threadPrefix()
	for i := uint64(1); i <= 3; i++ {
		_, err := b.Requested(deltaInterests(thread, i, 1), time.Now())
		is.NoErr(err)
	}

	total := 0
	for _, st := range []slot.State{slot.StateFree, slot.StateNew, slot.StateAssembling, slot.StateReady, slot.StateLocked} {
		total += b.GetSlotsNum("", st)
	}
	is.Equal(total, b.InUse())
}

func TestResetReleasesNonLockedSlots(t *testing.T) {
	is := is.New(t)
	b := New(4, nil)
	obs := &recordingObserver{}
	b.Attach(obs)

	thread := threadPrefix()
	_, err := b.Requested(deltaInterests(thread, 1, 1), time.Now())
	is.NoErr(err)
	is.Equal(b.InUse(), 1)

	b.Reset()
	is.Equal(b.InUse(), 0)
	is.Equal(obs.resets, 1)
}

func TestResetPreservesLockedSlots(t *testing.T) {
	is := is.New(t)
	b := New(4, nil)

	thread := threadPrefix()
	interests := deltaInterests(thread, 1, 1)
	_, err := b.Requested(interests, time.Now())
	is.NoErr(err)
	_, err = b.Received(slot.WireSegment{SegName: interests[0].Name}, time.Now(), 1.0)
	is.NoErr(err)

	key := name.SamplePrefix(thread, name.SampleDelta, 1).String()
	is.NoErr(b.Lock(key))

	b.Reset()
	is.Equal(b.InUse(), 1)
}

func TestRequestedGroupsMultipleSegmentsUnderOneSlot(t *testing.T) {
	is := is.New(t)
	b := New(4, nil)
	thread := threadPrefix()
	interests := deltaInterests(thread, 1, 5)
	_, err := b.Requested(interests, time.Now())
	is.NoErr(err)
	is.Equal(b.InUse(), 1)
}
