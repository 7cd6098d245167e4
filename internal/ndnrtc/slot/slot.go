// Package slot implements the sample-assembly unit and its fixed-capacity
// arena pool (spec.md §3, §4.3). A slot is reused across samples; the
// pool is an arena of preallocated Slot values indexed by Ref, avoiding
// the cyclic slot<->segment object graph the source builds with shared
// pointers (spec.md §9 design note).
package slot

import (
	"time"

	rtcerrors "github.com/ndnrtc-go/receiver/internal/errors"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/name"
)

// State is a slot's position on the I1 lattice:
// Free -> New -> Assembling -> Ready -> Locked -> (clear) -> Free.
type State int

const (
	StateFree State = iota
	StateNew
	StateAssembling
	StateReady
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "Free"
	case StateNew:
		return "New"
	case StateAssembling:
		return "Assembling"
	case StateReady:
		return "Ready"
	case StateLocked:
		return "Locked"
	default:
		return "Unknown"
	}
}

// Consistency tracks which parts of a sample have been observed at least
// once (I4).
type Consistency int

const (
	Inconsistent Consistency = 0
	HeaderMeta   Consistency = 1 << iota
	SegmentMeta
	Consistent = HeaderMeta | SegmentMeta
)

// WireSegment is one segment delivered off the wire, annotated by the
// segment controller with the bookkeeping the slot needs (spec.md §4.5).
type WireSegment struct {
	SegName       name.Name
	Payload       []byte
	IsOriginal    bool // Interest nonce matched the segment header's nonce
	IsParity      bool
	ArrivalMs     int64
	FinalBlockID  int  // index of the last data segment (TotalSegments-1)
	PlaybackNo    int32
	PairedSample  int32
}

// Slot is the unit of sample assembly (spec.md §3).
type Slot struct {
	Prefix         name.Name
	Info           name.NamespaceInfo
	State          State
	Consistency    Consistency
	pending        map[string]name.Name
	received       map[string]WireSegment
	ReceivedData   int
	ReceivedParity int
	ExpectedData   int
	ExpectedParity int
	AssembledLevel float64
	RequestedAt    time.Time
	FirstReplyAt   time.Time
	LastReplyAt    time.Time
	Retx           map[string]int
}

// Receipt summarizes the effect of one segmentReceived call, returned to
// the buffer so it can build its onNewData event (spec.md §4.4).
type Receipt struct {
	AssembledLevel float64
	Consistency    Consistency
	ArrivalMs      int64
	BecameReady    bool
	Duplicate      bool
}

// reset clears a slot back to its zero, Free state. Called both by
// clear() and by the pool when a slot returns to the free list.
func (s *Slot) reset() {
	s.Prefix = nil
	s.Info = name.NamespaceInfo{}
	s.State = StateFree
	s.Consistency = Inconsistent
	s.pending = nil
	s.received = nil
	s.ReceivedData = 0
	s.ReceivedParity = 0
	s.ExpectedData = 0
	s.ExpectedParity = 0
	s.AssembledLevel = 0
	s.RequestedAt = time.Time{}
	s.FirstReplyAt = time.Time{}
	s.LastReplyAt = time.Time{}
	s.Retx = nil
}

// Request transitions Free -> New, binding the slot to prefix and its
// parsed namespace info and recording the expected segment names.
func (s *Slot) Request(prefix name.Name, info name.NamespaceInfo, segmentNames []name.Name, expectedData, expectedParity int, now time.Time) error {
	if s.State != StateFree {
		return rtcerrors.NewBadInterestRangeError("slot.Request", errNotFree(s.State))
	}
	s.Prefix = prefix
	s.Info = info
	s.pending = make(map[string]name.Name, len(segmentNames))
	for _, n := range segmentNames {
		s.pending[n.String()] = n
	}
	s.received = make(map[string]WireSegment, len(segmentNames))
	s.Retx = make(map[string]int)
	s.ExpectedData = expectedData
	s.ExpectedParity = expectedParity
	s.RequestedAt = now
	s.State = StateNew
	return nil
}

// AddSegmentToRequest extends a New or Assembling slot's pending set with
// a fresh retransmission Interest for the same segment name (pipeliner
// recovery path); it does not change expected counts.
func (s *Slot) AddSegmentToRequest(segName name.Name) {
	if s.pending == nil {
		s.pending = make(map[string]name.Name)
	}
	s.pending[segName.String()] = segName
}

// SegmentReceived records one segment's arrival (spec.md §4.3). Receiving
// a segment this slot never requested is a BadInterestRange error — the
// single-sample invariant (I3) was violated upstream. A duplicate arrival
// is idempotent except for LastReplyAt.
func (s *Slot) SegmentReceived(seg WireSegment, now time.Time, parityWeight float64) (Receipt, error) {
	if s.State == StateFree || s.State == StateLocked {
		return Receipt{}, rtcerrors.NewBadInterestRangeError("slot.SegmentReceived", errWrongState(s.State))
	}
	if !seg.SegName.HasPrefix(s.Prefix) {
		return Receipt{}, rtcerrors.NewBadInterestRangeError("slot.SegmentReceived", errPrefixMismatch())
	}
	key := seg.SegName.String()
	if _, wanted := s.pending[key]; !wanted {
		return Receipt{}, rtcerrors.NewBadInterestRangeError("slot.SegmentReceived", errNotPending(key))
	}

	nowMs := now.UnixMilli()
	if _, dup := s.received[key]; dup {
		s.LastReplyAt = now
		return Receipt{
			AssembledLevel: s.AssembledLevel,
			Consistency:    s.Consistency,
			ArrivalMs:      nowMs,
			Duplicate:      true,
		}, nil
	}

	s.received[key] = seg
	if s.FirstReplyAt.IsZero() {
		s.FirstReplyAt = now
	}
	s.LastReplyAt = now

	s.Consistency |= SegmentMeta
	segNo := 0
	if _, v, ok := name.ParseMarkedNumber(seg.SegName[len(seg.SegName)-1]); ok {
		segNo = int(v)
	}
	if !seg.IsParity && segNo == 0 {
		s.Consistency |= HeaderMeta
	}

	if seg.IsParity {
		s.ReceivedParity++
		if s.ExpectedParity > 0 {
			s.AssembledLevel += parityWeight / float64(s.ExpectedParity)
		}
	} else {
		s.ReceivedData++
		if s.ExpectedData > 0 {
			s.AssembledLevel += 1.0 / float64(s.ExpectedData)
		}
	}

	if s.State == StateNew {
		s.State = StateAssembling
	}

	becameReady := false
	if s.State == StateAssembling && s.AssembledLevel >= 1.0 {
		s.State = StateReady
		becameReady = true
	}

	return Receipt{
		AssembledLevel: s.AssembledLevel,
		Consistency:    s.Consistency,
		ArrivalMs:      nowMs,
		BecameReady:    becameReady,
	}, nil
}

// GetMissingSegments returns the pending segment names with no
// corresponding received data, in no particular order.
func (s *Slot) GetMissingSegments() []name.Name {
	var missing []name.Name
	for key, n := range s.pending {
		if _, ok := s.received[key]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// IsFECReady reports whether the assembled level has crossed the
// worthwhile-to-decode threshold (I5).
func (s *Slot) IsFECReady() bool { return s.AssembledLevel >= 1.0 }

// AnyReceived returns an arbitrary received segment, for callers that
// need the playback coordinates (PlaybackNo/PairedSample) a video
// frame's header carries, any one of which will do since all segments
// of a sample share them.
func (s *Slot) AnyReceived() (WireSegment, bool) {
	for _, seg := range s.received {
		return seg, true
	}
	return WireSegment{}, false
}

// ToggleLock transitions Ready -> Locked; it is rejected from any other
// state.
func (s *Slot) ToggleLock() error {
	if s.State != StateReady {
		return rtcerrors.NewBadInterestRangeError("slot.ToggleLock", errWrongState(s.State))
	}
	s.State = StateLocked
	return nil
}

// Clear transitions any state back to Free, discarding all bookkeeping.
func (s *Slot) Clear() { s.reset() }
