package hooks

import (
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/ndnrtc-go/receiver/internal/ndnrtc/observer"
)

type recordingObserver struct {
	mu       sync.Mutex
	statuses []observer.Status
	rebuffer int
	events   []observer.PlaybackEventKind
	threads  []string
}

func (r *recordingObserver) OnStatusChanged(status observer.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recordingObserver) OnRebuffering() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rebuffer++
}

func (r *recordingObserver) OnPlaybackEvent(kind observer.PlaybackEventKind, seqNo uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind)
}

func (r *recordingObserver) OnThreadSwitched(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads = append(r.threads, name)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestManagerFansOutToAllObservers(t *testing.T) {
	is := is.New(t)
	m := NewManager(DefaultConfig(), nil)
	a := &recordingObserver{}
	b := &recordingObserver{}
	m.Register(a)
	m.Register(b)

	m.OnStatusChanged(observer.StatusFetching)
	m.OnRebuffering()
	m.OnPlaybackEvent(observer.SkipLate, 42)
	m.OnThreadSwitched("hi")

	waitFor(t, func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return len(a.statuses) == 1 && a.rebuffer == 1 && len(a.events) == 1 && len(a.threads) == 1
	})

	is.Equal(a.statuses[0], observer.StatusFetching)
	is.Equal(b.statuses[0], observer.StatusFetching)
	is.Equal(a.events[0], observer.SkipLate)
}

func TestManagerIgnoresNilRegistration(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	m.Register(nil)
	if len(m.snapshot()) != 0 {
		t.Fatalf("expected nil observer to be ignored")
	}
}
