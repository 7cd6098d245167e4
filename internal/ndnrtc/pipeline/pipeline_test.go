package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/ndnrtc-go/receiver/internal/ndnrtc/buffer"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/config"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/dispatch"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/face"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/name"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/observer"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/playback"
)

type recordingFace struct {
	mu        sync.Mutex
	expressed []face.Interest
}

func (f *recordingFace) Express(it face.Interest, onData func(face.Interest, face.Data), onTimeout func(face.Interest)) error {
	f.mu.Lock()
	f.expressed = append(f.expressed, it)
	f.mu.Unlock()
	return nil
}

func (f *recordingFace) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.expressed)
}

func (f *recordingFace) last() face.Interest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expressed[len(f.expressed)-1]
}

type recordingObserver struct {
	mu       sync.Mutex
	statuses []observer.Status
	rebuffers int
}

func (r *recordingObserver) OnStatusChanged(s observer.Status) {
	r.mu.Lock()
	r.statuses = append(r.statuses, s)
	r.mu.Unlock()
}
func (r *recordingObserver) OnRebuffering() {
	r.mu.Lock()
	r.rebuffers++
	r.mu.Unlock()
}
func (r *recordingObserver) OnPlaybackEvent(observer.PlaybackEventKind, uint32) {}
func (r *recordingObserver) OnThreadSwitched(string)                           {}

func (r *recordingObserver) lastStatus() observer.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[len(r.statuses)-1]
}

func testThread() name.Name {
	base := name.Name{name.Comp("p")}
	stream := name.StreamPrefix(base, name.MediaVideo, "camera")
	return name.ThreadPrefix(stream, "hi")
}

func newTestPipeliner(t *testing.T) (*Pipeliner, *recordingFace, *recordingObserver, *dispatch.Loop) {
	t.Helper()
	f := &recordingFace{}
	obs := &recordingObserver{}
	loop := dispatch.NewLoop(16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go loop.Run(ctx)

	buf := buffer.New(16, nil)
	queue := playback.New()
	cfg := config.Default()
	cfg.ChaseStableThreshold = 2

	p := New(cfg, testThread(), name.MediaVideo, f, loop, buf, queue, obs, nil)
	return p, f, obs, loop
}

func TestStartExpressesMustBeFreshMetaInterest(t *testing.T) {
	is := is.New(t)
	p, f, obs, loop := newTestPipeliner(t)

	loop.Post(p.Start)
	time.Sleep(30 * time.Millisecond)

	is.Equal(p.State(), StateWaitForMeta)
	is.Equal(f.count(), 1)
	is.True(f.last().MustBeFresh)
	is.Equal(obs.lastStatus(), observer.StatusNoData)
}

func TestMetaParsedAdvancesToBootstrap(t *testing.T) {
	is := is.New(t)
	p, _, _, loop := newTestPipeliner(t)

	loop.Post(p.Start)
	time.Sleep(20 * time.Millisecond)
	loop.Post(func() {
		p.OnMetaParsed(MetaInfo{ProducerRate: 30, Gop: 30, SegNum: 4, ParitySegNum: 1, SegSize: 8000})
	})
	time.Sleep(20 * time.Millisecond)

	is.Equal(p.State(), StateBootstrap)
}

func TestBootstrapSampleAdvancesToAdjustAndPumpsInterests(t *testing.T) {
	is := is.New(t)
	p, f, _, loop := newTestPipeliner(t)

	loop.Post(p.Start)
	time.Sleep(20 * time.Millisecond)
	loop.Post(func() {
		p.OnMetaParsed(MetaInfo{ProducerRate: 30, Gop: 30, SegNum: 4, ParitySegNum: 1, SegSize: 8000})
	})
	time.Sleep(20 * time.Millisecond)
	loop.Post(func() { p.OnBootstrapSample(100) })
	time.Sleep(20 * time.Millisecond)

	is.Equal(p.State(), StateAdjust)
	// at least the meta interest plus some segment interests were expressed
	is.True(f.count() > 1)
}

func TestStableArrivalsAdvanceAdjustToFetch(t *testing.T) {
	is := is.New(t)
	p, _, obs, loop := newTestPipeliner(t)

	loop.Post(p.Start)
	time.Sleep(20 * time.Millisecond)
	loop.Post(func() {
		p.OnMetaParsed(MetaInfo{ProducerRate: 30, Gop: 30, SegNum: 1, ParitySegNum: 0, SegSize: 8000})
	})
	time.Sleep(20 * time.Millisecond)
	loop.Post(func() { p.OnBootstrapSample(100) })
	time.Sleep(20 * time.Millisecond)

	loop.Post(func() {
		p.OnSampleComplete("k1", float64(p.cfg.TargetBufferMs))
		p.OnSampleComplete("k2", float64(p.cfg.TargetBufferMs))
	})
	time.Sleep(20 * time.Millisecond)

	is.Equal(p.State(), StateFetch)
	is.Equal(obs.lastStatus(), observer.StatusFetching)
}

func TestSegmentStarvationRollsBackToBootstrap(t *testing.T) {
	is := is.New(t)
	p, _, obs, loop := newTestPipeliner(t)

	loop.Post(p.Start)
	time.Sleep(20 * time.Millisecond)
	loop.Post(func() {
		p.OnMetaParsed(MetaInfo{ProducerRate: 30, Gop: 30, SegNum: 1, ParitySegNum: 0, SegSize: 8000})
	})
	time.Sleep(20 * time.Millisecond)
	loop.Post(func() { p.OnBootstrapSample(100) })
	time.Sleep(20 * time.Millisecond)

	loop.Post(p.OnSegmentStarvation)
	time.Sleep(20 * time.Millisecond)

	is.Equal(p.State(), StateBootstrap)
	is.True(obs.rebuffers >= 1)
}

func TestStopTransitionsToInactiveAndClearsPending(t *testing.T) {
	is := is.New(t)
	p, _, _, loop := newTestPipeliner(t)

	loop.Post(p.Start)
	time.Sleep(20 * time.Millisecond)
	loop.Post(p.Stop)
	time.Sleep(20 * time.Millisecond)

	is.Equal(p.State(), StateInactive)
	is.Equal(len(p.pending), 0)
}
