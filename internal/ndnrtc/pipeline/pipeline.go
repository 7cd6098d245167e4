// Package pipeline implements the pipeliner: the top-level state
// machine that drives meta discovery, bootstrap, window adjustment and
// steady-state sample fetching (spec.md §4.11).
package pipeline

import (
	"log/slog"
	"math"
	"time"

	rtcerrors "github.com/ndnrtc-go/receiver/internal/errors"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/buffer"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/config"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/dispatch"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/estimator"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/face"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/icontrol"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/name"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/observer"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/playback"
)

// State is the pipeliner's position on the spec.md §4.11 lattice.
type State int

const (
	StateInactive State = iota
	StateWaitForMeta
	StateBootstrap
	StateAdjust
	StateFetch
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "Inactive"
	case StateWaitForMeta:
		return "WaitForMeta"
	case StateBootstrap:
		return "Bootstrap"
	case StateAdjust:
		return "Adjust"
	case StateFetch:
		return "Fetch"
	default:
		return "Unknown"
	}
}

// pendingSample tracks one in-flight sample's retransmission bookkeeping.
type pendingSample struct {
	prefix    name.Name
	sampleNo  uint64
	isKey     bool
	retries   map[string]int // segment key -> attempts
}

// Pipeliner fetches one thread's video or audio stream end to end.
type Pipeliner struct {
	cfg    config.Config
	thread name.Name
	media  name.MediaType

	face   face.Face
	loop   *dispatch.Loop
	buf    *buffer.Buffer
	queue  *playback.Queue
	window *icontrol.Window
	strat  *icontrol.Strategy
	drd    *estimator.DRD
	sample *estimator.Sample
	obs    observer.IConsumerObserver
	logger *slog.Logger

	state State

	gop          uint32
	producerRate float64
	nextDelta    uint64
	nextKey      uint64

	stableArrivals int

	pending map[string]*pendingSample

	nonceSeq int32

	// onSegmentData is installed by the session layer (SetSegmentDataHandler)
	// to decode the typed header and forward to segctrl.Controller.OnData.
	// Left nil it is a no-op, which is only valid in isolation tests that
	// never need a real decode path.
	onSegmentDataHook func(face.Interest, face.Data)
	onMetaDataHook    func(face.Interest, face.Data)
}

// SetSegmentDataHandler installs the callback invoked whenever any
// segment Interest this pipeliner expressed receives a Data reply.
func (p *Pipeliner) SetSegmentDataHandler(fn func(face.Interest, face.Data)) {
	p.onSegmentDataHook = fn
}

// SetMetaDataHandler installs the callback invoked when the _meta
// Interest receives a reply. The handler is expected to decode the
// payload and call OnMetaParsed.
func (p *Pipeliner) SetMetaDataHandler(fn func(face.Interest, face.Data)) {
	p.onMetaDataHook = fn
}

// New builds an inactive Pipeliner for one thread.
func New(cfg config.Config, thread name.Name, media name.MediaType, f face.Face, loop *dispatch.Loop, buf *buffer.Buffer, queue *playback.Queue, obs observer.IConsumerObserver, logger *slog.Logger) *Pipeliner {
	if logger == nil {
		logger = slog.Default()
	}
	window := icontrol.New(cfg.PipelineLowerLimit, cfg.PipelineUpperLimit)
	return &Pipeliner{
		cfg:     cfg,
		thread:  thread,
		media:   media,
		face:    f,
		loop:    loop,
		buf:     buf,
		queue:   queue,
		window:  window,
		strat:   icontrol.NewStrategy(float64(cfg.TargetBufferMs)),
		drd:     estimator.NewDRD(cfg.DrdWindow),
		sample:  estimator.NewSample(),
		obs:     obs,
		logger:  logger,
		state:   StateInactive,
		pending: make(map[string]*pendingSample),
	}
}

// State returns the pipeliner's current state.
func (p *Pipeliner) State() State { return p.state }

// Start transitions Inactive -> WaitForMeta and expresses a
// Must-Be-Fresh Interest for the thread's _meta.
func (p *Pipeliner) Start() {
	if p.state != StateInactive {
		return
	}
	p.state = StateWaitForMeta
	p.notifyStatus()

	metaName := name.MetaName(p.thread, 0, 0)
	it := face.Interest{Name: metaName, Nonce: p.nextNonce(), LifetimeMs: p.cfg.InterestLifetimeMs, MustBeFresh: true}
	if err := p.face.Express(it, p.onMetaData, p.onMetaTimeout); err != nil {
		p.logger.Warn("pipeline: failed to express meta interest", "err", err)
	}
}

// Stop transitions to Inactive, drops all pending-interest state and
// resets the buffer asynchronously (spec.md §4.11: "Cancellation").
func (p *Pipeliner) Stop() {
	if p.state == StateInactive {
		return
	}
	p.state = StateInactive
	p.pending = make(map[string]*pendingSample)
	p.loop.Post(p.buf.Reset)
	p.notifyStatus()
}

func (p *Pipeliner) fatal(err error) {
	p.logger.Error("pipeline: fatal error, rolling back to Inactive", "err", err)
	p.Stop()
}

func (p *Pipeliner) nextNonce() int32 {
	p.nonceSeq++
	return p.nonceSeq
}

// MetaInfo carries the subset of thread meta the pipeliner needs to
// bootstrap. The caller (session layer) decodes the wire.StreamMeta /
// wire.VideoThreadMeta / wire.AudioThreadMeta payload and fills this in.
type MetaInfo struct {
	ProducerRate float64
	Gop          uint32
	SegNum       float64
	ParitySegNum float64
	SegSize      float64
}

func (p *Pipeliner) onMetaData(it face.Interest, d face.Data) {
	p.loop.Post(func() {
		if p.state != StateWaitForMeta {
			return
		}
		if p.onMetaDataHook != nil {
			p.onMetaDataHook(it, d)
		}
	})
}

func (p *Pipeliner) onMetaTimeout(it face.Interest) {
	p.loop.Post(func() {
		if p.state != StateWaitForMeta {
			return
		}
		it.Nonce = p.nextNonce()
		if err := p.face.Express(it, p.onMetaData, p.onMetaTimeout); err != nil {
			p.logger.Warn("pipeline: meta retry failed", "err", err)
		}
	})
}

// OnMetaParsed completes WaitForMeta -> Bootstrap once the session
// layer has decoded the _meta reply.
func (p *Pipeliner) OnMetaParsed(info MetaInfo) {
	if p.state != StateWaitForMeta {
		return
	}
	p.producerRate = info.ProducerRate
	p.gop = info.Gop
	if p.gop == 0 {
		p.gop = 30
	}
	sc := name.SampleDelta
	p.sample.Bootstrap(sc, name.SegmentData, info.SegNum, info.SegSize)
	p.sample.Bootstrap(sc, name.SegmentParity, info.ParitySegNum, info.SegSize)
	p.sample.Bootstrap(name.SampleKey, name.SegmentData, info.SegNum*2, info.SegSize)

	lower, upper := icontrol.Bounds(p.producerRate, p.drd.Original(), float64(p.cfg.TargetBufferMs))
	p.window.Initialize(lower, upper, lower)

	p.state = StateBootstrap
	p.notifyStatus()
}

// OnBootstrapSample completes Bootstrap -> Adjust once the session
// layer's rightmost-discovery Interest into the Delta namespace
// returns a live sample number.
func (p *Pipeliner) OnBootstrapSample(liveSampleNo uint64) {
	if p.state != StateBootstrap {
		return
	}
	p.nextDelta = liveSampleNo
	p.nextKey = (liveSampleNo / uint64(p.gop)) * uint64(p.gop)
	p.stableArrivals = 0
	p.state = StateAdjust
	p.notifyStatus()
	p.pump()
}

func (p *Pipeliner) notifyStatus() {
	if p.obs == nil {
		return
	}
	var st observer.Status
	switch p.state {
	case StateInactive:
		st = observer.StatusStopped
	case StateWaitForMeta, StateBootstrap:
		st = observer.StatusNoData
	case StateAdjust:
		st = observer.StatusAdjusting
	case StateFetch:
		st = observer.StatusFetching
	}
	p.obs.OnStatusChanged(st)
}

// pump issues Interests while room() > 0 and the pipeliner is in
// Adjust or Fetch.
func (p *Pipeliner) pump() {
	for (p.state == StateAdjust || p.state == StateFetch) && p.window.Room() > 0 {
		isKey := p.nextDelta%uint64(p.gop) == 0
		var sampleNo uint64
		var sc name.SampleClass
		if isKey {
			sampleNo = p.nextKey
			sc = name.SampleKey
		} else {
			sampleNo = p.nextDelta
			sc = name.SampleDelta
		}
		if err := p.requestSample(sampleNo, sc); err != nil {
			if rtcerrors.IsPoolExhausted(err) {
				if p.obs != nil {
					p.obs.OnStatusChanged(observer.StatusBuffering)
				}
				return
			}
			p.logger.Warn("pipeline: request failed", "err", err)
			return
		}
		if !p.window.Increment() {
			return
		}
		if isKey {
			p.nextKey += uint64(p.gop)
		} else {
			p.nextDelta++
		}
	}
}

func (p *Pipeliner) requestSample(sampleNo uint64, sc name.SampleClass) error {
	samplePrefix := name.SamplePrefix(p.thread, sc, sampleNo)
	segClassData := name.SegmentData
	segClassParity := name.SegmentParity

	d := p.sample.SegNum(sc, segClassData, 1)
	var r int
	if p.cfg.FecEnabled {
		r = p.sample.SegNum(sc, segClassParity, 0)
	}

	interests := make([]face.Interest, 0, d+r)
	lifetime := p.interestLifetimeMs()
	for i := 0; i < d; i++ {
		n := name.SegmentName(samplePrefix, segClassData, uint64(i))
		interests = append(interests, face.Interest{Name: n, Nonce: p.nextNonce(), LifetimeMs: lifetime})
	}
	for i := 0; i < r; i++ {
		n := name.SegmentName(samplePrefix, segClassParity, uint64(i))
		interests = append(interests, face.Interest{Name: n, Nonce: p.nextNonce(), LifetimeMs: lifetime})
	}

	ok, err := p.buf.Requested(interests, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return rtcerrors.NewPoolExhaustedError("pipeline.requestSample")
	}

	key := samplePrefix.String()
	ps := &pendingSample{prefix: samplePrefix, sampleNo: sampleNo, isKey: sc == name.SampleKey, retries: make(map[string]int)}
	p.pending[key] = ps

	for _, it := range interests {
		it := it
		if err := p.face.Express(it, p.onSegmentData, p.segmentTimeoutHandler(key, it)); err != nil {
			p.logger.Warn("pipeline: express failed", "name", it.Name.String(), "err", err)
		}
	}
	return nil
}

func (p *Pipeliner) interestLifetimeMs() int64 {
	v := int64(math.Max(2*(p.drd.Original()+p.drd.Deviation()), float64(p.cfg.InterestLifetimeMs)))
	return v
}

func (p *Pipeliner) onSegmentData(it face.Interest, d face.Data) {
	if p.onSegmentDataHook != nil {
		p.onSegmentDataHook(it, d)
	}
}

func (p *Pipeliner) segmentTimeoutHandler(sampleKey string, original face.Interest) func(face.Interest) {
	return func(it face.Interest) {
		p.loop.Post(func() {
			p.onSegmentTimeout(sampleKey, it)
		})
	}
}

// onSegmentTimeout retries a single segment with a fresh nonce, up to
// MaxRtx attempts, as long as the owning sample is still useful
// (spec.md §4.11 Recovery).
func (p *Pipeliner) onSegmentTimeout(sampleKey string, it face.Interest) {
	if !p.cfg.RtxEnabled {
		return
	}
	ps, ok := p.pending[sampleKey]
	if !ok {
		return
	}
	segKey := it.Name.String()
	ps.retries[segKey]++
	if ps.retries[segKey] > p.cfg.MaxRtx {
		p.logger.Debug("pipeline: giving up on segment after max retries", "name", segKey)
		return
	}
	it.Nonce = p.nextNonce()
	it.LifetimeMs = p.interestLifetimeMs()
	if err := p.face.Express(it, p.onSegmentData, p.segmentTimeoutHandler(sampleKey, it)); err != nil {
		p.logger.Warn("pipeline: retry express failed", "name", segKey, "err", err)
	}
}

// OnSampleComplete is called by the session layer (via a buffer
// observer) whenever a slot reaches Ready. It advances the window and
// the Adjust -> Fetch stability gate.
func (p *Pipeliner) OnSampleComplete(key string, playableMs float64) {
	delete(p.pending, key)
	p.window.Decrement()
	p.strat.Adjust(p.window, playableMs)

	if p.state == StateAdjust {
		if playableMs >= float64(p.cfg.TargetBufferMs) {
			p.stableArrivals++
		} else {
			p.stableArrivals = 0
		}
		if p.stableArrivals >= p.cfg.ChaseStableThreshold {
			p.state = StateFetch
			p.notifyStatus()
		}
	}
	p.pump()
}

// OnSegmentStarvation implements segctrl.Observer: Fetch -> Bootstrap,
// resetting DRD (spec.md §4.11 Recovery).
func (p *Pipeliner) OnSegmentStarvation() {
	if p.state != StateFetch && p.state != StateAdjust {
		return
	}
	p.drd.Reset()
	p.pending = make(map[string]*pendingSample)
	p.state = StateBootstrap
	if p.obs != nil {
		p.obs.OnRebuffering()
	}
	p.notifyStatus()
}

// OnTimeout implements segctrl.Observer for Interests the segment
// controller could not resolve to a useful retry path itself (e.g. the
// meta/bootstrap Interests, handled above).
func (p *Pipeliner) OnTimeout(it face.Interest) {}

// OnNack implements segctrl.Observer.
func (p *Pipeliner) OnNack(it face.Interest, reason face.NackReason) {}
