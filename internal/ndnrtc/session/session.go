// Package session supervises one pipeliner per thread and wires the
// buffer, playback queue, segment controller and playout clock
// together into a single running stream fetch (SPEC_FULL.md's session
// supervisor, adapted from the teacher's stream registry).
package session

import (
	"encoding/binary"
	"log/slog"
	"time"

	"github.com/ndnrtc-go/receiver/internal/ndnrtc/buffer"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/config"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/dispatch"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/face"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/name"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/observer"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/pipeline"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/playback"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/playout"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/render"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/segctrl"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/slot"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/wire"
)

// MetaDecoder decodes a thread _meta envelope into pipeline.MetaInfo.
// Video and audio threads carry different meta shapes (spec.md §6), so
// the session is handed the right decoder at construction.
type MetaDecoder func(env wire.Envelope) (pipeline.MetaInfo, error)

// DecodeVideoThreadMeta adapts wire.ParseVideoThreadMeta to MetaDecoder.
func DecodeVideoThreadMeta(env wire.Envelope) (pipeline.MetaInfo, error) {
	m, err := wire.ParseVideoThreadMeta(env)
	if err != nil {
		return pipeline.MetaInfo{}, err
	}
	return pipeline.MetaInfo{
		ProducerRate: m.Rate,
		Gop:          m.Gop,
		SegNum:       m.SegInfo.DeltaAvgSegNum,
		ParitySegNum: m.SegInfo.DeltaAvgParitySegNum,
		SegSize:      8000,
	}, nil
}

// DecodeAudioThreadMeta adapts wire.ParseAudioThreadMeta to MetaDecoder.
func DecodeAudioThreadMeta(env wire.Envelope) (pipeline.MetaInfo, error) {
	m, err := wire.ParseAudioThreadMeta(env)
	if err != nil {
		return pipeline.MetaInfo{}, err
	}
	return pipeline.MetaInfo{ProducerRate: m.Rate, Gop: 1, SegNum: 1, ParitySegNum: 0, SegSize: 1000}, nil
}

// Session owns one thread's full fetch pipeline: buffer, playback
// queue, segment controller, pipeliner and playout clock.
type Session struct {
	ThreadName string
	Media      name.MediaType

	thread name.Name
	face   face.Face
	cfg    config.Config
	logger *slog.Logger

	buf   *buffer.Buffer
	queue *playback.Queue
	ctrl  *segctrl.Controller
	pipe  *pipeline.Pipeliner
	clock *playout.Clock

	decodeMeta MetaDecoder
}

// New builds a wired, inactive Session for one thread.
func New(cfg config.Config, thread name.Name, threadName string, media name.MediaType, f face.Face, loop *dispatch.Loop, renderer render.IExternalRenderer, obs observer.IConsumerObserver, decodeMeta MetaDecoder, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	buf := buffer.New(cfg.PipelineUpperLimit*2, logger)
	queue := playback.New()
	ctrl := segctrl.New(buf, loop, time.Duration(cfg.StarvationMinMs)*time.Millisecond, time.Duration(cfg.StarvationMaxMs)*time.Millisecond, logger)
	pipe := pipeline.New(cfg, thread, media, f, loop, buf, queue, obs, logger)

	s := &Session{
		ThreadName: threadName,
		Media:      media,
		thread:     thread,
		face:       f,
		cfg:        cfg,
		logger:     logger,
		buf:        buf,
		queue:      queue,
		ctrl:       ctrl,
		pipe:       pipe,
		decodeMeta: decodeMeta,
	}

	sink := &rendererSink{renderer: renderer, media: media, logger: logger}
	s.clock = playout.New(queue, loop, sink, 1000.0/30.0, float64(cfg.TargetBufferMs), logger)

	ctrl.Attach(pipelineSegctrlAdapter{pipe})
	buf.Attach(&bufferObserverAdapter{session: s})

	pipe.SetMetaDataHandler(s.onMetaData)
	pipe.SetSegmentDataHandler(s.onSegmentData)

	return s
}

// Start begins the pipeliner, the starvation timer and the playout
// clock.
func (s *Session) Start() {
	s.pipe.Start()
	s.ctrl.Start(100)
	s.clock.Start(0)
}

// Stop halts the pipeliner, playout clock and segment controller.
func (s *Session) Stop() {
	s.pipe.Stop()
	s.clock.Stop()
	s.ctrl.Stop()
}

// State exposes the pipeliner's current state for a statistics surface.
func (s *Session) State() pipeline.State { return s.pipe.State() }

func (s *Session) onMetaData(it face.Interest, d face.Data) {
	env, err := wire.DecodeEnvelope(d.Content)
	if err != nil {
		s.logger.Warn("session: malformed meta envelope", "err", err)
		return
	}
	info, err := s.decodeMeta(env)
	if err != nil {
		s.logger.Warn("session: malformed meta payload", "err", err)
		return
	}
	s.pipe.OnMetaParsed(info)

	bootstrapName := s.thread.Append(name.Comp(name.CompDelta))
	bootstrapIt := face.Interest{Name: bootstrapName, LifetimeMs: s.cfg.InterestLifetimeMs, MustBeFresh: true}
	if err := s.face.Express(bootstrapIt, s.onBootstrapData, s.onBootstrapTimeout); err != nil {
		s.logger.Warn("session: bootstrap express failed", "err", err)
	}
}

// onBootstrapData reads the live sample number out of the rightmost
// reply's content: a real NDN face returns the matched name for a
// rightmost-child Interest, but the discovered number is carried here
// as an 8-byte little-endian payload so the decode path does not
// depend on any particular face implementation's selector support.
func (s *Session) onBootstrapData(it face.Interest, d face.Data) {
	if len(d.Content) < 8 {
		s.logger.Warn("session: malformed bootstrap reply payload")
		return
	}
	liveSampleNo := binary.LittleEndian.Uint64(d.Content[:8])
	s.pipe.OnBootstrapSample(liveSampleNo)
}

func (s *Session) onBootstrapTimeout(it face.Interest) {
	if err := s.face.Express(it, s.onBootstrapData, s.onBootstrapTimeout); err != nil {
		s.logger.Warn("session: bootstrap retry failed", "err", err)
	}
}

func (s *Session) onSegmentData(it face.Interest, d face.Data) {
	env, err := wire.DecodeEnvelope(d.Content)
	if err != nil {
		s.logger.Debug("session: malformed segment envelope", "err", err)
		return
	}
	blob, ok := env.TypedHeader()
	if !ok {
		s.logger.Debug("session: segment missing typed header", "name", d.Name.String())
		return
	}
	hdr, err := wire.DecodeVideoFrameSegmentHeader(blob)
	if err != nil {
		s.logger.Debug("session: malformed segment header", "err", err)
		return
	}
	finalBlockID := int(hdr.TotalSegments) - 1
	s.ctrl.OnData(it, d, hdr.InterestNonce, finalBlockID, hdr.PlaybackNo, hdr.PairedSampleNo, 1.0)
}

// pipelineSegctrlAdapter satisfies segctrl.Observer by forwarding to
// the pipeliner's matching handlers.
type pipelineSegctrlAdapter struct{ pipe *pipeline.Pipeliner }

func (a pipelineSegctrlAdapter) OnTimeout(it face.Interest)                 { a.pipe.OnTimeout(it) }
func (a pipelineSegctrlAdapter) OnNack(it face.Interest, r face.NackReason) { a.pipe.OnNack(it, r) }
func (a pipelineSegctrlAdapter) OnSegmentStarvation()                       { a.pipe.OnSegmentStarvation() }

// bufferObserverAdapter satisfies buffer.Observer, binding newly
// requested slots into the playback queue and advancing the queue and
// pipeliner once a slot reaches Ready.
type bufferObserverAdapter struct{ session *Session }

func (a *bufferObserverAdapter) OnNewRequest(ref slot.Ref, s *slot.Slot) {
	key := s.Prefix.String()
	a.session.queue.Requested(key, s, ref, int32(s.Info.SampleNo), -1, s.Info.SampleClass == name.SampleKey)
}

func (a *bufferObserverAdapter) OnNewData(ref slot.Ref, s *slot.Slot, receipt slot.Receipt) {
	if !receipt.BecameReady {
		return
	}
	key := s.Prefix.String()
	if seg, ok := s.AnyReceived(); ok {
		a.session.queue.UpdateOrdering(key, seg.PlaybackNo, seg.PairedSample, s.Info.SampleClass == name.SampleKey)
	}
	a.session.queue.MarkReady(key)
	playableMs := a.session.queue.Size(1000.0 / 30.0)
	a.session.pipe.OnSampleComplete(key, playableMs)
}

func (a *bufferObserverAdapter) OnReset() {}

// rendererSink adapts render.IExternalRenderer to playout.Sink.
type rendererSink struct {
	renderer render.IExternalRenderer
	media    name.MediaType
	logger   *slog.Logger
}

func (r *rendererSink) Deliver(e playback.Entry) {
	if r.renderer == nil || r.media != name.MediaVideo {
		return
	}
	r.logger.Debug("session: delivering frame to renderer", "playback_no", e.PlaybackNo)
}
