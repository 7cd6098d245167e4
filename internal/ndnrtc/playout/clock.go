// Package playout implements the playout clock: a single-threaded
// cooperative timer that paces sample delivery to an external sink,
// correcting for buffer drift (spec.md §4.10).
package playout

import (
	"log/slog"
	"time"

	"github.com/ndnrtc-go/receiver/internal/ndnrtc/dispatch"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/playback"
)

// Sink receives a popped entry's payload. Decoding is external to the
// clock; the clock only paces delivery.
type Sink interface {
	Deliver(e playback.Entry)
}

// Clock owns a timer on the shared dispatcher; no OS thread is spun
// (spec.md §4.10).
type Clock struct {
	queue  *playback.Queue
	loop   *dispatch.Loop
	sink   Sink
	logger *slog.Logger

	producerPeriodMs float64
	targetMs         float64

	running      bool
	lastTick     time.Time
	lastPlayback int32
	haveLast     bool
	timer        *time.Timer

	onQueueEmpty func()
}

// New builds a Clock delivering from queue to sink via loop, pacing at
// producerPeriodMs per sample against a target playable buffer of
// targetMs.
func New(queue *playback.Queue, loop *dispatch.Loop, sink Sink, producerPeriodMs, targetMs float64, logger *slog.Logger) *Clock {
	if logger == nil {
		logger = slog.Default()
	}
	return &Clock{
		queue:            queue,
		loop:             loop,
		sink:             sink,
		logger:           logger,
		producerPeriodMs: producerPeriodMs,
		targetMs:         targetMs,
	}
}

// OnQueueEmpty registers the callback invoked each time delivery finds
// nothing ready. The clock stays armed; the next call to one of the
// playback queue's ready notifications must restart ticking via
// Start or Tick.
func (c *Clock) OnQueueEmpty(fn func()) { c.onQueueEmpty = fn }

// Start begins delivery. adjustmentMs < 0 schedules the first tick
// earlier, absorbing buffer overshoot.
func (c *Clock) Start(adjustmentMs float64) {
	c.running = true
	c.lastTick = time.Now()
	c.haveLast = false
	delay := time.Duration(c.producerPeriodMs+adjustmentMs) * time.Millisecond
	if delay < 0 {
		delay = 0
	}
	c.scheduleNext(delay)
}

// Stop cancels the pending timer; safe to call multiple times.
func (c *Clock) Stop() {
	c.running = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// IsRunning reports whether the clock is currently armed.
func (c *Clock) IsRunning() bool { return c.running }

func (c *Clock) scheduleNext(d time.Duration) {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(d, func() {
		c.loop.Post(c.tick)
	})
}

// tick pops the next slot, delivers it if Ready, and reschedules. It
// runs on the dispatcher goroutine.
func (c *Clock) tick() {
	if !c.running {
		return
	}
	now := time.Now()

	entry, ok := c.queue.Pop()
	if !ok {
		if c.onQueueEmpty != nil {
			c.onQueueEmpty()
		}
		// Remain armed: a fresh onNewSampleReady notification is
		// expected to call Tick or Start again without a state reset.
		return
	}

	if c.haveLast && entry.PlaybackNo < c.lastPlayback {
		c.logger.Warn("playout: dropping out-of-order delivery", "playback_no", entry.PlaybackNo, "last", c.lastPlayback)
		c.tick()
		return
	}
	c.lastPlayback = entry.PlaybackNo
	c.haveLast = true

	c.sink.Deliver(entry)

	elapsed := now.Sub(c.lastTick)
	c.lastTick = now

	correction := c.queue.Size(c.producerPeriodMs) - c.targetMs
	half := c.producerPeriodMs / 2
	if correction > half {
		correction = half
	}
	if correction < -half {
		correction = -half
	}

	nextDelayMs := c.producerPeriodMs - float64(elapsed.Milliseconds()) - correction
	if nextDelayMs < 0 {
		nextDelayMs = 0
	}
	c.scheduleNext(time.Duration(nextDelayMs) * time.Millisecond)
}

// Tick forces an immediate delivery attempt, used to restart ticking
// after OnQueueEmpty or to re-drive delivery after an out-of-order
// drop.
func (c *Clock) Tick() {
	if !c.running {
		return
	}
	c.loop.Post(c.tick)
}
