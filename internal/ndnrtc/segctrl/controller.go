// Package segctrl implements the segment controller: it routes face
// callbacks into the sample buffer and raises starvation when no Data
// has arrived for too long (spec.md §4.5).
package segctrl

import (
	"log/slog"
	"time"

	"github.com/ndnrtc-go/receiver/internal/ndnrtc/buffer"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/dispatch"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/face"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/name"
	"github.com/ndnrtc-go/receiver/internal/ndnrtc/slot"
)

// Observer receives events the controller cannot resolve on its own —
// the pipeliner decides whether to retransmit or roll back.
type Observer interface {
	OnTimeout(interest face.Interest)
	OnNack(interest face.Interest, reason face.NackReason)
	OnSegmentStarvation()
}

// Controller is stateless beyond its starvation timer (spec.md §4.5:
// "it never retries on its own").
type Controller struct {
	buf    *buffer.Buffer
	loop   *dispatch.Loop
	logger *slog.Logger

	observer Observer

	minStarvation time.Duration
	maxStarvation time.Duration

	lastDataAt time.Time
	timer      *time.Timer
	running    bool
}

// New builds a Controller feeding buf, with its starvation timer
// clamped to [minStarvation, maxStarvation].
func New(buf *buffer.Buffer, loop *dispatch.Loop, minStarvation, maxStarvation time.Duration, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		buf:           buf,
		loop:          loop,
		logger:        logger,
		minStarvation: minStarvation,
		maxStarvation: maxStarvation,
	}
}

// Attach registers the single observer for timeout/nack/starvation
// events.
func (c *Controller) Attach(o Observer) { c.observer = o }

// OnData parses a Data name, wraps it as a WireSegment annotated with
// is-original (computed by comparing the Interest's nonce against the
// segment header's interest nonce), and delivers it to the buffer.
// hdrNonce is the interest nonce recorded in the segment's
// SegmentHeader; it is supplied by the caller because decoding the
// typed header is a wire-layer concern outside segctrl.
func (c *Controller) OnData(interest face.Interest, data face.Data, hdrNonce int32, finalBlockID int, playbackNo, pairedSample int32, parityWeight float64) {
	c.rearmStarvation()

	info, err := name.Parse(data.Name)
	if err != nil {
		c.logger.Warn("segctrl: dropping malformed data name", "name", data.Name.String(), "err", err)
		return
	}

	seg := slot.WireSegment{
		SegName:      data.Name,
		Payload:      data.Content,
		IsOriginal:   hdrNonce == interest.Nonce,
		IsParity:     info.SegClass == name.SegmentParity,
		ArrivalMs:    time.Now().UnixMilli(),
		FinalBlockID: finalBlockID,
		PlaybackNo:   playbackNo,
		PairedSample: pairedSample,
	}

	if _, err := c.buf.Received(seg, time.Now(), parityWeight); err != nil {
		c.logger.Debug("segctrl: buffer rejected segment", "name", data.Name.String(), "err", err)
	}
}

// OnTimeout forwards a timed-out Interest to the observer. The
// controller never retries on its own.
func (c *Controller) OnTimeout(interest face.Interest) {
	if c.observer != nil {
		c.observer.OnTimeout(interest)
	}
}

// OnNack forwards a negative acknowledgement to the observer.
func (c *Controller) OnNack(interest face.Interest, reason face.NackReason) {
	if c.observer != nil {
		c.observer.OnNack(interest, reason)
	}
}

// Start arms the starvation timer against the initial DRD estimate.
func (c *Controller) Start(drdMs float64) {
	c.running = true
	c.lastDataAt = time.Now()
	c.armStarvation(drdMs)
}

// Stop disarms the starvation timer; safe to call multiple times.
func (c *Controller) Stop() {
	c.running = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// UpdateDRD re-arms the starvation timer against a fresh DRD estimate
// without resetting lastDataAt.
func (c *Controller) UpdateDRD(drdMs float64) {
	if !c.running {
		return
	}
	c.armStarvation(drdMs)
}

func (c *Controller) rearmStarvation() {
	c.lastDataAt = time.Now()
}

func (c *Controller) armStarvation(drdMs float64) {
	if c.timer != nil {
		c.timer.Stop()
	}
	d := clampDuration(time.Duration(2*drdMs)*time.Millisecond, c.minStarvation, c.maxStarvation)
	c.timer = time.AfterFunc(d, func() {
		c.loop.Post(func() { c.checkStarvation(d) })
	})
}

func (c *Controller) checkStarvation(window time.Duration) {
	if !c.running {
		return
	}
	if time.Since(c.lastDataAt) < window {
		// Data arrived after the timer fired but before this closure ran
		// on the dispatcher; rearm against the remaining window.
		remaining := window - time.Since(c.lastDataAt)
		c.timer = time.AfterFunc(remaining, func() {
			c.loop.Post(func() { c.checkStarvation(window) })
		})
		return
	}
	if c.observer != nil {
		c.observer.OnSegmentStarvation()
	}
}

func clampDuration(d, min, max time.Duration) time.Duration {
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}
