// Package icontrol implements the interest control window: a bound on
// the number of outstanding samples, sized by the default strategy
// from the DRD estimate and a target playable buffer (spec.md §4.8).
package icontrol

import "math"

// Window tracks pipeline_limit and in_flight, both counted in samples
// (spec.md §4.8: "the unit of accounting is the sample").
type Window struct {
	lower         int
	upper         int
	pipelineLimit int
	inFlight      int
}

// New builds a Window with the given [lower, upper] bounds and
// pipeline_limit initialized to lower.
func New(lower, upper int) *Window {
	if lower < 1 {
		lower = 1
	}
	if upper < lower {
		upper = lower
	}
	return &Window{lower: lower, upper: upper, pipelineLimit: lower}
}

// Initialize sets pipeline_limit from a fresh strategy computation
// (spec.md §4.8: "initialize(rate, pipeline)").
func (w *Window) Initialize(lower, upper, pipelineLimit int) {
	w.lower = lower
	w.upper = upper
	w.pipelineLimit = clamp(pipelineLimit, lower, upper)
}

// Increment admits one more outstanding sample. It returns false at
// the pipeline_limit boundary without mutating state (P7: in_flight
// never exceeds pipeline_limit).
func (w *Window) Increment() bool {
	if w.inFlight >= w.pipelineLimit {
		return false
	}
	w.inFlight++
	return true
}

// Decrement completes one outstanding sample. It returns false on
// underflow (decrementing past zero is a caller bug, not a valid
// transition).
func (w *Window) Decrement() bool {
	if w.inFlight <= 0 {
		return false
	}
	w.inFlight--
	return true
}

// Room reports how many more samples can be issued right now.
func (w *Window) Room() int { return w.pipelineLimit - w.inFlight }

// Burst raises pipeline_limit by step, never exceeding upper.
func (w *Window) Burst(step int) {
	w.pipelineLimit = clamp(w.pipelineLimit+step, w.lower, w.upper)
}

// Withhold lowers pipeline_limit by step, never going below lower
// (spec.md §4.8: "never below lower").
func (w *Window) Withhold(step int) {
	w.pipelineLimit = clamp(w.pipelineLimit-step, w.lower, w.upper)
}

// MarkLowerLimit sets the lower bound, clamping pipeline_limit up to
// it if needed.
func (w *Window) MarkLowerLimit(n int) {
	w.lower = n
	if w.pipelineLimit < w.lower {
		w.pipelineLimit = w.lower
	}
	if w.upper < w.lower {
		w.upper = w.lower
	}
}

// PipelineLimit, InFlight, Lower, Upper expose the window's state for
// observers and tests.
func (w *Window) PipelineLimit() int { return w.pipelineLimit }
func (w *Window) InFlight() int      { return w.inFlight }
func (w *Window) Lower() int         { return w.lower }
func (w *Window) Upper() int         { return w.upper }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Bounds computes the default strategy's [lower, upper] pair from
// producer rate rho (samples/s), DRD d (ms) and target playable buffer
// T (ms) (spec.md §4.8).
func Bounds(rho float64, drdMs float64, targetMs float64) (lower, upper int) {
	lower = int(math.Ceil(rho * drdMs / 1000))
	upper = int(math.Ceil(rho * (drdMs + targetMs) / 1000))
	if lower < 1 {
		lower = 1
	}
	if upper < lower {
		upper = lower
	}
	return lower, upper
}
