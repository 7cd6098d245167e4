package icontrol

// Strategy adjusts a Window in response to playback-queue drift
// (spec.md §4.8: "if playable size < T/2, burst; if playable size >
// 2T, withhold"). BurstStep/WithholdStep default to 1 sample, the most
// conservative adjustment granularity.
type Strategy struct {
	TargetMs     float64
	BurstStep    int
	WithholdStep int
}

// NewStrategy builds a Strategy with the spec's default single-sample
// step size.
func NewStrategy(targetMs float64) *Strategy {
	return &Strategy{TargetMs: targetMs, BurstStep: 1, WithholdStep: 1}
}

// Adjust applies one drift-based adjustment to w given the current
// playable queue size in milliseconds.
func (s *Strategy) Adjust(w *Window, playableMs float64) {
	switch {
	case playableMs < s.TargetMs/2:
		w.Burst(s.BurstStep)
	case playableMs > 2*s.TargetMs:
		w.Withhold(s.WithholdStep)
	}
}

// Rebuild recomputes and applies fresh [lower, upper] bounds from a new
// DRD estimate, preserving in_flight (called after the DRD estimator
// updates materially, e.g. on every N-th sample or after starvation
// recovery).
func (s *Strategy) Rebuild(w *Window, rho, drdMs float64) {
	lower, upper := Bounds(rho, drdMs, s.TargetMs)
	w.MarkLowerLimit(lower)
	w.upper = upper
	if w.pipelineLimit > upper {
		w.pipelineLimit = upper
	}
}
