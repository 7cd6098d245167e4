// Package config holds the options the receiver core consumes
// (spec.md §6) plus the strategy constants used by the DRD/interest
// control/chase-estimation components. cmd/ndnrtc-consumer layers a
// flag.FlagSet CLI on top; the core itself never parses flags.
package config

import "time"

// Config is every option the receiver core reads. Construct with
// Default() and apply Option values to override individual fields.
type Config struct {
	SegmentSize        int
	TargetBufferMs      int
	InterestLifetimeMs  int64
	MaxRtx              int
	FecEnabled          bool
	FecRatio            float64
	RtxEnabled          bool
	UseAvSync           bool

	// DRD estimator window (spec.md §4.6): number of samples the
	// exponentially-windowed original()/cached() averages run over.
	DrdWindow int

	// Chase-estimation stability counter (SPEC_FULL.md §9): consecutive
	// playable-size-at-target arrivals required before Adjust -> Fetch.
	ChaseStableThreshold int

	// Starvation timer clamp (spec.md §4.5): [min, max] bound on
	// 2 x current DRD.
	StarvationMinMs int64
	StarvationMaxMs int64

	// Pipeline burst/withhold bounds for interest control (spec.md §4.8).
	PipelineLowerLimit int
	PipelineUpperLimit int
}

// Default returns the receiver's baseline configuration.
func Default() Config {
	return Config{
		SegmentSize:          8000,
		TargetBufferMs:       1000,
		InterestLifetimeMs:   1000,
		MaxRtx:               3,
		FecEnabled:           true,
		FecRatio:             0.2,
		RtxEnabled:           true,
		UseAvSync:            false,
		DrdWindow:            30,
		ChaseStableThreshold: 3,
		StarvationMinMs:      300,
		StarvationMaxMs:      2000,
		PipelineLowerLimit:   1,
		PipelineUpperLimit:   60,
	}
}

// Option mutates a Config in place.
type Option func(*Config)

// WithSegmentSize sets the target wire length for data segments.
func WithSegmentSize(n int) Option { return func(c *Config) { c.SegmentSize = n } }

// WithTargetBufferMs sets the jitter target T.
func WithTargetBufferMs(ms int) Option { return func(c *Config) { c.TargetBufferMs = ms } }

// WithInterestLifetimeMs sets the floor on Interest lifetime.
func WithInterestLifetimeMs(ms int64) Option { return func(c *Config) { c.InterestLifetimeMs = ms } }

// WithMaxRtx sets the per-segment retransmission cap.
func WithMaxRtx(n int) Option { return func(c *Config) { c.MaxRtx = n } }

// WithFEC toggles parity-segment requesting and sets its ratio.
func WithFEC(enabled bool, ratio float64) Option {
	return func(c *Config) { c.FecEnabled = enabled; c.FecRatio = ratio }
}

// WithRtx toggles per-segment timeout retry.
func WithRtx(enabled bool) Option { return func(c *Config) { c.RtxEnabled = enabled } }

// WithAvSync sets UseAvSync. No component of this module reads the
// field: sync lists are not consulted before playout and no thread
// switch is signalled, whatever its value.
func WithAvSync(enabled bool) Option { return func(c *Config) { c.UseAvSync = enabled } }

// WithDrdWindow sets the DRD estimator's averaging window length.
func WithDrdWindow(n int) Option { return func(c *Config) { c.DrdWindow = n } }

// WithChaseStableThreshold sets how many consecutive stable arrivals the
// chase estimator requires before gating Adjust -> Fetch.
func WithChaseStableThreshold(n int) Option {
	return func(c *Config) { c.ChaseStableThreshold = n }
}

// WithStarvationBounds sets the [min, max] clamp applied to the
// starvation timer (2 x current DRD).
func WithStarvationBounds(min, max time.Duration) Option {
	return func(c *Config) {
		c.StarvationMinMs = min.Milliseconds()
		c.StarvationMaxMs = max.Milliseconds()
	}
}

// WithPipelineBounds sets the interest control window's [lower, upper]
// limits.
func WithPipelineBounds(lower, upper int) Option {
	return func(c *Config) { c.PipelineLowerLimit = lower; c.PipelineUpperLimit = upper }
}

// New builds a Config from Default() with the given options applied.
func New(opts ...Option) Config {
	c := Default()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
