// Package estimator implements the per-thread DRD (Data Retrieval
// Delay) and sample-size running averages the pipeliner and interest
// control strategy consult (spec.md §4.6, §4.7).
package estimator

// ewma is an exponentially-windowed moving average over a fixed window
// of samples. It behaves as a plain arithmetic mean until it has seen
// `window` samples, then decays older samples geometrically — the same
// warm-up-then-decay shape spec.md's "exponentially-windowed average"
// describes.
type ewma struct {
	window int
	count  int
	value  float64
}

func newEWMA(window int) *ewma {
	if window < 1 {
		window = 1
	}
	return &ewma{window: window}
}

func (e *ewma) update(sample float64) {
	e.count++
	if e.count >= e.window {
		alpha := 2.0 / float64(e.window+1)
		e.value = alpha*sample + (1-alpha)*e.value
		return
	}
	// Warm-up: plain running mean over the samples seen so far.
	e.value += (sample - e.value) / float64(e.count)
}

func (e *ewma) reset() {
	e.count = 0
	e.value = 0
}

func (e *ewma) get() float64 { return e.value }

// DRD tracks the original (producer round trip) and cached (from an
// intermediate cache) data retrieval delays for one thread, plus the
// mean absolute deviation of the original-path series (spec.md §4.6's
// deviation()).
type DRD struct {
	original  *ewma
	cached    *ewma
	deviation *ewma
}

// NewDRD builds a DRD estimator with the given averaging window
// (spec.md §4.6: window = 30 samples).
func NewDRD(window int) *DRD {
	return &DRD{original: newEWMA(window), cached: newEWMA(window), deviation: newEWMA(window)}
}

// Update records one segment's round-trip delay, routing it to the
// original or cached series depending on whether the segment's
// interest nonce matched the one recorded in its header. Only
// original-path samples feed the deviation series: it measures how far
// the original delay swings around its own running mean, the
// quantity spec.md §4.6's deviation() and the Interest-lifetime
// adjustment need.
func (d *DRD) Update(delayMs float64, isOriginal bool) {
	if !isOriginal {
		d.cached.update(delayMs)
		return
	}
	diff := delayMs - d.original.get()
	if diff < 0 {
		diff = -diff
	}
	d.deviation.update(diff)
	d.original.update(delayMs)
}

// Original returns the current drd_original estimate in milliseconds.
func (d *DRD) Original() float64 { return d.original.get() }

// Cached returns the current drd_cached estimate in milliseconds.
func (d *DRD) Cached() float64 { return d.cached.get() }

// Deviation returns the mean absolute deviation of the original-path
// delay series over the same window Original() averages, feeding the
// pipeliner's Interest-lifetime adjustment.
func (d *DRD) Deviation() float64 { return d.deviation.get() }

// Reset clears all three series, used when the pipeliner rolls back to
// Bootstrap after starvation.
func (d *DRD) Reset() {
	d.original.reset()
	d.cached.reset()
	d.deviation.reset()
}
