package icontrol

import (
	"testing"

	"github.com/matryer/is"
)

// TestWindowCap_P7 checks in_flight <= pipeline_limit <= upper holds
// across increment/burst/withhold sequences.
func TestWindowCap_P7(t *testing.T) {
	is := is.New(t)
	w := New(2, 5)
	for i := 0; i < 2; i++ {
		is.True(w.Increment())
	}
	is.True(!w.Increment())
	is.True(w.InFlight() <= w.PipelineLimit())
	is.True(w.PipelineLimit() <= w.Upper())

	w.Burst(10)
	is.Equal(w.PipelineLimit(), 5)
	is.True(w.PipelineLimit() <= w.Upper())

	for i := 0; i < 5; i++ {
		w.Withhold(1)
	}
	is.Equal(w.PipelineLimit(), 2)
}

func TestDecrementUnderflowReturnsFalse(t *testing.T) {
	is := is.New(t)
	w := New(1, 5)
	is.True(!w.Decrement())
}

func TestRoomReflectsOutstandingCapacity(t *testing.T) {
	is := is.New(t)
	w := New(3, 3)
	is.Equal(w.Room(), 3)
	w.Increment()
	is.Equal(w.Room(), 2)
	w.Decrement()
	is.Equal(w.Room(), 3)
}

func TestMarkLowerLimitRaisesPipelineLimitWhenBelow(t *testing.T) {
	is := is.New(t)
	w := New(1, 10)
	w.MarkLowerLimit(4)
	is.Equal(w.PipelineLimit(), 4)
}

func TestBoundsComputesCeilingOfRateTimesDelay(t *testing.T) {
	is := is.New(t)
	lower, upper := Bounds(30, 100, 1000)
	is.Equal(lower, 3)
	is.Equal(upper, 33)
}

func TestStrategyBurstsWhenPlayableBelowHalfTarget(t *testing.T) {
	is := is.New(t)
	w := New(1, 10)
	strat := NewStrategy(1000)
	before := w.PipelineLimit()
	strat.Adjust(w, 100)
	is.True(w.PipelineLimit() >= before)
}

func TestStrategyWithholdsWhenPlayableAboveDoubleTarget(t *testing.T) {
	is := is.New(t)
	w := New(1, 10)
	w.Initialize(1, 10, 5)
	strat := NewStrategy(1000)
	strat.Adjust(w, 2500)
	is.True(w.PipelineLimit() <= 5)
}
