package estimator

import (
	"testing"

	"github.com/matryer/is"
)

func TestDRDWarmupIsPlainMean(t *testing.T) {
	is := is.New(t)
	d := NewDRD(30)
	d.Update(100, true)
	d.Update(200, true)
	is.Equal(d.Original(), 150.0)
}

func TestDRDSeparatesOriginalAndCachedSeries(t *testing.T) {
	is := is.New(t)
	d := NewDRD(30)
	d.Update(100, true)
	d.Update(10, false)
	is.Equal(d.Original(), 100.0)
	is.Equal(d.Cached(), 10.0)
}

func TestDRDResetClearsBothSeries(t *testing.T) {
	is := is.New(t)
	d := NewDRD(30)
	d.Update(100, true)
	d.Update(50, false)
	d.Reset()
	is.Equal(d.Original(), 0.0)
	is.Equal(d.Cached(), 0.0)
	is.Equal(d.Deviation(), 0.0)
}

func TestDRDDeviationTracksOriginalSeriesChange(t *testing.T) {
	is := is.New(t)
	d := NewDRD(30)
	d.Update(100, true)
	d.Update(200, true)
	is.True(d.Deviation() > 0)
}

func TestDRDConvergesUnderSteadyLoad(t *testing.T) {
	is := is.New(t)
	d := NewDRD(5)
	for i := 0; i < 100; i++ {
		d.Update(80, true)
	}
	is.True(d.Original() > 79.9 && d.Original() < 80.1)
}
