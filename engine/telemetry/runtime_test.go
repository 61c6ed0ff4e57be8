package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordTracksMinMaxAvg(t *testing.T) {
	var r RunTime
	r.Record(0.5)
	r.Record(0.25)
	r.Record(1.0)

	assert.Equal(t, uint64(3), r.Frames)
	assert.InDelta(t, 1.75, r.Time, 1e-9)
	assert.InDelta(t, 0.25, r.MinFrame, 1e-9)
	assert.InDelta(t, 1.0, r.MaxFrame, 1e-9)
	assert.InDelta(t, 1.75/3, r.AvgFrame, 1e-9)
	assert.InDelta(t, (2.0+4.0+1.0)/3, r.AvgFPS, 1e-9)
}

func TestFPSWindowEvictsOldest(t *testing.T) {
	var r RunTime
	// Ten slow frames followed by ten fast ones: only the fast ones remain.
	for i := 0; i < FPSWindow; i++ {
		r.Record(1.0)
	}
	assert.InDelta(t, 1.0, r.AvgFPS, 1e-9)

	for i := 0; i < FPSWindow; i++ {
		r.Record(0.01)
	}
	assert.Equal(t, FPSWindow, r.Len)
	assert.InDelta(t, 100.0, r.AvgFPS, 1e-6)

	// One more slow frame replaces exactly one fast sample.
	r.Record(1.0)
	assert.InDelta(t, (9*100.0+1.0)/10, r.AvgFPS, 1e-6)
}

func TestZeroDurationFrame(t *testing.T) {
	var r RunTime
	r.Record(0)
	assert.Equal(t, uint64(1), r.Frames)
	assert.Equal(t, 0, r.Len)
	assert.Zero(t, r.AvgFPS)
}

func TestReset(t *testing.T) {
	var r RunTime
	r.Record(0.016)
	r.Record(0.020)
	assert.False(t, r.IsZero())

	r.Reset()
	assert.True(t, r.IsZero())
	assert.Equal(t, RunTime{}, r)
}
