package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/engine/telemetry"
	"github.com/stretchr/testify/assert"
)

func TestTickInterval(t *testing.T) {
	start := time.Unix(0, 0)
	clock := start
	p := NewProfiler()
	p.lastTime = start
	p.now = func() time.Time { return clock }

	var rt telemetry.RunTime
	rt.Record(0.5)

	for range 9 {
		clock = clock.Add(100 * time.Millisecond)
		_, logged := p.Tick(rt)
		assert.False(t, logged)
	}

	clock = clock.Add(100 * time.Millisecond)
	r, logged := p.Tick(rt)
	assert.True(t, logged)
	assert.InDelta(t, 10.0, r.FPS, 1e-9)
	assert.InDelta(t, 2.0, r.RunFPS, 1e-9)
	assert.Positive(t, r.SysMB)

	clock = clock.Add(100 * time.Millisecond)
	_, logged = p.Tick(rt)
	assert.False(t, logged, "counters restart after a report")
}
