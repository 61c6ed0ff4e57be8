package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/telemetry"
)

// Profiler tracks render frame rate and memory statistics for performance monitoring.
// Outputs stats to the shared logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	now            func() time.Time
}

// Report is one interval of profiler statistics.
type Report struct {
	// FPS is the render frame rate measured over the interval.
	FPS float64
	// RunFPS is the trailing frame rate of the run, from telemetry.
	RunFPS float64
	// HeapMB is the live heap in MiB.
	HeapMB float64
	// AllocRateMB is the allocation rate in MiB/s over the interval.
	AllocRateMB float64
	// GCCount is the total number of collections.
	GCCount uint32
	// LastPauseUs and MaxPauseUs are GC pauses in microseconds.
	LastPauseUs, MaxPauseUs uint64
	// SysMB is the memory obtained from the OS in MiB.
	SysMB float64
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		now:            time.Now,
	}
}

// Tick should be called once per render frame.
// Logs performance statistics when the update interval has elapsed.
//
// Parameters:
//   - rt: the run telemetry of the frame's snapshot
//
// Returns:
//   - Report: the statistics, zero unless the interval elapsed
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(rt telemetry.RunTime) (Report, bool) {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Report{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	r := Report{
		FPS:     float64(p.frameCount) / elapsed.Seconds(),
		RunFPS:  rt.AvgFPS,
		HeapMB:  float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:   float64(p.memStats.Sys) / 1024 / 1024,
		GCCount: p.memStats.NumGC,
	}
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	r.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	if r.GCCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		r.LastPauseUs = p.memStats.PauseNs[(r.GCCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if r.GCCount-startIdx > 256 {
			startIdx = r.GCCount - 256
		}
		for i := startIdx; i < r.GCCount; i++ {
			r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	common.Logger().Info("[Profiler]",
		"fps", r.FPS, "run_fps", r.RunFPS, "heap_mb", r.HeapMB, "alloc_mb_s", r.AllocRateMB,
		"gc", r.GCCount, "gc_last_us", r.LastPauseUs, "gc_max_us", r.MaxPauseUs, "sys_mb", r.SysMB)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return r, true
}
