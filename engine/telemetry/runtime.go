package telemetry

import "math"

// FPSWindow is the number of trailing frames averaged into AvgFPS.
const FPSWindow = 10

// RunTime is the frame-timing telemetry of a run. It is plain data so the
// mirror can snapshot it by value; all durations are in seconds.
type RunTime struct {
	// Time is the accumulated frame time.
	Time float64
	// Frames is the number of recorded frames.
	Frames uint64
	// MinFrame is the shortest recorded frame, or 0 before the first frame.
	MinFrame float64
	// MaxFrame is the longest recorded frame.
	MaxFrame float64
	// AvgFrame is Time / Frames.
	AvgFrame float64
	// AvgFPS is the mean of the last FPSWindow frames-per-second samples.
	AvgFPS float64

	// Samples is the FPS ring buffer; Head is the next write slot and Len the fill level.
	Samples [FPSWindow]float64
	Head    int
	Len     int
}

// Record adds one frame of the given duration.
// Non-positive durations still count as a frame but produce no FPS sample.
//
// Parameters:
//   - dt: the frame duration in seconds
func (r *RunTime) Record(dt float64) {
	r.Frames++
	if dt < 0 {
		dt = 0
	}
	r.Time += dt
	if r.Frames == 1 || dt < r.MinFrame {
		r.MinFrame = dt
	}
	r.MaxFrame = math.Max(r.MaxFrame, dt)
	r.AvgFrame = r.Time / float64(r.Frames)

	if dt == 0 {
		return
	}
	r.Samples[r.Head] = 1 / dt
	r.Head = (r.Head + 1) % FPSWindow
	if r.Len < FPSWindow {
		r.Len++
	}

	sum := 0.0
	for i := 0; i < r.Len; i++ {
		sum += r.Samples[i]
	}
	r.AvgFPS = sum / float64(r.Len)
}

// Reset zeroes every field.
func (r *RunTime) Reset() {
	*r = RunTime{}
}

// IsZero reports whether no frame has been recorded since the last reset.
func (r *RunTime) IsZero() bool {
	return *r == RunTime{}
}
