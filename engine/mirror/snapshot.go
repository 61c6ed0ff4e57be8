package mirror

import (
	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/runstate"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"github.com/Carmen-Shannon/oxy-trace/engine/telemetry"
	"github.com/Carmen-Shannon/oxy-trace/engine/tile"
)

// Snapshot is the immutable per-frame copy of simulation state handed to the render domain.
// It is passed by value; nothing in it aliases simulation memory.
type Snapshot struct {
	Frame  uint64
	Camera camera.Camera
	Scene  scene.Spheres
	Params tile.Params
	State  runstate.State
	Time   telemetry.RunTime
}

// Progress returns the fraction of the current pass that has been advanced to, in [0, 1].
// A Done snapshot always reports 1.
func (s Snapshot) Progress() float64 {
	if s.State == runstate.Done {
		return 1
	}
	total := tile.NewScheduler(int32(s.Camera.Width), int32(s.Camera.Height)).TilesPerPass(s.Params.Size)
	if total <= 0 || s.Params.Count <= 0 {
		return 0
	}
	return min(float64(s.Params.Count)/float64(total), 1)
}

// Status is the read-only view of a Snapshot published to display consumers.
type Status struct {
	Frame    uint64  `json:"frame"`
	State    string  `json:"state"`
	Text     string  `json:"text"`
	Action   string  `json:"action"`
	Seed     uint32  `json:"seed"`
	Tile     int32   `json:"tile"`
	Progress float64 `json:"progress"`
	Time     float64 `json:"time"`
	Frames   uint64  `json:"frames"`
	AvgFPS   float64 `json:"avg_fps"`
	MinFrame float64 `json:"min_frame"`
	MaxFrame float64 `json:"max_frame"`
}

// Status summarizes the snapshot for status lines and the control channel.
func (s Snapshot) Status() Status {
	return Status{
		Frame:    s.Frame,
		State:    s.State.String(),
		Text:     s.State.StatusText(),
		Action:   s.State.ActionLabel(),
		Seed:     s.Params.Seed,
		Tile:     s.Params.Count,
		Progress: s.Progress(),
		Time:     s.Time.Time,
		Frames:   s.Time.Frames,
		AvgFPS:   s.Time.AvgFPS,
		MinFrame: s.Time.MinFrame,
		MaxFrame: s.Time.MaxFrame,
	}
}
